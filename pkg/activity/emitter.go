package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "store"

// Config sets the defaults an Emitter stamps on events.
type Config struct {
	Channel string
	Actor   Actor
}

// Emitter sends store events to hooks, filling in channel and actor.
type Emitter struct {
	hooks   Hooks
	channel string
	actor   Actor
}

// NewEmitter drops nil hooks and applies cfg defaults. An emitter without
// hooks is disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	var kept Hooks
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	return &Emitter{hooks: kept, channel: channel, actor: cfg.Actor}
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Channel returns the channel applied to events that do not carry one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit notifies the hooks. Channel and actor defaults apply only when the
// event leaves them empty.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.Actor.IsZero() {
		event.Actor = e.actor
	}
	return e.hooks.Notify(ctx, event)
}
