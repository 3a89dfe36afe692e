package container

import (
	"strings"

	"github.com/goliatone/go-store/pkg/activity"
)

// Option configures a Store.
type Option func(*config)

type config struct {
	hooks   activity.Hooks
	channel string
	strict  bool
	actor   activity.Actor
}

// WithHooks registers activity hooks notified after every commit and dispatch.
func WithHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *config) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.hooks = append(cfg.hooks, hook)
			}
		}
	}
}

// WithChannel overrides the activity channel. Empty values are ignored.
func WithChannel(channel string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(channel); trimmed != "" {
			cfg.channel = trimmed
		}
	}
}

// WithStrict makes Commit fail when a mutation replaces or removes the state
// of a nested module.
func WithStrict(enabled bool) Option {
	return func(cfg *config) {
		cfg.strict = enabled
	}
}

// WithActor attributes the Store's commit and dispatch events to actor.
func WithActor(actor activity.Actor) Option {
	return func(cfg *config) {
		cfg.actor = actor
	}
}

func applyOptions(opts []Option) config {
	cfg := config{channel: activity.DefaultChannel}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
