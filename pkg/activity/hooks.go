package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verb names a store lifecycle occurrence.
type Verb string

const (
	VerbModuleCompiled    Verb = "store.module.compiled"
	VerbMutationCommitted Verb = "store.mutation.committed"
	VerbActionDispatched  Verb = "store.action.dispatched"
)

// ObjectType returns the kind of store object the verb refers to, or "" for
// verbs the store does not emit.
func (v Verb) ObjectType() string {
	switch v {
	case VerbModuleCompiled:
		return "store.module"
	case VerbMutationCommitted:
		return "store.mutation"
	case VerbActionDispatched:
		return "store.action"
	default:
		return ""
	}
}

// Actor attributes events to whoever drives a store.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// IsZero reports whether no actor field is set.
func (a Actor) IsZero() bool {
	return a.ActorID == "" && a.UserID == "" && a.TenantID == ""
}

// Event is one store occurrence.
//
// Module is the module path ("app/user"). Member is the global name of the
// committed mutation or dispatched action and stays empty for compiles.
// DispatchID is only set on dispatches.
type Event struct {
	Verb       Verb
	Module     string
	Member     string
	DispatchID string
	Actor      Actor
	Channel    string
	Args       []any
	Err        string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives normalized store events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and forwards it to every hook. Events that do not
// identify a store object are dropped. Hook errors are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, strips surrounding slashes from the
// module path, detaches args and metadata, and stamps OccurredAt.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = Verb(strings.TrimSpace(string(event.Verb)))
	normalized.Module = strings.Trim(strings.TrimSpace(event.Module), "/")
	normalized.Member = strings.TrimSpace(event.Member)
	normalized.DispatchID = strings.TrimSpace(event.DispatchID)
	normalized.Actor = Actor{
		ActorID:  strings.TrimSpace(event.Actor.ActorID),
		UserID:   strings.TrimSpace(event.Actor.UserID),
		TenantID: strings.TrimSpace(event.Actor.TenantID),
	}
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Metadata = cloneMap(event.Metadata)
	normalized.Args = nil
	if len(event.Args) > 0 {
		normalized.Args = append([]any{}, event.Args...)
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
