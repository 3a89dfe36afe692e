package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-store/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards store activity (module compilation, commits and dispatches)
// to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel overrides the event channel when set.
	Channel string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Events that do not identify a store object are dropped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(normalized))
}

func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	channel := event.Channel
	if h.Channel != "" {
		channel = h.Channel
	}
	return usertypes.ActivityRecord{
		ActorID:    parseUUID(event.Actor.ActorID),
		UserID:     parseUUID(event.Actor.UserID),
		TenantID:   parseUUID(event.Actor.TenantID),
		Verb:       string(event.Verb),
		ObjectType: event.ObjectType(),
		ObjectID:   event.ObjectID(),
		Channel:    channel,
		Data:       event.Data(),
		OccurredAt: event.OccurredAt,
	}
}

// parseUUID maps non-UUID actor identifiers to uuid.Nil; the original value
// stays out of the record.
func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
