package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-store/pkg/activity"
	"github.com/goliatone/go-store/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsCommitEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actor := activity.Actor{
		ActorID:  uuid.New().String(),
		UserID:   uuid.New().String(),
		TenantID: uuid.New().String(),
	}

	event := activity.MutationCommitted("app/user", "setUser", []any{"Joe"})
	event.Actor = actor
	event.Channel = "store"
	event.Metadata = map[string]any{"source": "test"}
	event.OccurredAt = now

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID.String() != actor.ActorID || record.UserID.String() != actor.UserID || record.TenantID.String() != actor.TenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.Verb != string(activity.VerbMutationCommitted) || record.ObjectType != "store.mutation" || record.ObjectID != "setUser" {
		t.Fatalf("unexpected object fields: %+v", record)
	}
	if record.Channel != "store" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["module"] != "app/user" || record.Data["member"] != "setUser" || record.Data["source"] != "test" {
		t.Fatalf("unexpected data: %+v", record.Data)
	}
}

func TestHookNotifyUsesDispatchIDForActions(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Channel: "audit"}

	id := uuid.New().String()
	event := activity.ActionDispatched("user", "user/create", id, nil)
	event.Actor = activity.Actor{ActorID: "not-a-uuid"}
	event.Channel = "store"

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ObjectID != id || record.Data["dispatch_id"] != id {
		t.Fatalf("expected dispatch id as object id, got %+v", record)
	}
	if record.Channel != "audit" {
		t.Fatalf("expected channel override, got %q", record.Channel)
	}
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for invalid id, got %s", record.ActorID)
	}
}

func TestHookNotifySkipsEventsWithoutObject(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})
	_ = hook.Notify(context.Background(), activity.MutationCommitted("user", "", nil))
	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}

	if err := (usersink.Hook{}).Notify(context.Background(), activity.ModuleCompiled("app", nil)); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	before := time.Now()
	if err := hook.Notify(nil, activity.ModuleCompiled("app", map[string]any{"root": true})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.OccurredAt.Before(before) {
		t.Fatalf("expected timestamp to default to now, got %v", record.OccurredAt)
	}
	if record.ObjectID != "app" || record.Data["root"] != true {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	errSink := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: errSink}}

	err := hook.Notify(context.Background(), activity.ModuleCompiled("app", nil))
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
