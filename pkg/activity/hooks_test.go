package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventDetachesInput(t *testing.T) {
	meta := map[string]any{"k": "v"}
	args := []any{"Joe"}
	evt := Event{
		Verb:     " store.mutation.committed ",
		Module:   " /app/user/ ",
		Member:   " user/set ",
		Actor:    Actor{ActorID: " actor ", TenantID: " t1 "},
		Channel:  " audit ",
		Args:     args,
		Metadata: meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbMutationCommitted || got.Module != "app/user" || got.Member != "user/set" {
		t.Fatalf("unexpected identifiers: %+v", got)
	}
	if got.Actor.ActorID != "actor" || got.Actor.TenantID != "t1" || got.Channel != "audit" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	got.Args[0] = "changed"
	if meta["k"] != "v" || args[0] != "Joe" {
		t.Fatalf("expected input untouched, got meta=%v args=%v", meta, args)
	}
}

func TestEventObjectIdentity(t *testing.T) {
	cases := []struct {
		name       string
		event      Event
		objectType string
		objectID   string
	}{
		{"compiled", ModuleCompiled("app", nil), "store.module", "app"},
		{"committed", MutationCommitted("app/user", "user/set", nil), "store.mutation", "user/set"},
		{"dispatched", ActionDispatched("app/user", "user/create", "4a7c", nil), "store.action", "4a7c"},
		{"dispatched_without_id", ActionDispatched("app/user", "user/create", "", nil), "store.action", "user/create"},
		{"unknown_verb", Event{Verb: "other", Module: "app"}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.event.ObjectType(); got != tc.objectType {
				t.Fatalf("object type: want %q got %q", tc.objectType, got)
			}
			if got := tc.event.ObjectID(); got != tc.objectID {
				t.Fatalf("object id: want %q got %q", tc.objectID, got)
			}
			if tc.event.Valid() != (tc.objectID != "") {
				t.Fatalf("unexpected validity for %+v", tc.event)
			}
		})
	}
}

func TestEventDataKeepsStoreFields(t *testing.T) {
	event := ActionDispatched("app/user", "user/create", "4a7c", []any{"Joe"}).WithErr(errors.New("boom"))
	event.Metadata = map[string]any{"module": "spoofed", "custom": 1}

	data := event.Data()
	if data["module"] != "app/user" || data["member"] != "user/create" || data["dispatch_id"] != "4a7c" {
		t.Fatalf("unexpected store fields: %+v", data)
	}
	if data["error"] != "boom" || data["custom"] != 1 {
		t.Fatalf("unexpected data: %+v", data)
	}
	if args, ok := data["args"].([]any); !ok || len(args) != 1 || args[0] != "Joe" {
		t.Fatalf("expected args in data, got %v", data["args"])
	}
	if event.Metadata["module"] != "spoofed" {
		t.Fatalf("expected event metadata untouched")
	}
}

func TestHooksNotifyDropsEventsWithoutObject(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	for _, event := range []Event{{}, {Verb: VerbMutationCommitted, Module: "app"}, ModuleCompiled("", nil)} {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	errFirst := errors.New("first")
	errSecond := errors.New("second")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return errFirst }),
		nil,
		HookFunc(func(context.Context, Event) error { return errSecond }),
	}

	err := hooks.Notify(nil, ActionDispatched("user", "user/create", "1", nil))
	if !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected a background context for nil ctx")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterAppliesDefaults(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{nil, capture}, Config{Actor: Actor{ActorID: "svc"}})
	if !emitter.Enabled() || emitter.Channel() != DefaultChannel {
		t.Fatalf("unexpected emitter state: enabled=%v channel=%q", emitter.Enabled(), emitter.Channel())
	}

	occurred := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	explicit := MutationCommitted("user", "user/set", nil)
	explicit.Channel = "custom"
	explicit.Actor = Actor{UserID: "u1"}
	explicit.OccurredAt = occurred

	if err := emitter.Emit(context.Background(), ModuleCompiled("user", nil)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := emitter.Emit(context.Background(), explicit); err != nil {
		t.Fatalf("emit: %v", err)
	}

	events := capture.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	if events[0].Channel != DefaultChannel || events[0].Actor.ActorID != "svc" {
		t.Fatalf("expected defaults on first event, got %+v", events[0])
	}
	if events[1].Channel != "custom" || events[1].Actor.UserID != "u1" || events[1].Actor.ActorID != "" {
		t.Fatalf("expected explicit channel and actor preserved, got %+v", events[1])
	}
	if !events[1].OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred_at preserved, got %v", events[1].OccurredAt)
	}
}

func TestEmitterWithoutHooksIsDisabled(t *testing.T) {
	emitter := NewEmitter(Hooks{nil}, Config{Channel: "audit"})
	if emitter.Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
	if err := emitter.Emit(context.Background(), ModuleCompiled("app", nil)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	var nilEmitter *Emitter
	if nilEmitter.Enabled() || nilEmitter.Channel() != DefaultChannel {
		t.Fatalf("expected nil emitter to be disabled on the default channel")
	}
}

func TestCaptureHookVerbsAndFilter(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	_ = hooks.Notify(context.Background(), ModuleCompiled("app", nil))
	_ = hooks.Notify(context.Background(), MutationCommitted("app", "setUser", nil))
	_ = hooks.Notify(context.Background(), MutationCommitted("app", "clear", nil))

	verbs := capture.Verbs()
	if len(verbs) != 3 || verbs[0] != VerbModuleCompiled || verbs[2] != VerbMutationCommitted {
		t.Fatalf("unexpected verbs %v", verbs)
	}
	commits := capture.ByVerb(VerbMutationCommitted)
	if len(commits) != 2 || commits[0].Member != "setUser" || commits[1].Member != "clear" {
		t.Fatalf("unexpected commits %+v", commits)
	}
}
