package store

import (
	"context"
	"reflect"
	"testing"
)

func TestViewLayerPrecedence(t *testing.T) {
	local := State{"firstName": "Joe", "shared": "local"}
	root := State{"message": "Hello World", "shared": "root"}
	view := NewView(local, nil, root)

	if value, ok := view.Get("shared"); !ok || value != "local" {
		t.Fatalf("expected local to shadow root, got %v", value)
	}
	if value, ok := view.Get("message"); !ok || value != "Hello World" {
		t.Fatalf("expected root fallback, got %v", value)
	}
	if view.Has("missing") {
		t.Fatalf("unexpected key")
	}
	if keys := view.Keys(); !reflect.DeepEqual(keys, []string{"firstName", "message", "shared"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
	if view.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", view.Len())
	}
}

func TestViewReadsLiveState(t *testing.T) {
	local := State{"count": 1}
	view := NewView(local)
	local["count"] = 2
	if value, _ := view.Get("count"); value != 2 {
		t.Fatalf("expected live value, got %v", value)
	}
}

func TestViewSnapshotIsDetached(t *testing.T) {
	local := State{"user": State{"firstName": "Joe"}}
	root := State{"user": State{"lastName": "Shmoe"}, "ready": true}
	snap := NewView(local, root).Snapshot()

	want := State{"user": State{"firstName": "Joe", "lastName": "Shmoe"}, "ready": true}
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("snapshot mismatch:\nwant: %#v\n got: %#v", want, snap)
	}
	snap["user"].(State)["firstName"] = "Bob"
	if local["user"].(State)["firstName"] != "Joe" {
		t.Fatalf("snapshot must not alias layers")
	}

	if empty := NewView().Snapshot(); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty state, got %#v", empty)
	}
}

func TestViewNestedValuesAreCopies(t *testing.T) {
	child := State{"firstName": "Joe"}
	tags := []any{"a"}
	local := State{"user": child, "tags": tags, "meta": map[string]any{"k": "v"}}
	view := NewView(local)

	nested, _ := view.Get("user")
	nested.(State)["firstName"] = "Bob"
	list, _ := view.Get("tags")
	list.([]any)[0] = "changed"
	meta, _ := view.Get("meta")
	meta.(map[string]any)["k"] = "changed"

	if child["firstName"] != "Joe" || tags[0] != "a" || local["meta"].(map[string]any)["k"] != "v" {
		t.Fatalf("view lookups must not expose live nested state, got %v", local)
	}
}

func TestScopeGetReturnsCopies(t *testing.T) {
	b := NewBuilder()
	m := b.Module("app", nil).
		Getter("app/rename", "rename", func(scope *GetterScope) (any, error) {
			nested, _ := scope.Get("user")
			nested.(State)["firstName"] = "Bob"
			return nil, nil
		}).
		Action("app/renameAction", "renameAction", func(_ context.Context, scope *ActionScope, _ ...any) *Deferred {
			nested, _ := scope.Get("user")
			nested.(State)["firstName"] = "Bob"
			return nil
		})
	cfg, err := b.Compile(m, CompileOptions{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	state := State{"user": State{"firstName": "Joe"}}
	if _, err := cfg.Getters["app/rename"](state, nil, state, nil); err != nil {
		t.Fatalf("getter: %v", err)
	}
	if _, err := cfg.Actions["app/renameAction"](context.Background(), ActionContext{State: state, RootState: state}).Await(context.Background()); err != nil {
		t.Fatalf("action: %v", err)
	}
	if state["user"].(State)["firstName"] != "Joe" {
		t.Fatalf("scope reads must not expose live nested state, got %v", state["user"])
	}
}
