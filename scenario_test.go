package store_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	store "github.com/goliatone/go-store"
	"github.com/goliatone/go-store/pkg/container"
)

type user struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

type app struct {
	builder *store.Builder
	user    *store.Config
	root    *store.Config
	store   store.Container
}

func newApp(t *testing.T) app {
	t.Helper()
	b := store.NewBuilder(store.WithContainerFactory(container.Factory()))

	userModule := b.Module("user", store.StructFields(func() user { return user{} })).
		Action("user/create", "create", func(ctx context.Context, scope *store.ActionScope, args ...any) *store.Deferred {
			u, err := store.Arg[user](args, 0)
			if err != nil {
				return store.Rejected(err)
			}
			return store.Resolved(u).Then(func(value any) (any, error) {
				return value, scope.CallMutation("set", value)
			})
		}).
		Mutation("user/set", "set", func(state store.State, args ...any) error {
			u, err := store.Arg[user](args, 0)
			if err != nil {
				return err
			}
			state["firstName"] = u.FirstName
			state["lastName"] = u.LastName
			state["username"] = u.Username
			return nil
		}).
		GetterExpr("user/fullName", "fullName", `firstName + " " + lastName`).
		Getter("user/displayName", "displayName", func(scope *store.GetterScope) (any, error) {
			full, err := scope.Getter("fullName")
			if err != nil {
				return nil, err
			}
			username, _ := scope.Get("username")
			return full.(string) + " (" + username.(string) + ")", nil
		})

	userCfg, err := b.Compile(userModule, store.CompileOptions{})
	if err != nil {
		t.Fatalf("compile user: %v", err)
	}

	appModule := b.Module("app", store.Fields(store.State{"user": nil})).
		GetterExpr("app/hasUser", "hasUser", `user.firstName != ""`)
	rootCfg, err := b.Compile(appModule, store.CompileOptions{
		Modules: map[string]*store.Config{"user": userCfg},
		AsRoot:  true,
	})
	if err != nil {
		t.Fatalf("compile app: %v", err)
	}
	root, err := b.Binding().Container()
	if err != nil {
		t.Fatalf("root container: %v", err)
	}
	return app{builder: b, user: userCfg, root: rootCfg, store: root}
}

func userState(t *testing.T, c store.Container) store.State {
	t.Helper()
	nested, ok := c.State()["user"].(store.State)
	if !ok {
		t.Fatalf("expected nested user state, got %T", c.State()["user"])
	}
	return nested
}

func TestConfigShape(t *testing.T) {
	a := newApp(t)

	if a.root.Modules["user"] != a.user {
		t.Fatalf("expected user config attached under its key")
	}
	if a.user.Modules != nil {
		t.Fatalf("leaf module must not carry a modules entry")
	}
	if a.root.Getters["app/hasUser"] == nil {
		t.Fatalf("expected app/hasUser getter")
	}
	for _, name := range []string{"user/fullName", "user/displayName"} {
		if a.user.Getters[name] == nil {
			t.Fatalf("expected getter %q", name)
		}
	}
	if a.user.Mutations["user/set"] == nil || a.user.Actions["user/create"] == nil {
		t.Fatalf("expected user/set and user/create")
	}
}

func TestCreateMutatesStateAndGetters(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	if has, err := a.store.Getters().Get("app/hasUser"); err != nil || has != false {
		t.Fatalf("expected hasUser=false, got %v (%v)", has, err)
	}

	joe := user{FirstName: "Joe", LastName: "Shmoe", Username: "@shmoe"}
	value, err := a.store.Dispatch(ctx, "user/create", joe).Await(ctx)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := store.State{"firstName": "Joe", "lastName": "Shmoe", "username": "@shmoe"}
	if !reflect.DeepEqual(userState(t, a.store), want) {
		t.Fatalf("expected %v, got %v", want, userState(t, a.store))
	}
	if value != joe {
		t.Fatalf("expected action to resolve with the user, got %v", value)
	}

	checks := map[string]any{
		"app/hasUser":      true,
		"user/fullName":    "Joe Shmoe",
		"user/displayName": "Joe Shmoe (@shmoe)",
	}
	for name, want := range checks {
		got, err := a.store.Getters().Get(name)
		if err != nil || got != want {
			t.Fatalf("%s: expected %v, got %v (%v)", name, want, got, err)
		}
	}
}

func TestCommitCopiesPayload(t *testing.T) {
	a := newApp(t)

	bob := map[string]any{"firstName": "Bob", "lastName": "Dobalina", "username": "@bob"}
	if err := a.store.Commit("user/set", bob); err != nil {
		t.Fatalf("commit: %v", err)
	}
	state := userState(t, a.store)
	if !reflect.DeepEqual(map[string]any(state), bob) {
		t.Fatalf("expected state to equal payload, got %v", state)
	}
	if reflect.ValueOf(state).UnsafePointer() == reflect.ValueOf(bob).UnsafePointer() {
		t.Fatalf("state must not be the payload itself")
	}
}

func TestMappedMembers(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	binding := a.builder.Binding()

	displayName := store.MapGetter(binding, "user/displayName")
	createUser := store.MapAction(binding, "user/create")
	setUser := store.MapMutation(binding, "user/set")

	napoleon := user{FirstName: "Napoleon", LastName: "Dynamite", Username: "@gosh"}
	if _, err := createUser(ctx, napoleon).Await(ctx); err != nil {
		t.Fatalf("mapped action: %v", err)
	}
	got, err := displayName()
	if err != nil {
		t.Fatalf("mapped getter: %v", err)
	}
	direct, _ := a.store.Getters().Get("user/displayName")
	if got != direct || got != "Napoleon Dynamite (@gosh)" {
		t.Fatalf("mapped getter mismatch: %v vs %v", got, direct)
	}

	if err := setUser(user{FirstName: "Pedro", LastName: "Sanchez", Username: "@pedro"}); err != nil {
		t.Fatalf("mapped mutation: %v", err)
	}
	if userState(t, a.store)["firstName"] != "Pedro" {
		t.Fatalf("expected mapped mutation to commit")
	}
}

func TestLocalAndGlobalPathsAgree(t *testing.T) {
	viaAction := newApp(t)
	viaCommit := newApp(t)
	ctx := context.Background()

	joe := user{FirstName: "Joe", LastName: "Shmoe", Username: "@shmoe"}
	if _, err := viaAction.store.Dispatch(ctx, "user/create", joe).Await(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := viaCommit.store.Commit("user/set", joe); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reflect.DeepEqual(viaAction.store.State(), viaCommit.store.State()) {
		t.Fatalf("expected identical state, got %v and %v", viaAction.store.State(), viaCommit.store.State())
	}
}

func TestDescribeTree(t *testing.T) {
	a := newApp(t)
	desc := store.Describe(a.root)

	if desc.Name != "app" || len(desc.Modules) != 1 {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	child := desc.Modules[0]
	if child.Key != "user" || !reflect.DeepEqual(child.Getters, []string{"user/displayName", "user/fullName"}) {
		t.Fatalf("unexpected child descriptor %+v", child)
	}
	if !reflect.DeepEqual(child.Mutations, []string{"user/set"}) || !reflect.DeepEqual(child.Actions, []string{"user/create"}) {
		t.Fatalf("unexpected child members %+v", child)
	}
	fields := map[string]string{}
	for _, field := range child.Fields {
		fields[field.Path] = field.Type
	}
	if fields["firstName"] != "string" || len(fields) != 3 {
		t.Fatalf("unexpected fields %v", fields)
	}

	outline := desc.String()
	for _, line := range []string{"module app", "  module user", "getter app/hasUser", "action user/create"} {
		if !strings.Contains(outline, line) {
			t.Fatalf("expected %q in outline:\n%s", line, outline)
		}
	}
}
