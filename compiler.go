package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-store/internal/snapshot"
	"github.com/goliatone/go-store/pkg/activity"
)

// Builder collects module declarations and compiles them into configurations
// sharing one root Binding.
type Builder struct {
	cfg     builderConfig
	binding *Binding
	emitter *activity.Emitter
}

// NewBuilder constructs a Builder.
func NewBuilder(opts ...Option) *Builder {
	cfg := applyOptions(opts)
	return &Builder{
		cfg:     cfg,
		binding: NewBinding(),
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{}),
	}
}

// Binding returns the root binding shared by this builder's modules.
func (b *Builder) Binding() *Binding {
	return b.binding
}

// Module is a module declaration. Members registered on it are queued until
// the module is compiled.
type Module struct {
	name    string
	factory StateFactory
	queue   Queue
	builder *Builder
}

// Module declares a module named name whose default state comes from factory.
// A nil factory declares a module without state fields.
func (b *Builder) Module(name string, factory StateFactory) *Module {
	return &Module{
		name:    name,
		factory: factory,
		builder: b,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Pending reports how many member registrations await compilation.
func (m *Module) Pending() int {
	return m.queue.Len()
}

// Fields returns a StateFactory producing a copy of fields on every call.
func Fields(fields State) StateFactory {
	return func() (State, error) {
		return snapshot.Clone(fields), nil
	}
}

// StructFields returns a StateFactory deriving fields from the JSON encoding
// of the value returned by newValue.
func StructFields[T any](newValue func() T) StateFactory {
	return func() (State, error) {
		if newValue == nil {
			return State{}, nil
		}
		raw, err := json.Marshal(newValue())
		if err != nil {
			return nil, err
		}
		fields := State{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
}

// Compile drains the module's queued registrations and builds its Config.
// With opts.AsRoot it also constructs the root container and binds it.
func (b *Builder) Compile(m *Module, opts CompileOptions) (*Config, error) {
	if m == nil {
		return nil, fmt.Errorf("store: module is required")
	}
	if m.builder != b {
		return nil, fmt.Errorf("%w: %q", ErrForeignModule, m.name)
	}

	start := time.Now()
	registrations := m.queue.DrainAll()
	cfg, err := b.compile(m, registrations, opts)
	if err == nil && opts.AsRoot {
		err = b.bindRoot(cfg)
	}
	b.compileLogger().LogCompile(CompileLogEvent{
		Module:        m.name,
		Registrations: len(registrations),
		Children:      len(opts.Modules),
		Root:          opts.AsRoot,
		Duration:      time.Since(start),
		Err:           err,
	})
	if err != nil {
		return nil, err
	}
	b.emitCompiled(cfg, opts.AsRoot)
	return cfg, nil
}

// CompileRoot compiles m as the root module and returns the bound container.
func (b *Builder) CompileRoot(m *Module, opts CompileOptions) (Container, error) {
	opts.AsRoot = true
	if _, err := b.Compile(m, opts); err != nil {
		return nil, err
	}
	return b.binding.Container()
}

func (b *Builder) compile(m *Module, registrations []Registration, opts CompileOptions) (*Config, error) {
	state, err := m.snapshotState()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Name:      m.name,
		State:     state,
		Getters:   map[string]Getter{},
		Mutations: map[string]Mutation{},
		Actions:   map[string]Action{},
	}
	if len(opts.Modules) > 0 {
		cfg.Modules = opts.Modules
	}

	scope := newModuleScope(m.name)
	for _, register := range registrations {
		if err := register(cfg, scope); err != nil {
			return nil, err
		}
	}

	if err := CheckCollisions(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m *Module) snapshotState() (State, error) {
	if m.factory == nil {
		return State{}, nil
	}
	fields, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: module %q: %w", ErrConstruction, m.name, err)
	}
	state := snapshot.Clone(fields)
	if state == nil {
		state = State{}
	}
	return state, nil
}

func (b *Builder) bindRoot(cfg *Config) error {
	factory := b.cfg.containerFactory
	if factory == nil {
		return ErrNoContainerFactory
	}
	container, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("store: build root container: %w", err)
	}
	return b.binding.Bind(container)
}

func (b *Builder) emitCompiled(cfg *Config, root bool) {
	if !b.emitter.Enabled() {
		return
	}
	_ = b.emitter.Emit(context.Background(), activity.ModuleCompiled(cfg.Name, map[string]any{
		"root":      root,
		"getters":   len(cfg.Getters),
		"mutations": len(cfg.Mutations),
		"actions":   len(cfg.Actions),
		"modules":   len(cfg.Modules),
	}))
}

// CheckCollisions walks cfg and its children and fails on the first global
// getter, mutation or action name registered by more than one module.
func CheckCollisions(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	owners := map[MemberKind]map[string]string{
		KindGetter:   {},
		KindMutation: {},
		KindAction:   {},
	}
	return walkNames(cfg, modulePath("", cfg.Name), owners, map[*Config]struct{}{})
}

func walkNames(cfg *Config, path string, owners map[MemberKind]map[string]string, visiting map[*Config]struct{}) error {
	if _, ok := visiting[cfg]; ok {
		return fmt.Errorf("%w: %s", ErrModuleCycle, path)
	}
	visiting[cfg] = struct{}{}
	defer delete(visiting, cfg)

	claim := func(kind MemberKind, names []string) error {
		for _, name := range names {
			if first, exists := owners[kind][name]; exists {
				return &CollisionError{Kind: kind, Name: name, First: first, Second: path}
			}
			owners[kind][name] = path
		}
		return nil
	}
	if err := claim(KindGetter, sortedKeys(cfg.Getters)); err != nil {
		return err
	}
	if err := claim(KindMutation, sortedKeys(cfg.Mutations)); err != nil {
		return err
	}
	if err := claim(KindAction, sortedKeys(cfg.Actions)); err != nil {
		return err
	}

	for _, key := range sortedKeys(cfg.Modules) {
		child := cfg.Modules[key]
		if child == nil {
			continue
		}
		if err := walkNames(child, modulePath(path, key), owners, visiting); err != nil {
			return err
		}
	}
	return nil
}

func modulePath(parent, name string) string {
	if name == "" {
		name = "root"
	}
	if parent == "" {
		return name
	}
	return strings.Join([]string{parent, name}, "/")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
