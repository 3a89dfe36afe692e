package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	store "github.com/goliatone/go-store"
	"github.com/goliatone/go-store/internal/snapshot"
	"github.com/goliatone/go-store/pkg/activity"
	"github.com/google/uuid"
)

var (
	// ErrNilConfig is returned by New when no configuration is supplied.
	ErrNilConfig = errors.New("container: config is required")
	// ErrDetachedModule is returned in strict mode when a mutation replaces
	// or removes the state of a nested module.
	ErrDetachedModule = errors.New("container: nested module state detached")
)

// MutationRecord describes a committed mutation.
type MutationRecord struct {
	Type    string
	Module  string
	Payload []any
}

// ActionRecord describes a dispatched action.
type ActionRecord struct {
	ID      uuid.UUID
	Type    string
	Module  string
	Payload []any
}

// MutationSubscriber observes commits after the mutation has been applied.
type MutationSubscriber func(record MutationRecord, state store.State)

// ActionSubscriber observes dispatches before the action body runs.
type ActionSubscriber func(record ActionRecord, state store.State)

// Store is a minimal live container for a compiled root configuration.
// Child module states are nested in the parent state under the module key.
// Getters are computed on every read.
//
// Commits are serialized. State and getter reads see live state and are not
// synchronized with commits running on other goroutines; use Snapshot for a
// consistent copy.
type Store struct {
	cfg     config
	emitter *activity.Emitter

	mu   sync.Mutex
	root *node

	getters   map[string]getterEntry
	mutations map[string]mutationEntry
	actions   map[string]actionEntry
	reader    store.GetterReader

	subMu         sync.Mutex
	nextSub       uint64
	mutationSubs  map[uint64]MutationSubscriber
	actionSubs    map[uint64]ActionSubscriber
	mutationOrder []uint64
	actionOrder   []uint64
}

type node struct {
	name     string
	path     string
	state    store.State
	children map[string]*node
}

type getterEntry struct {
	node *node
	fn   store.Getter
}

type mutationEntry struct {
	node *node
	fn   store.Mutation
}

type actionEntry struct {
	node *node
	fn   store.Action
}

// New installs cfg and its nested modules into a Store.
func New(cfg *store.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := store.CheckCollisions(cfg); err != nil {
		return nil, err
	}
	options := applyOptions(opts)
	s := &Store{
		cfg:          options,
		emitter:      activity.NewEmitter(options.hooks, activity.Config{Channel: options.channel, Actor: options.actor}),
		getters:      map[string]getterEntry{},
		mutations:    map[string]mutationEntry{},
		actions:      map[string]actionEntry{},
		mutationSubs: map[uint64]MutationSubscriber{},
		actionSubs:   map[uint64]ActionSubscriber{},
	}
	s.reader = store.GetterReaderFunc(s.getter)

	root, err := s.install(cfg, nil, "", rootPath(cfg.Name))
	if err != nil {
		return nil, err
	}
	s.root = root
	return s, nil
}

// Factory adapts New to a store.ContainerFactory.
func Factory(opts ...Option) store.ContainerFactory {
	return func(cfg *store.Config) (store.Container, error) {
		return New(cfg, opts...)
	}
}

func rootPath(name string) string {
	if name == "" {
		return "root"
	}
	return name
}

func (s *Store) install(cfg *store.Config, parent *node, key, path string) (*node, error) {
	state := snapshot.Clone(cfg.State)
	if state == nil {
		state = store.State{}
	}
	n := &node{name: cfg.Name, path: path, state: state, children: map[string]*node{}}
	if parent != nil {
		parent.state[key] = n.state
		parent.children[key] = n
	}

	for name, fn := range cfg.Getters {
		if fn == nil {
			continue
		}
		s.getters[name] = getterEntry{node: n, fn: fn}
	}
	for name, fn := range cfg.Mutations {
		if fn == nil {
			continue
		}
		s.mutations[name] = mutationEntry{node: n, fn: fn}
	}
	for name, fn := range cfg.Actions {
		if fn == nil {
			continue
		}
		s.actions[name] = actionEntry{node: n, fn: fn}
	}

	keys := make([]string, 0, len(cfg.Modules))
	for key := range cfg.Modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, childKey := range keys {
		child := cfg.Modules[childKey]
		if child == nil {
			continue
		}
		if _, err := s.install(child, n, childKey, path+"/"+childKey); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// State returns the live root state.
func (s *Store) State() store.State {
	return s.root.state
}

// Snapshot returns a deep copy of the root state taken between commits.
func (s *Store) Snapshot() store.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Clone(s.root.state)
}

// Getters returns a reader computing getters by global name.
func (s *Store) Getters() store.GetterReader {
	return s.reader
}

func (s *Store) getter(name string) (any, error) {
	entry, ok := s.getters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownGetter, name)
	}
	return entry.fn(entry.node.state, s.reader, s.root.state, s.reader)
}

// Commit applies the mutation registered under name, then notifies
// subscribers and activity hooks.
func (s *Store) Commit(name string, args ...any) error {
	entry, ok := s.mutations[name]
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownMutation, name)
	}

	s.mu.Lock()
	err := entry.fn(entry.node.state, args...)
	if err == nil && s.cfg.strict {
		err = entry.node.checkAttached()
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("container: commit %q: %w", name, err)
	}

	record := MutationRecord{Type: name, Module: entry.node.path, Payload: append([]any(nil), args...)}
	for _, sub := range s.mutationSubscribers() {
		sub(record, s.root.state)
	}
	s.emit(context.Background(), activity.MutationCommitted(entry.node.path, name, args))
	return nil
}

// Dispatch runs the action registered under name and returns its Deferred.
// The dispatch id is available to the action body through DispatchID.
func (s *Store) Dispatch(ctx context.Context, name string, args ...any) *store.Deferred {
	if ctx == nil {
		ctx = context.Background()
	}
	entry, ok := s.actions[name]
	if !ok {
		return store.Rejected(fmt.Errorf("%w: %q", store.ErrUnknownAction, name))
	}

	record := ActionRecord{ID: uuid.New(), Type: name, Module: entry.node.path, Payload: append([]any(nil), args...)}
	for _, sub := range s.actionSubscribers() {
		sub(record, s.root.state)
	}

	actx := store.ActionContext{
		State:       entry.node.state,
		Getters:     s.reader,
		RootState:   s.root.state,
		RootGetters: s.reader,
		Commit:      s.Commit,
		Dispatch:    s.Dispatch,
	}
	result := entry.fn(withDispatchID(ctx, record.ID), actx, args...)
	if result == nil {
		result = store.Resolved(nil)
	}
	s.emit(ctx, activity.ActionDispatched(entry.node.path, name, record.ID.String(), args))
	return result
}

// Subscribe registers fn for every successful commit. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn MutationSubscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.mutationSubs[id] = fn
	s.mutationOrder = append(s.mutationOrder, id)
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.mutationSubs, id)
			s.mutationOrder = removeID(s.mutationOrder, id)
			s.subMu.Unlock()
		})
	}
}

// SubscribeAction registers fn for every dispatch of a known action. The
// returned function removes the subscription.
func (s *Store) SubscribeAction(fn ActionSubscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.actionSubs[id] = fn
	s.actionOrder = append(s.actionOrder, id)
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.actionSubs, id)
			s.actionOrder = removeID(s.actionOrder, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) mutationSubscribers() []MutationSubscriber {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]MutationSubscriber, 0, len(s.mutationOrder))
	for _, id := range s.mutationOrder {
		out = append(out, s.mutationSubs[id])
	}
	return out
}

func (s *Store) actionSubscribers() []ActionSubscriber {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]ActionSubscriber, 0, len(s.actionOrder))
	for _, id := range s.actionOrder {
		out = append(out, s.actionSubs[id])
	}
	return out
}

func removeID(ids []uint64, target uint64) []uint64 {
	for i, id := range ids {
		if id == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	_ = s.emitter.Emit(ctx, event)
}

func (n *node) checkAttached() error {
	for key, child := range n.children {
		current, ok := n.state[key].(store.State)
		if !ok || !sameMap(current, child.state) {
			return fmt.Errorf("%w: %s", ErrDetachedModule, child.path)
		}
	}
	return nil
}

func sameMap(a, b store.State) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
