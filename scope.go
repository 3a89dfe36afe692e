package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ModuleScope holds what a module's members can reach by local name. The
// action and getter scope skeletons are built once per module; every call
// receives a copy bound to the state and container it was invoked with.
type ModuleScope struct {
	module string

	names     map[string]MemberKind
	actions   map[string]localAction
	mutations map[string]localMutation
	getters   map[string]GetterFunc

	actionOnce sync.Once
	actionBase ActionScope
	getterOnce sync.Once
	getterBase GetterScope
}

type localAction struct {
	global string
	proxy  LocalAction
}

type localMutation struct {
	global string
	proxy  LocalMutation
}

func newModuleScope(module string) *ModuleScope {
	return &ModuleScope{
		module:    module,
		names:     map[string]MemberKind{},
		actions:   map[string]localAction{},
		mutations: map[string]localMutation{},
		getters:   map[string]GetterFunc{},
	}
}

// Module returns the name of the owning module.
func (s *ModuleScope) Module() string {
	return s.module
}

// Members returns the local member names registered so far, sorted.
func (s *ModuleScope) Members() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ModuleScope) claim(kind MemberKind, local string) error {
	if _, exists := s.names[local]; exists {
		return &CollisionError{Kind: kind, Name: local, First: s.module, Second: s.module, Local: true}
	}
	s.names[local] = kind
	return nil
}

func (s *ModuleScope) addAction(local, global string, proxy LocalAction) error {
	if err := s.claim(KindAction, local); err != nil {
		return err
	}
	s.actions[local] = localAction{global: global, proxy: proxy}
	return nil
}

func (s *ModuleScope) addMutation(local, global string, proxy LocalMutation) error {
	if err := s.claim(KindMutation, local); err != nil {
		return err
	}
	s.mutations[local] = localMutation{global: global, proxy: proxy}
	return nil
}

func (s *ModuleScope) addGetter(local string, fn GetterFunc) error {
	if err := s.claim(KindGetter, local); err != nil {
		return err
	}
	s.getters[local] = fn
	return nil
}

// forGetters returns a getter scope over state, rootState and rootGetters.
func (s *ModuleScope) forGetters(state, rootState State, rootGetters GetterReader) *GetterScope {
	s.getterOnce.Do(func() {
		s.getterBase = GetterScope{module: s.module, scope: s}
	})
	gs := s.getterBase
	gs.view = NewView(state, rootState)
	gs.local = state
	gs.root = rootState
	gs.rootGetters = rootGetters
	return &gs
}

// forActions returns an action scope bound to actx.
func (s *ModuleScope) forActions(actx ActionContext) *ActionScope {
	s.actionOnce.Do(func() {
		s.actionBase = ActionScope{module: s.module, scope: s}
	})
	as := s.actionBase
	as.view = NewView(actx.State, actx.RootState)
	as.local = actx.State
	as.getters = actx.RootGetters
	as.commit = actx.Commit
	as.dispatch = actx.Dispatch
	as.getter = s.forGetters(actx.State, actx.RootState, actx.RootGetters)
	return &as
}

func (s *ModuleScope) unknown(kind MemberKind, local string) error {
	return fmt.Errorf("%w: module %q has no local %s %q", ErrUnknownMember, s.module, kind, local)
}

// ActionScope is what an action body sees: read-only state, commit and
// dispatch, root getters, and sibling members by local name.
type ActionScope struct {
	module   string
	view     View
	local    State
	getters  GetterReader
	commit   func(name string, args ...any) error
	dispatch func(ctx context.Context, name string, args ...any) *Deferred
	scope    *ModuleScope
	getter   *GetterScope
}

// Module returns the owning module name.
func (s *ActionScope) Module() string {
	return s.module
}

// State returns the module state layered over the root state.
func (s *ActionScope) State() View {
	return s.view
}

// Get reads a field of the module's own state. Map and slice values are
// copies.
func (s *ActionScope) Get(field string) (any, bool) {
	value, ok := s.local[field]
	return detach(value), ok
}

// Commit commits a mutation by global name.
func (s *ActionScope) Commit(name string, args ...any) error {
	if s.commit == nil {
		return ErrRootUnbound
	}
	return s.commit(name, args...)
}

// Dispatch dispatches an action by global name.
func (s *ActionScope) Dispatch(ctx context.Context, name string, args ...any) *Deferred {
	if s.dispatch == nil {
		return Rejected(ErrRootUnbound)
	}
	return s.dispatch(ctx, name, args...)
}

// Getters returns the root getters.
func (s *ActionScope) Getters() GetterReader {
	return s.getters
}

// CallAction dispatches a sibling action by its local name. It goes through
// the container running this action, or the root binding when the action
// was invoked without one.
func (s *ActionScope) CallAction(ctx context.Context, local string, args ...any) *Deferred {
	member, ok := s.scope.actions[local]
	if !ok {
		return Rejected(s.scope.unknown(KindAction, local))
	}
	if s.dispatch != nil {
		return s.dispatch(ctx, member.global, args...)
	}
	return member.proxy(ctx, args...)
}

// CallMutation commits a sibling mutation by its local name, routed like
// CallAction.
func (s *ActionScope) CallMutation(local string, args ...any) error {
	member, ok := s.scope.mutations[local]
	if !ok {
		return s.scope.unknown(KindMutation, local)
	}
	if s.commit != nil {
		return s.commit(member.global, args...)
	}
	return member.proxy(args...)
}

// Getter evaluates a sibling getter by its local name.
func (s *ActionScope) Getter(local string) (any, error) {
	return s.getter.Getter(local)
}

// GetterScope is what a getter body sees. Everything is read-only.
type GetterScope struct {
	module      string
	view        View
	local       State
	root        State
	rootGetters GetterReader
	scope       *ModuleScope
}

// Module returns the owning module name.
func (s *GetterScope) Module() string {
	return s.module
}

// State returns the module state layered over the root state.
func (s *GetterScope) State() View {
	return s.view
}

// Get reads a field of the module's own state. Map and slice values are
// copies.
func (s *GetterScope) Get(field string) (any, bool) {
	value, ok := s.local[field]
	return detach(value), ok
}

// RootState returns the root state alone.
func (s *GetterScope) RootState() View {
	return NewView(s.root)
}

// Getters returns the root getters.
func (s *GetterScope) Getters() GetterReader {
	return s.rootGetters
}

// Getter evaluates a sibling getter by its local name.
func (s *GetterScope) Getter(local string) (any, error) {
	fn, ok := s.scope.getters[local]
	if !ok {
		return nil, s.scope.unknown(KindGetter, local)
	}
	return fn(s)
}

// evaluation binds the scope's call-time state for a getter expression.
func (s *GetterScope) evaluation(global string) Evaluation {
	fields := make(map[string]any, len(s.root)+len(s.local))
	for key, value := range s.root {
		fields[key] = plainValue(value)
	}
	for key, value := range s.local {
		fields[key] = plainValue(value)
	}
	root, _ := plainValue(s.root).(map[string]any)
	return Evaluation{
		Module:  s.module,
		Getter:  global,
		Fields:  fields,
		Root:    root,
		Sibling: s.Getter,
		Now:     time.Now(),
	}
}

// plainValue converts State values to map[string]any so evaluators that only
// understand unnamed map types can walk nested module state.
func plainValue(value any) any {
	switch typed := value.(type) {
	case State:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = plainValue(nested)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = plainValue(nested)
		}
		return out
	default:
		return value
	}
}
