package store

import (
	"context"
	"sync"
)

// Binding holds the root container shared by every module compiled from one
// Builder. Registrations capture the Binding at declaration time and read it
// only when a local proxy is called, so it may be bound after they compile.
type Binding struct {
	mu        sync.RWMutex
	container Container
}

// NewBinding returns an unbound Binding.
func NewBinding() *Binding {
	return &Binding{}
}

// Bind stores c. It succeeds once.
func (b *Binding) Bind(c Container) error {
	if c == nil {
		return ErrRootUnbound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.container != nil {
		return ErrRootAlreadyBound
	}
	b.container = c
	return nil
}

// Bound reports whether a container has been bound.
func (b *Binding) Bound() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.container != nil
}

// Container returns the bound container or ErrRootUnbound.
func (b *Binding) Container() (Container, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.container == nil {
		return nil, ErrRootUnbound
	}
	return b.container, nil
}

// Commit forwards to the root container's Commit.
func (b *Binding) Commit(name string, args ...any) error {
	c, err := b.Container()
	if err != nil {
		return err
	}
	return c.Commit(name, args...)
}

// Dispatch forwards to the root container's Dispatch. An unbound Binding
// yields a rejected Deferred.
func (b *Binding) Dispatch(ctx context.Context, name string, args ...any) *Deferred {
	c, err := b.Container()
	if err != nil {
		return Rejected(err)
	}
	return c.Dispatch(ctx, name, args...)
}

// Getter reads a root getter by global name.
func (b *Binding) Getter(name string) (any, error) {
	c, err := b.Container()
	if err != nil {
		return nil, err
	}
	return c.Getters().Get(name)
}

// State returns the root container's state.
func (b *Binding) State() (State, error) {
	c, err := b.Container()
	if err != nil {
		return nil, err
	}
	return c.State(), nil
}

// MapGetter returns a function reading the global getter name through b.
func MapGetter(b *Binding, name string) func() (any, error) {
	return func() (any, error) {
		return b.Getter(name)
	}
}

// MapAction returns a function dispatching the global action name through b.
func MapAction(b *Binding, name string) LocalAction {
	return func(ctx context.Context, args ...any) *Deferred {
		return b.Dispatch(ctx, name, args...)
	}
}

// MapMutation returns a function committing the global mutation name through b.
func MapMutation(b *Binding, name string) LocalMutation {
	return func(args ...any) error {
		return b.Commit(name, args...)
	}
}
