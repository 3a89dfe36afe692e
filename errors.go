package store

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction wraps failures of a module StateFactory.
	ErrConstruction = errors.New("store: module construction failed")
	// ErrNameCollision indicates two registrations share a global name, or two
	// members of one module share a local name.
	ErrNameCollision = errors.New("store: name collision")
	// ErrInvalidRegistration indicates a member declared without a name or body.
	ErrInvalidRegistration = errors.New("store: invalid registration")
	// ErrRootUnbound indicates a call through the root binding before the root
	// container was constructed.
	ErrRootUnbound = errors.New("store: root container is not bound")
	// ErrRootAlreadyBound indicates a second attempt to bind the root container.
	ErrRootAlreadyBound = errors.New("store: root container already bound")
	// ErrNoContainerFactory indicates a root compile without WithContainerFactory.
	ErrNoContainerFactory = errors.New("store: container factory not configured")
	// ErrForeignModule indicates a module compiled by a builder that did not declare it.
	ErrForeignModule = errors.New("store: module belongs to another builder")
	// ErrModuleCycle indicates a configuration that embeds itself.
	ErrModuleCycle = errors.New("store: module tree contains a cycle")

	ErrUnknownGetter   = errors.New("store: unknown getter")
	ErrUnknownMutation = errors.New("store: unknown mutation")
	ErrUnknownAction   = errors.New("store: unknown action")
	ErrUnknownMember   = errors.New("store: unknown local member")

	// ErrMissingArgument indicates a member called with fewer arguments than
	// it reads.
	ErrMissingArgument = errors.New("store: missing argument")
	// ErrInvalidArgument indicates an argument that cannot be converted to the
	// type a member expects.
	ErrInvalidArgument = errors.New("store: invalid argument")
)

// CollisionError reports a name registered twice. First and Second identify
// the owning modules (equal when the clash is inside one module).
type CollisionError struct {
	Kind   MemberKind
	Name   string
	First  string
	Second string
	Local  bool
}

func (e *CollisionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	scope := "global"
	if e.Local {
		scope = "local"
	}
	if e.First == e.Second {
		return fmt.Sprintf("store: %s %s name %q registered twice in module %q", scope, e.Kind, e.Name, e.First)
	}
	return fmt.Sprintf("store: %s %s name %q registered by modules %q and %q", scope, e.Kind, e.Name, e.First, e.Second)
}

func (e *CollisionError) Unwrap() error {
	return ErrNameCollision
}

// RegistrationError reports a member declaration that cannot be compiled.
type RegistrationError struct {
	Module string
	Kind   MemberKind
	Global string
	Local  string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: module %q %s global=%q local=%q: %s", e.Module, e.Kind, e.Global, e.Local, e.Reason)
}

func (e *RegistrationError) Unwrap() error {
	return ErrInvalidRegistration
}
