package store

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// ErrInvalidFunction is returned when a custom function cannot be registered.
var ErrInvalidFunction = errors.New("store: invalid expression function")

// Function is a helper callable from getter expressions.
type Function func(args ...any) (any, error)

var functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// FunctionRegistry holds the custom functions getter expressions may call.
// Names must be identifiers and may not shadow the names every evaluation
// binds (state, module, now, getter, call).
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Names are case sensitive and registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case fn == nil:
		return fmt.Errorf("%w: %q has no body", ErrInvalidFunction, name)
	case !functionName.MatchString(name):
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunction, name)
	}
	if _, reserved := reservedNames[name]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFunction, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("%w: %q already registered", ErrInvalidFunction, name)
	}
	r.functions[name] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("store: expression function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the registry so later registrations do not reach evaluators
// already built from it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewFunctionRegistry()
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// splitCall separates the function name from the arguments of call(name, ...).
func splitCall(params []any) (string, []any, error) {
	if len(params) == 0 {
		return "", nil, fmt.Errorf("store: call requires a function name")
	}
	name, ok := params[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("store: call name must be a string, got %T", params[0])
	}
	return name, params[1:], nil
}

// WithFunctionRegistry exposes a copy of registry to getter expressions
// compiled by the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *builderConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers fn under name for the default evaluator. An
// invalid registration is reported by the first Compile of a GetterExpr.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *builderConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.functionErrs = append(cfg.functionErrs, err)
		}
	}
}
