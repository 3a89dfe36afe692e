package store

import (
	"context"

	"github.com/goliatone/go-store/pkg/activity"
)

// State maps field names to values for a single module. Child module states
// are attached under the child module name once a container owns the tree.
type State map[string]any

// StateFactory returns a fresh set of default field values for a module. It is
// called once per compile; the result is deep copied into Config.State.
type StateFactory func() (State, error)

// GetterReader resolves getter values by global name.
type GetterReader interface {
	Get(name string) (any, error)
}

// GetterReaderFunc adapts a function to GetterReader.
type GetterReaderFunc func(name string) (any, error)

// Get implements GetterReader.
func (f GetterReaderFunc) Get(name string) (any, error) {
	if f == nil {
		return nil, ErrUnknownGetter
	}
	return f(name)
}

// Getter is the container-shaped form of a compiled getter.
type Getter func(state State, getters GetterReader, rootState State, rootGetters GetterReader) (any, error)

// Mutation is the container-shaped form of a compiled mutation. It mutates
// state in place.
type Mutation func(state State, args ...any) error

// Action is the container-shaped form of a compiled action.
type Action func(ctx context.Context, actx ActionContext, args ...any) *Deferred

// GetterFunc is the body of a declared getter. It must be a pure read.
type GetterFunc func(scope *GetterScope) (any, error)

// MutationFunc is the body of a declared mutation.
type MutationFunc func(state State, args ...any) error

// ActionFunc is the body of a declared action. The returned Deferred is handed
// back to the dispatcher untouched.
type ActionFunc func(ctx context.Context, scope *ActionScope, args ...any) *Deferred

// LocalAction calls a sibling action through the root container.
type LocalAction func(ctx context.Context, args ...any) *Deferred

// LocalMutation commits a sibling mutation through the root container.
type LocalMutation func(args ...any) error

// ActionContext is what a container supplies when it invokes an action.
type ActionContext struct {
	State       State
	Getters     GetterReader
	RootState   State
	RootGetters GetterReader
	Commit      func(name string, args ...any) error
	Dispatch    func(ctx context.Context, name string, args ...any) *Deferred
}

// Container is the live state container built from a root Config.
type Container interface {
	Commit(name string, args ...any) error
	Dispatch(ctx context.Context, name string, args ...any) *Deferred
	State() State
	Getters() GetterReader
}

// ContainerFactory constructs a live container from a compiled root Config.
type ContainerFactory func(cfg *Config) (Container, error)

// Config is the compiled configuration of one module and its children.
type Config struct {
	Name      string
	State     State
	Getters   map[string]Getter
	Mutations map[string]Mutation
	Actions   map[string]Action
	Modules   map[string]*Config
}

// CompileOptions controls a single Builder.Compile call.
type CompileOptions struct {
	// Modules are already compiled child configurations, keyed by the name
	// their state is nested under.
	Modules map[string]*Config
	// AsRoot builds the live container from the result and binds it.
	AsRoot bool
}

// MemberKind identifies the kind of a registered member.
type MemberKind string

const (
	KindGetter   MemberKind = "getter"
	KindMutation MemberKind = "mutation"
	KindAction   MemberKind = "action"
)

// Option configures a Builder.
type Option func(*builderConfig)

type builderConfig struct {
	evaluator        Evaluator
	programCache     ProgramCache
	functions        *FunctionRegistry
	functionErrs     []error
	evaluatorLogger  EvaluatorLogger
	compileLogger    CompileLogger
	activityHooks    activity.Hooks
	containerFactory ContainerFactory
}

func applyOptions(opts []Option) builderConfig {
	cfg := builderConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
