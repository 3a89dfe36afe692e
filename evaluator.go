package store

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrEngineUnavailable is returned by evaluators that are not built into the
// binary, such as the JS engine without the js_eval build tag.
var ErrEngineUnavailable = errors.New("store: expression engine unavailable")

// Evaluator compiles getter expressions for one engine.
type Evaluator interface {
	// Engine names the engine in errors and logs ("expr", "cel", "js").
	Engine() string
	Compile(expression string) (Program, error)
}

// Program is a compiled getter expression.
type Program interface {
	Run(ev Evaluation) (any, error)
}

// Evaluation is what a getter expression runs against.
type Evaluation struct {
	// Module and Getter identify the getter being computed.
	Module string
	Getter string
	// Fields holds the root state fields overlaid by the module's own fields.
	Fields map[string]any
	// Root is the root state, exposed to expressions as `state`.
	Root map[string]any
	// Sibling computes a sibling getter by local name, exposed as `getter`
	// by engines that support function values.
	Sibling func(local string) (any, error)
	Now     time.Time
}

// variables returns the names every engine binds: the fields, then state,
// module and now.
func (ev Evaluation) variables() map[string]any {
	vars := make(map[string]any, len(ev.Fields)+3)
	for key, value := range ev.Fields {
		vars[key] = value
	}
	vars["state"] = ev.Root
	vars["module"] = ev.Module
	vars["now"] = ev.now()
	return vars
}

func (ev Evaluation) now() time.Time {
	if ev.Now.IsZero() {
		return time.Now()
	}
	return ev.Now
}

// sibling is the `getter` function handed to engines.
func (ev Evaluation) sibling(local string) (any, error) {
	if ev.Sibling == nil {
		return nil, ErrUnknownMember
	}
	return ev.Sibling(local)
}

// fieldNames returns the sorted field names of ev.
func (ev Evaluation) fieldNames() []string {
	names := make([]string, 0, len(ev.Fields))
	for name := range ev.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reservedNames are bound by the evaluation itself and cannot be used for
// custom functions.
var reservedNames = map[string]struct{}{
	"state":  {},
	"module": {},
	"now":    {},
	"getter": {},
	"call":   {},
}

// EngineOption configures the built-in evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// WithEngineCache shares compiled programs through cache.
func WithEngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithEngineFunctions exposes a copy of registry to expressions.
func WithEngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		cfg.functions = registry.Clone()
	}
}

func applyEngineOptions(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// programKey scopes cache entries by engine and, for engines whose programs
// depend on the declared fields, by the sorted field set.
func programKey(engine, expression string, fields []string) string {
	var b strings.Builder
	b.WriteString(engine)
	b.WriteByte(0)
	b.WriteString(strings.Join(fields, ","))
	b.WriteByte(0)
	b.WriteString(expression)
	return b.String()
}

type unavailableEvaluator struct {
	engine string
}

func (e unavailableEvaluator) Engine() string {
	return e.engine
}

func (e unavailableEvaluator) Compile(string) (Program, error) {
	return nil, ErrEngineUnavailable
}
