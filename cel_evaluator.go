package store

import (
	"fmt"
	"reflect"
	"sync"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxCallArgs bounds the call(name, ...) overloads; CEL has no variadic
// functions.
const celMaxCallArgs = 3

type celEvaluator struct {
	cfg engineConfig

	mu       sync.Mutex
	programs map[string]celgo.Program
}

// NewCELEvaluator returns the cel-go engine. CEL declares every variable, so
// a program is checked once per distinct set of module fields. CEL has no
// function values: `getter` is unavailable and registry functions are
// reached through call("name", ...).
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{
		cfg:      applyEngineOptions(opts),
		programs: map[string]celgo.Program{},
	}
}

func (e *celEvaluator) Engine() string {
	return "cel"
}

// Compile parses expression so syntax errors surface at module compile time.
// Type checking waits for the first run, when the field set is known.
func (e *celEvaluator) Compile(expression string) (Program, error) {
	env, err := celgo.NewEnv()
	if err != nil {
		return nil, err
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return &celRule{evaluator: e, expression: expression}, nil
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celRule) Run(ev Evaluation) (any, error) {
	fields := celFields(ev.Fields)
	program, err := r.evaluator.program(r.expression, fields)
	if err != nil {
		return nil, err
	}
	activation := map[string]any{
		"state":  ev.Root,
		"module": ev.Module,
		"now":    ev.now(),
	}
	for name, value := range fields {
		activation[name] = value
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// celFields drops function values and names bound by the evaluation itself.
func celFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if _, reserved := reservedNames[name]; reserved {
			continue
		}
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			continue
		}
		out[name] = value
	}
	return out
}

func (e *celEvaluator) program(expression string, fields map[string]any) (celgo.Program, error) {
	names := Evaluation{Fields: fields}.fieldNames()
	key := programKey(e.Engine(), expression, names)
	if program, ok := cachedProgram[celgo.Program](e.cfg.cache, key); ok {
		return program, nil
	}
	e.mu.Lock()
	program, ok := e.programs[key]
	e.mu.Unlock()
	if ok {
		return program, nil
	}

	program, err := e.check(expression, names)
	if err != nil {
		return nil, err
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(key, program)
		return program, nil
	}
	e.mu.Lock()
	e.programs[key] = program
	e.mu.Unlock()
	return program, nil
}

func (e *celEvaluator) check(expression string, names []string) (celgo.Program, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("state", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("module", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
	}
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.cfg.functions != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	checked, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(checked)
}

func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	binding := celgo.FunctionBinding(e.call)
	overloads := make([]celgo.FunctionOpt, 0, celMaxCallArgs+1)
	for arity := 0; arity <= celMaxCallArgs; arity++ {
		argTypes := []*celgo.Type{celgo.StringType}
		for i := 0; i < arity; i++ {
			argTypes = append(argTypes, celgo.DynType)
		}
		overloads = append(overloads, celgo.Overload(fmt.Sprintf("call_string_dyn%d", arity), argTypes, celgo.DynType, binding))
	}
	return overloads
}

func (e *celEvaluator) call(values ...ref.Val) ref.Val {
	params := make([]any, 0, len(values))
	for _, value := range values {
		params = append(params, value.Value())
	}
	name, rest, err := splitCall(params)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	result, err := e.cfg.functions.Call(name, rest...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
