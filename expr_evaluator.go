package store

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEvaluator struct {
	cfg engineConfig
}

// NewExprEvaluator returns the expr-lang/expr engine, the default for
// GetterExpr. Module fields are undeclared variables resolved at run time,
// so one compiled program serves every module using the same expression.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *exprEvaluator) Engine() string {
	return "expr"
}

func (e *exprEvaluator) Compile(expression string) (Program, error) {
	key := programKey(e.Engine(), expression, nil)
	if program, ok := cachedProgram[*exprvm.Program](e.cfg.cache, key); ok {
		return exprProgram{program: program}, nil
	}
	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, err
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(key, program)
	}
	return exprProgram{program: program}, nil
}

// compileOptions declares the bindings shared by every evaluation so their
// types are checked at compile time.
func (e *exprEvaluator) compileOptions() []exprlang.Option {
	declared := Evaluation{Root: map[string]any{}}.variables()
	declared["getter"] = Evaluation{}.sibling
	options := []exprlang.Option{
		exprlang.Env(declared),
		exprlang.AllowUndefinedVariables(),
	}
	if registry := e.cfg.functions; registry != nil {
		options = append(options, exprlang.Function("call", func(params ...any) (any, error) {
			name, rest, err := splitCall(params)
			if err != nil {
				return nil, err
			}
			return registry.Call(name, rest...)
		}))
		for _, name := range registry.Names() {
			fn, _ := registry.Lookup(name)
			options = append(options, exprlang.Function(name, func(params ...any) (any, error) {
				return fn(params...)
			}))
		}
	}
	return options
}

type exprProgram struct {
	program *exprvm.Program
}

func (p exprProgram) Run(ev Evaluation) (any, error) {
	env := ev.variables()
	env["getter"] = ev.sibling
	return exprlang.Run(p.program, env)
}
