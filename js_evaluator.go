//go:build js_eval

package store

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cfg engineConfig
}

// NewJSEvaluator returns the goja engine. Each evaluation runs in a fresh
// runtime so getter expressions cannot leak globals between calls.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *jsEvaluator) Engine() string {
	return "js"
}

func (e *jsEvaluator) Compile(expression string) (Program, error) {
	key := programKey(e.Engine(), expression, nil)
	if program, ok := cachedProgram[*goja.Program](e.cfg.cache, key); ok {
		return jsProgram{program: program, functions: e.cfg.functions}, nil
	}
	program, err := goja.Compile("getter", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, err
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(key, program)
	}
	return jsProgram{program: program, functions: e.cfg.functions}, nil
}

type jsProgram struct {
	program   *goja.Program
	functions *FunctionRegistry
}

func (p jsProgram) Run(ev Evaluation) (any, error) {
	vm := goja.New()
	for name, value := range ev.variables() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if err := vm.Set("getter", ev.sibling); err != nil {
		return nil, err
	}
	if p.functions != nil {
		if err := vm.Set("call", func(name string, params ...any) (any, error) {
			return p.functions.Call(name, params...)
		}); err != nil {
			return nil, err
		}
		for _, name := range p.functions.Names() {
			fn, _ := p.functions.Lookup(name)
			if err := vm.Set(name, func(params ...any) (any, error) { return fn(params...) }); err != nil {
				return nil, err
			}
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
