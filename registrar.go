package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Getter declares a getter stored under global and reachable from sibling
// members as local. fn must not mutate state.
func (m *Module) Getter(global, local string, fn GetterFunc) *Module {
	m.queue.Enqueue(func(cfg *Config, scope *ModuleScope) error {
		if err := m.validate(KindGetter, global, local, fn == nil); err != nil {
			return err
		}
		return registerGetter(cfg, scope, global, local, fn)
	})
	return m
}

// GetterExpr declares a getter whose body is an expression compiled by the
// builder's evaluator. The expression sees the module fields (shadowing root
// fields of the same name), the root state as `state`, the module name as
// `module`, the evaluation time as `now`, and `getter(name)` for sibling
// getters where the engine supports function values.
func (m *Module) GetterExpr(global, local, expression string) *Module {
	m.queue.Enqueue(func(cfg *Config, scope *ModuleScope) error {
		if err := m.validate(KindGetter, global, local, strings.TrimSpace(expression) == ""); err != nil {
			return err
		}
		if errs := m.builder.cfg.functionErrs; len(errs) > 0 {
			return errors.Join(errs...)
		}
		evaluator := m.builder.evaluator()
		failure := func(phase string, err error) error {
			return &EvaluationError{
				Phase:  phase,
				Engine: evaluator.Engine(),
				Module: m.name,
				Getter: global,
				Expr:   expression,
				Err:    err,
			}
		}
		program, err := evaluator.Compile(expression)
		if err != nil {
			return failure(PhaseCompile, err)
		}
		logger := m.builder.evaluatorLogger()
		fn := func(gs *GetterScope) (any, error) {
			start := time.Now()
			value, runErr := program.Run(gs.evaluation(global))
			if runErr != nil {
				runErr = failure(PhaseRun, runErr)
			}
			logger.LogEvaluation(EvaluatorLogEvent{
				Engine:   evaluator.Engine(),
				Expr:     expression,
				Module:   m.name,
				Getter:   global,
				Duration: time.Since(start),
				Err:      runErr,
			})
			if runErr != nil {
				return nil, runErr
			}
			return value, nil
		}
		return registerGetter(cfg, scope, global, local, fn)
	})
	return m
}

func registerGetter(cfg *Config, scope *ModuleScope, global, local string, fn GetterFunc) error {
	if err := scope.addGetter(local, fn); err != nil {
		return err
	}
	if _, exists := cfg.Getters[global]; exists {
		return &CollisionError{Kind: KindGetter, Name: global, First: cfg.Name, Second: cfg.Name}
	}
	cfg.Getters[global] = func(state State, _ GetterReader, rootState State, rootGetters GetterReader) (any, error) {
		return fn(scope.forGetters(state, rootState, rootGetters))
	}
	return nil
}

// Mutation declares a mutation stored under global. Sibling actions reach it
// as local, which commits through the root binding.
func (m *Module) Mutation(global, local string, fn MutationFunc) *Module {
	binding := m.builder.binding
	m.queue.Enqueue(func(cfg *Config, scope *ModuleScope) error {
		if err := m.validate(KindMutation, global, local, fn == nil); err != nil {
			return err
		}
		proxy := func(args ...any) error {
			return binding.Commit(global, args...)
		}
		if err := scope.addMutation(local, global, proxy); err != nil {
			return err
		}
		if _, exists := cfg.Mutations[global]; exists {
			return &CollisionError{Kind: KindMutation, Name: global, First: cfg.Name, Second: cfg.Name}
		}
		cfg.Mutations[global] = func(state State, args ...any) error {
			return fn(state, args...)
		}
		return nil
	})
	return m
}

// Action declares an action stored under global. Sibling actions reach it as
// local, which dispatches through the root binding.
func (m *Module) Action(global, local string, fn ActionFunc) *Module {
	binding := m.builder.binding
	m.queue.Enqueue(func(cfg *Config, scope *ModuleScope) error {
		if err := m.validate(KindAction, global, local, fn == nil); err != nil {
			return err
		}
		proxy := func(ctx context.Context, args ...any) *Deferred {
			return binding.Dispatch(ctx, global, args...)
		}
		if err := scope.addAction(local, global, proxy); err != nil {
			return err
		}
		if _, exists := cfg.Actions[global]; exists {
			return &CollisionError{Kind: KindAction, Name: global, First: cfg.Name, Second: cfg.Name}
		}
		cfg.Actions[global] = func(ctx context.Context, actx ActionContext, args ...any) *Deferred {
			if ctx == nil {
				ctx = context.Background()
			}
			result := fn(ctx, scope.forActions(actx), args...)
			if result == nil {
				return Resolved(nil)
			}
			return result
		}
		return nil
	})
	return m
}

func (m *Module) validate(kind MemberKind, global, local string, missingBody bool) error {
	reason := ""
	switch {
	case strings.TrimSpace(global) == "":
		reason = "global name must not be empty"
	case strings.TrimSpace(local) == "":
		reason = "local name must not be empty"
	case missingBody:
		reason = "body must not be nil"
	}
	if reason == "" {
		return nil
	}
	return &RegistrationError{Module: m.name, Kind: kind, Global: global, Local: local, Reason: reason}
}
