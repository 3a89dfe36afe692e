package store

import "fmt"

// Phases of a getter expression.
const (
	PhaseCompile = "compile"
	PhaseRun     = "run"
)

// EvaluationError reports a getter expression that failed to compile or run.
type EvaluationError struct {
	Phase  string
	Engine string
	Module string
	Getter string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: %s %s failed for getter %q of module %q (%q): %v",
		e.Engine, e.Phase, e.Getter, e.Module, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
