package store

import "time"

// EvaluatorLogEvent describes one getter expression evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Module   string
	Getter   string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the Builder.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *builderConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}

// CompileLogEvent describes one module compile.
type CompileLogEvent struct {
	Module        string
	Registrations int
	Children      int
	Root          bool
	Duration      time.Duration
	Err           error
}

// CompileLogger records compile events.
type CompileLogger interface {
	LogCompile(CompileLogEvent)
}

// CompileLoggerFunc adapts a function to CompileLogger.
type CompileLoggerFunc func(CompileLogEvent)

// LogCompile implements CompileLogger.
func (f CompileLoggerFunc) LogCompile(event CompileLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopCompileLogger struct{}

func (noopCompileLogger) LogCompile(CompileLogEvent) {}

// WithCompileLogger attaches a compile logger to the Builder.
func WithCompileLogger(logger CompileLogger) Option {
	return func(cfg *builderConfig) {
		if logger == nil {
			cfg.compileLogger = noopCompileLogger{}
			return
		}
		cfg.compileLogger = logger
	}
}
