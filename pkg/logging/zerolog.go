// Package logging writes store diagnostics through zerolog.
package logging

import (
	"context"

	store "github.com/goliatone/go-store"
	"github.com/goliatone/go-store/pkg/activity"
	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to the store's evaluator and compile
// loggers, and to an activity hook.
type Logger struct {
	logger zerolog.Logger
}

// New wraps logger.
func New(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "store").Logger()}
}

// Options returns builder options routing evaluator and compile events to l.
func (l *Logger) Options() []store.Option {
	return []store.Option{
		store.WithEvaluatorLogger(l),
		store.WithCompileLogger(l),
	}
}

// LogEvaluation logs failed evaluations at error level, the rest at debug.
func (l *Logger) LogEvaluation(event store.EvaluatorLogEvent) {
	entry := l.logger.Debug()
	if event.Err != nil {
		entry = l.logger.Error().Err(event.Err)
	}
	entry.
		Str("engine", event.Engine).
		Str("module", event.Module).
		Str("getter", event.Getter).
		Str("expr", event.Expr).
		Dur("duration", event.Duration).
		Msg("getter evaluated")
}

// LogCompile logs failed compiles at error level, the rest at info.
func (l *Logger) LogCompile(event store.CompileLogEvent) {
	entry := l.logger.Info()
	if event.Err != nil {
		entry = l.logger.Error().Err(event.Err)
	}
	entry.
		Str("module", event.Module).
		Int("registrations", event.Registrations).
		Int("children", event.Children).
		Bool("root", event.Root).
		Dur("duration", event.Duration).
		Msg("module compiled")
}

// Notify logs an activity event at debug level.
func (l *Logger) Notify(_ context.Context, event activity.Event) error {
	entry := l.logger.Debug().
		Str("verb", string(event.Verb)).
		Str("module", event.Module).
		Str("channel", event.Channel)
	if event.Member != "" {
		entry = entry.Str("member", event.Member)
	}
	if event.DispatchID != "" {
		entry = entry.Str("dispatch_id", event.DispatchID)
	}
	if event.Actor.ActorID != "" {
		entry = entry.Str("actor_id", event.Actor.ActorID)
	}
	if event.Err != "" {
		entry = entry.Str("error", event.Err)
	}
	entry.Msg("store activity")
	return nil
}
