// Package obs provides the structured logging wrapper shared by the
// inference engine and the CLI. It wraps go.uber.org/zap, the logging
// library used across the retrieved example pack's richest stack
// (theRebelliousNerd-codenerd), with the four-level error taxonomy of
// spec.md §7: a programmer error is always a bug and logs at Error with a
// stack-worthy message, a wrapper error is expected operational noise and
// logs at Warn, a parse error causes its clause to be skipped and logs at
// Warn, and a completion error (the engine could not determine whether a
// goal is complete) logs at Error but does not abort the caller.
package obs

import (
	"go.uber.org/zap"
)

// Logger wraps a *zap.SugaredLogger with the engine's error taxonomy.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a production-configured Logger (JSON output, info level).
func New() *Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

// NewDevelopment builds a human-readable console Logger, used by the CLI.
func NewDevelopment() *Logger {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger { return &Logger{z: zap.NewNop().Sugar()} }

func (l *Logger) Sync() { _ = l.z.Sync() }

// ProgrammerError logs an invariant violation: something the code itself
// should never have allowed to happen.
func (l *Logger) ProgrammerError(msg string, kv ...interface{}) {
	l.z.Errorw("programmer error: "+msg, kv...)
}

// WrapperError logs an expected failure from an external tool wrapper.
func (l *Logger) WrapperError(msg string, kv ...interface{}) {
	l.z.Warnw("wrapper error: "+msg, kv...)
}

// ParseError logs a clause that failed to parse and was skipped.
func (l *Logger) ParseError(msg string, kv ...interface{}) {
	l.z.Warnw("parse error: "+msg, kv...)
}

// CompletionError logs a failure to determine a goal's completion status.
func (l *Logger) CompletionError(msg string, kv ...interface{}) {
	l.z.Errorw("completion error: "+msg, kv...)
}

func (l *Logger) Info(msg string, kv ...interface{})  { l.z.Infow(msg, kv...) }
func (l *Logger) Debug(msg string, kv ...interface{}) { l.z.Debugw(msg, kv...) }
