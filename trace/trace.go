/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the engine's structured-logging call site. It keeps
// jacobin's own trace.Trace/trace.Error/trace.Warning shape, but backs
// it with a zap.SugaredLogger instead of raw fmt.Fprint, the way
// other_examples' ignite index model wires a *zap.SugaredLogger through
// a runtime component.
package trace

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	sugar  *zap.SugaredLogger
	level  zap.AtomicLevel
)

// Init builds the process-wide sugared logger. verbose selects debug
// level (the level trace.Inst logs at); otherwise the logger runs at
// info level. Init is idempotent.
func Init(verbose bool) {
	once.Do(func() {
		level = zap.NewAtomicLevel()
		if verbose {
			level.SetLevel(zapcore.DebugLevel)
		} else {
			level.SetLevel(zapcore.InfoLevel)
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.Lock(os.Stderr),
			level,
		)
		sugar = zap.New(core).Sugar()
	})
}

func logger() *zap.SugaredLogger {
	if sugar == nil {
		Init(false)
	}
	return sugar
}

// SetVerbose raises or lowers the logger's level after Init has run.
func SetVerbose(verbose bool) {
	logger()
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Trace logs an informational trace message.
func Trace(msg string) { logger().Info(msg) }

// Inst logs a fine-grained, per-instruction trace message. Kept
// separate from Trace so that instruction-level tracing can be
// dropped without losing loader/GC-level tracing.
func Inst(msg string) { logger().Debug(msg) }

// Warning logs a recoverable but noteworthy condition.
func Warning(msg string) { logger().Warn(msg) }

// Error logs a class-load, resolution, or runtime error.
func Error(msg string) { logger().Error(msg) }
