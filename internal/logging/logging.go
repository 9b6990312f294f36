// Package logging builds the zap logger shared by the CLI and the on-chain readers.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to w at the given level (debug, info, warn, error).
// An empty level means warn so that normal CLI output stays clean.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if strings.TrimSpace(level) != "" {
		if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "stacktrace"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Nop is the logger used when a caller does not supply one.
func Nop() *zap.Logger { return zap.NewNop() }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
