// Package logging builds the process zap logger.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr.
//
// Level values: "debug", "info", "warn", "error" (default: "info").
// Format values: "console", "json" (default: "console"); "text" is accepted
// as an alias for console.
func New(level, format string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.ToLower(format) == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), ParseLevel(level))
	return zap.New(core, zap.AddCaller())
}

// Setup builds a logger with New and installs it as the zap global, so
// packages that use zap.L() pick it up. The returned logger should be synced
// before exit.
func Setup(level, format string) *zap.Logger {
	l := New(level, format)
	zap.ReplaceGlobals(l)
	return l
}

// ParseLevel converts a string log level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
