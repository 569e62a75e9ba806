// Package log wraps a zap sugared logger behind a small interface.
//
// Every logger built here writes to stderr unless told otherwise: stdout is
// reserved for the MCP stdio transport and must only ever carry protocol
// messages.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is an interface that can log to different levels.
type Logger interface {
	Info(keyvals ...interface{})
	Debug(keyvals ...interface{})
	Warn(keyvals ...interface{})
	Error(keyvals ...interface{})
	Fatal(keyvals ...interface{})
	Infow(msg string, keyvals ...interface{})
	Debugw(msg string, keyvals ...interface{})
	Warnw(msg string, keyvals ...interface{})
	Errorw(msg string, keyvals ...interface{})
	Fatalw(msg string, keyvals ...interface{})
	With(args ...interface{}) Logger
	Named(s string) Logger
}

type sugared struct {
	*zap.SugaredLogger
}

func (l *sugared) With(args ...interface{}) Logger {
	return &sugared{l.SugaredLogger.With(args...)}
}

func (l *sugared) Named(s string) Logger {
	return &sugared{l.SugaredLogger.Named(s)}
}

const (
	DebugLevel = int(zapcore.DebugLevel)
	InfoLevel  = int(zapcore.InfoLevel)
	WarnLevel  = int(zapcore.WarnLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
	FatalLevel = int(zapcore.FatalLevel)
)

// DefaultLevel is the level of the default logger. Change it before the first
// call to DefaultLogger to take effect.
var DefaultLevel = InfoLevel

var defaultOnce sync.Once

// ParseLevel maps a textual level (debug, info, warn, error) to its value.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// ConfigureDefaultLogger replaces the process wide logger returned by
// DefaultLogger.
func ConfigureDefaultLogger(output zapcore.WriteSyncer, level int, jsonFormat bool) {
	defaultOnce.Do(func() {})
	zap.ReplaceGlobals(newZapLogger(output, encoder(jsonFormat), level))
}

// DefaultLogger is the default logger that only logs at the `DefaultLevel`.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		zap.ReplaceGlobals(newZapLogger(nil, encoder(false), DefaultLevel))
	})
	return &sugared{zap.S()}
}

// New returns a logger that prints statements at the given level. A nil
// output means stderr.
func New(output zapcore.WriteSyncer, level int, isJSON bool) Logger {
	return &sugared{newZapLogger(output, encoder(isJSON), level).Sugar()}
}

func newZapLogger(output zapcore.WriteSyncer, enc zapcore.Encoder, level int) *zap.Logger {
	if output == nil {
		output = zapcore.Lock(os.Stderr)
	}
	core := zapcore.NewCore(enc, output, zapcore.Level(level))
	return zap.New(core, zap.WithCaller(true))
}

func encoder(isJSON bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if isJSON {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

type ctxLoggerKey struct{}

// ToContext attaches l to ctx.
func ToContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}

// FromContextOrDefault returns the logger stored by ToContext, or the default
// logger when there is none.
func FromContextOrDefault(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
		return l
	}
	return DefaultLogger()
}
