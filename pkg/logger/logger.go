package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Package-level leveled logger used by the auth service.
// - printf helpers (Debugf/Infof/...) for free-form messages
// - structured helpers (Debug/Info/...) taking snake_case event names and key/value pairs
// - Init(level, format) selects the level and JSON or text output

var (
	mu     sync.RWMutex
	level            = new(slog.LevelVar)
	format           = "text"
	out    io.Writer = os.Stdout
	logger           = newLogger(out, format)
)

func newLogger(w io.Writer, f string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(l string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal)
// and the output format ("json" or "text"; anything else keeps text).
// Call early during startup. Default level is Info.
func Init(l string, f ...string) {
	mu.Lock()
	defer mu.Unlock()
	level.Set(parseLevel(l))
	if len(f) > 0 {
		format = "text"
		if strings.EqualFold(strings.TrimSpace(f[0]), "json") {
			format = "json"
		}
	}
	logger = newLogger(out, format)
}

// SetOutput redirects log output; used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = newLogger(out, format)
}

// L returns the underlying slog logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func logf(l slog.Level, f string, v ...any) {
	lg := L()
	if !lg.Enabled(context.Background(), l) {
		return
	}
	lg.Log(context.Background(), l, fmt.Sprintf(f, v...))
}

func Debugf(f string, v ...any) { logf(slog.LevelDebug, f, v...) }
func Infof(f string, v ...any)  { logf(slog.LevelInfo, f, v...) }
func Warnf(f string, v ...any)  { logf(slog.LevelWarn, f, v...) }
func Errorf(f string, v ...any) { logf(slog.LevelError, f, v...) }

func Fatalf(f string, v ...any) {
	L().Error(fmt.Sprintf(f, v...), "fatal", true)
	os.Exit(1)
}

func Debug(msg string, kv ...any) { L().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { L().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { L().Warn(msg, kv...) }
func Error(msg string, kv ...any) { L().Error(msg, kv...) }

// LevelString returns the current level as text.
func LevelString() string {
	switch level.Level() {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	}
	return "info"
}
