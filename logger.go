package main

import (
	"io"
	"log/slog"
	"os"
)

func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// fileLogger logs to the configured file, or nowhere when none is set. The
// returned close func is never nil.
func fileLogger(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg.LogFile == "" {
		return newLogger(cfg.LogLevel, cfg.LogFormat, io.Discard), func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return newLogger(cfg.LogLevel, cfg.LogFormat, f), f.Close, nil
}
