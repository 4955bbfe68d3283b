package main

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for --log-file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger builds the process logger from flags. Logs go to stderr unless a
// log file is given. The returned function closes the log file, if any.
func newLogger(flags LogFlags, stderr io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", flags.Level, err)
	}

	w := stderr
	closeFn := func() error { return nil }
	if flags.File != "" {
		lj := &lumberjack.Logger{
			Filename:   flags.File,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		w = lj
		closeFn = lj.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch flags.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
