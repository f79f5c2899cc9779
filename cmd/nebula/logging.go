package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Debug log rotation limits.
const (
	maxLogMegabytes = 1
	maxLogBackups   = 1
)

// setupLogging returns the process logger. Without debug everything is
// discarded, since the nebula owns the terminal. With debug the log goes to
// path and is rotated once it reaches maxLogMegabytes.
func setupLogging(debug bool, path string) (*log.Logger, func(), error) {
	if !debug {
		return log.New(io.Discard), func() {}, nil
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogMegabytes,
		MaxBackups: maxLogBackups,
	}
	// Open the file now so a bad path fails at startup.
	if _, err := w.Write(nil); err != nil {
		return nil, nil, fmt.Errorf("open log %s: %w", path, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "nebula",
		Level:           log.DebugLevel,
	})
	return logger, func() { _ = w.Close() }, nil
}
