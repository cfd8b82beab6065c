// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package commons holds small cross-cutting helpers shared by every
// component of the voice runtime — today, just the structured logger.
package commons

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the structured logging contract every component depends on.
// Keeping it as an interface (rather than a concrete *zap.SugaredLogger)
// lets tests substitute a no-op or observed logger without dragging in zap.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	// The "w" variants take alternating key/value pairs, matching zap's
	// SugaredLogger convention for structured fields.
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})

	// With returns a child logger with the given key/value pairs attached
	// to every subsequent log line — used to scope a logger to one call.
	With(kv ...interface{}) Logger
}

type sugaredLogger struct {
	*zap.SugaredLogger
}

func (s *sugaredLogger) With(kv ...interface{}) Logger {
	return &sugaredLogger{s.SugaredLogger.With(kv...)}
}

// NewApplicationLogger builds the process-wide logger. Production builds
// get JSON output at info level; set LOG_LEVEL=debug for verbose local runs.
func NewApplicationLogger(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	cfg.OutputPaths = []string{"stdout"}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &sugaredLogger{base.Sugar()}, nil
}

// NewTestLogger builds a logger suitable for unit tests: human-readable,
// always debug level, and safe to construct repeatedly.
func NewTestLogger() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	base, err := cfg.Build()
	if err != nil {
		// zap's development config never fails to build; this is unreachable
		// in practice but keeps NewTestLogger panic-free either way.
		base = zap.NewNop()
	}
	_ = os.Stdout
	return &sugaredLogger{base.Sugar()}
}
