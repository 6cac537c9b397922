//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package logging provides the logger facade used by the AuthDecode
// roles. The default implementation is backed by zap.
//
// Protocol code never logs plaintext, encodings, or salts. Such values
// are replaced with the Redacted field:
//
//	logger.Debug(ctx, "committed", "entries", n, logging.Redacted("plaintext"))
package logging

import (
	"context"

	"go.uber.org/zap"
)

const redactedPlaceholder = "[redacted]"

// Logger defines the logging functions of the protocol roles. The
// args are alternating key and value pairs or zap fields.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by the zap logger. Passing nil creates a
// no-op logger.
func New(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{
		sugar: logger.Sugar(),
	}
}

// Nop returns a logger that discards all messages.
func Nop() Logger {
	return New(nil)
}

// Development returns a human readable logger writing to the standard
// error. Debug messages are logged if verbose is set.
func Development(verbose bool) (Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(logger), nil
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{
		sugar: l.sugar.With(args...),
	}
}

// Redacted marks a field whose value was intentionally left out of the
// log.
func Redacted(key string) zap.Field {
	return zap.String(key, redactedPlaceholder)
}

// Placeholder returns the string that replaces redacted values.
func Placeholder() string {
	return redactedPlaceholder
}
