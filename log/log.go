// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

var (
	// G is an alias for FromContext.
	G = FromContext

	// L is the global logger, used when no logger has been stored in the
	// context.
	L = logrus.StandardLogger()
)

// contextKey is used to retrieve the logger from the context.
type contextKey struct{}

// WithLogger returns a new context with the provided logger.  Use in
// combination with logger.WithField(s) for great effect.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in the context, or the global logger
// if none has been set.
func FromContext(ctx context.Context) *logrus.Logger {
	l, ok := ctx.Value(contextKey{}).(*logrus.Logger)
	if !ok || l == nil {
		return L
	}

	return l
}

// Levels returns a map of log level string names to their constant
// equivalent.
func Levels() map[string]logrus.Level {
	return map[string]logrus.Level{
		"panic":   logrus.PanicLevel,
		"fatal":   logrus.FatalLevel,
		"error":   logrus.ErrorLevel,
		"warning": logrus.WarnLevel,
		"warn":    logrus.WarnLevel,
		"info":    logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
		"trace":   logrus.TraceLevel,
	}
}
