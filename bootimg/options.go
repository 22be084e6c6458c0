// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"errors"
)

// ErrUnsupportedContainer is returned when an image's outer magic matches
// no supported container format.
var ErrUnsupportedContainer = errors.New("unsupported container format")

type options struct {
	android    AndroidTool
	errorLevel int
}

// Option configures the pipeline operations.
type Option func(*options)

// WithAndroidTool replaces the collaborator handling the structured
// Android boot image format.
func WithAndroidTool(t AndroidTool) Option {
	return func(o *options) { o.android = t }
}

// WithErrorLevel sets extraction strictness: at 0 per-member extraction
// failures are only logged, at 1 I/O failures abort, at 2 metadata
// failures abort as well.
func WithErrorLevel(level int) Option {
	return func(o *options) { o.errorLevel = level }
}

func newOptions(opts ...Option) *options {
	o := &options{
		android: NewMkbootimgTool(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
