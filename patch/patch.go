// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package patch applies textual diffs to an extracted ramdisk tree.  The
// diff semantics live entirely in the system patch tool; this package only
// owns the narrow contract of invoking it against a target root with a
// path-strip depth and fuzz tolerance.
package patch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ntherning/bootimg/exec"
	"github.com/ntherning/bootimg/log"
)

type options struct {
	strip int
	fuzz  int
}

// Option configures how a patch is applied.
type Option func(*options)

// WithStrip sets the number of leading path components stripped from file
// names in the patch.  The default is 1.
func WithStrip(n int) Option {
	return func(o *options) { o.strip = n }
}

// WithFuzz sets the maximum fuzz factor for inexact hunk matches.  The
// default is 2, the patch tool's own default.
func WithFuzz(n int) Option {
	return func(o *options) { o.fuzz = n }
}

// Apply applies the patch file at patchFile to the tree rooted at root.
// Any failure to apply is returned as an error; callers treat it as fatal
// for the whole pipeline.
func Apply(ctx context.Context, patchFile, root string, opts ...Option) error {
	o := options{strip: 1, fuzz: 2}
	for _, opt := range opts {
		opt(&o)
	}

	log.G(ctx).WithField("patch", patchFile).Info("applying patch")

	p, err := exec.NewProcess("patch", []string{
		"-p" + strconv.Itoa(o.strip),
		"-F", strconv.Itoa(o.fuzz),
		"-d", root,
		"-i", patchFile,
		"--batch",
		"--no-backup-if-mismatch",
	})
	if err != nil {
		return err
	}

	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("applying %s: %w", patchFile, err)
	}
	return nil
}
