// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"errors"
	"fmt"
)

var (
	// ErrRead indicates the stream is not a recognizable or complete cpio
	// archive.
	ErrRead = errors.New("unreadable cpio archive")

	// ErrStream indicates an operation that requires random access was
	// attempted on a forward-only stream, e.g. re-reading a payload from a
	// compressed source after the cursor has moved past it.
	ErrStream = errors.New("operation unsupported on non-seekable stream")

	// ErrMemberNotFound is returned when a member lookup by name finds no
	// occurrence in the archive.
	ErrMemberNotFound = errors.New("member not found in archive")
)

// ExtractError reports a failure to materialize a single member or apply
// its metadata during extraction.  Whether it aborts extraction or is only
// logged depends on the File's ErrorLevel.
type ExtractError struct {
	Name string // member the failure relates to
	Op   string // operation that failed, e.g. "chown", "mknod"
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
