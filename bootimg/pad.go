// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"os"
)

// padChunk bounds the size of each padding write.
const padChunk = 8192

// padFile appends NUL bytes to the file at path until it is size bytes
// long.  A file already at or beyond size is left untouched; padding never
// truncates.
func padFile(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	padding := make([]byte, padChunk)
	for pos := fi.Size(); pos < size; {
		n := size - pos
		if n > padChunk {
			n = padChunk
		}
		written, err := f.Write(padding[:n])
		if err != nil {
			return err
		}
		pos += int64(written)
	}
	return nil
}
