//go:build windows

// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"io/fs"
	"os"
)

// statHeader fills what can be known without unix stat data.
func statHeader(fi fs.FileInfo, hdr *Header) error {
	mode := FileMode(fi.Mode().Perm())
	switch {
	case fi.Mode().IsDir():
		mode |= TypeDir
	case fi.Mode()&os.ModeSymlink != 0:
		mode |= TypeSymlink
	default:
		mode |= TypeReg
	}
	hdr.Mode = mode
	hdr.Links = 1
	return nil
}
