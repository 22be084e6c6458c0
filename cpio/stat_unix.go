//go:build !windows

// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"fmt"
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// statHeader fills the platform-specific parts of hdr from the raw stat
// data: the packed mode word, inode, link count, ownership and device
// numbers.
func statHeader(fi fs.FileInfo, hdr *Header) error {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("unsupported stat type %T for %q", fi.Sys(), hdr.Name)
	}

	hdr.Mode = FileMode(st.Mode)
	hdr.Inode = int64(st.Ino)
	hdr.Links = int(st.Nlink)
	hdr.UID = int(st.Uid)
	hdr.GID = int(st.Gid)
	hdr.DevMajor = int64(unix.Major(uint64(st.Dev)))
	hdr.DevMinor = int64(unix.Minor(uint64(st.Dev)))
	if hdr.Mode.IsDevice() {
		hdr.RDevMajor = int64(unix.Major(uint64(st.Rdev)))
		hdr.RDevMinor = int64(unix.Minor(uint64(st.Rdev)))
	}
	return nil
}
