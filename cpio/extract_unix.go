//go:build !windows

// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"golang.org/x/sys/unix"
)

func makeFifo(target string) error {
	return unix.Mkfifo(target, 0o666)
}

func makeDevice(hdr *Header, target string) error {
	mode := uint32(hdr.Mode & (TypeMask | 0o7777))
	dev := unix.Mkdev(uint32(hdr.RDevMajor), uint32(hdr.RDevMinor))
	return unix.Mknod(target, mode, int(dev))
}
