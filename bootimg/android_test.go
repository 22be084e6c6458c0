// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDescriptorArgs(t *testing.T) {
	desc := parseDescriptorArgs([]string{
		"--kernel", "out/kernel",
		"--ramdisk", "out/ramdisk",
		"--pagesize", "0x00000800",
		"--cmdline", "console=ttyS0 root=/dev/ram0",
		"--header_version", "2",
		"--dtb", "out/dtb",
		"--dtb_offset", "0x0000000001f00000",
	})

	assert.Equal(t, MagicAndroid, desc.BootMagic)
	assert.Equal(t, "out/kernel", desc.Kernel)
	assert.Equal(t, "out/ramdisk", desc.Ramdisk)
	assert.Equal(t, "0x00000800", desc.PageSize)
	assert.Equal(t, "console=ttyS0 root=/dev/ram0", desc.Cmdline)
	assert.Equal(t, "2", desc.HeaderVersion)
	assert.Equal(t, "out/dtb", desc.DTB)
	assert.Equal(t, "0x0000000001f00000", desc.DTBOffset)
	assert.Empty(t, desc.ExtraArgs)
}

func TestParseDescriptorArgsUnknownFlags(t *testing.T) {
	// Flags this version does not map to a named field must survive the
	// round trip verbatim.
	desc := parseDescriptorArgs([]string{
		"--kernel", "out/kernel",
		"--vendor_cmdline", "bootconfig",
		"--some_future_flag",
	})

	assert.Equal(t, "out/kernel", desc.Kernel)
	assert.Equal(t, []string{"--vendor_cmdline", "bootconfig", "--some_future_flag"}, desc.ExtraArgs)
}

func TestBuildDescriptorArgs(t *testing.T) {
	desc := &Descriptor{
		BootMagic:     MagicAndroid,
		Kernel:        "out/kernel",
		Ramdisk:       "out/ramdisk",
		PageSize:      "0x00000800",
		HeaderVersion: "2",
		ExtraArgs:     []string{"--vendor_cmdline", "bootconfig"},
	}

	args := buildDescriptorArgs(desc, "out/ramdisk.patched", "boot.img")

	assert.Equal(t, []string{
		"--kernel", "out/kernel",
		"--ramdisk", "out/ramdisk.patched",
		"--pagesize", "0x00000800",
		"--header_version", "2",
		"--vendor_cmdline", "bootconfig",
		"--output", "boot.img",
	}, args)

	// The original descriptor keeps its recorded ramdisk path.
	assert.Equal(t, "out/ramdisk", desc.Ramdisk)
}

func TestBuildDescriptorArgsRoundTrip(t *testing.T) {
	in := []string{
		"--kernel", "out/kernel",
		"--ramdisk", "out/ramdisk",
		"--second", "out/second",
		"--base", "0x10000000",
		"--kernel_offset", "0x00008000",
		"--ramdisk_offset", "0x01000000",
		"--tags_offset", "0x00000100",
		"--pagesize", "0x00000800",
		"--os_version", "11.0.0",
		"--os_patch_level", "2021-03",
		"--header_version", "0",
		"--board", "rk3399",
	}
	desc := parseDescriptorArgs(in)
	out := buildDescriptorArgs(desc, "out/ramdisk", "boot.img")
	assert.Equal(t, append(in, "--output", "boot.img"), out)
}
