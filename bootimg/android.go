// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/ntherning/bootimg/exec"
)

// MagicAndroid is the leading magic of the structured Android boot image
// format.
const MagicAndroid = "ANDROID!"

// AndroidTool is the external collaborator that owns the structured boot
// image's header layout.  Unpack describes an existing image into a
// descriptor, writing kernel/ramdisk/... files into outDir; Build writes a
// complete image from the descriptor's fields with the given ramdisk
// substituted in.  Size accounting and final padding stay with the
// caller.
type AndroidTool interface {
	Unpack(ctx context.Context, img, outDir string) (*Descriptor, error)
	Build(ctx context.Context, desc *Descriptor, ramdisk, out string) error
}

// mkbootimgTool drives the AOSP unpack_bootimg and mkbootimg tools.
type mkbootimgTool struct{}

// NewMkbootimgTool returns the default AndroidTool backed by the AOSP
// tools on PATH.
func NewMkbootimgTool() AndroidTool {
	return &mkbootimgTool{}
}

// descriptorFlags maps mkbootimg command line flags to descriptor fields.
// Values are kept as the strings the describing tool printed so they round
// trip untouched.
func descriptorFlags(d *Descriptor) []struct {
	flag string
	dst  *string
} {
	return []struct {
		flag string
		dst  *string
	}{
		{"--kernel", &d.Kernel},
		{"--ramdisk", &d.Ramdisk},
		{"--second", &d.Second},
		{"--dtb", &d.DTB},
		{"--recovery_dtbo", &d.RecoveryDTBO},
		{"--cmdline", &d.Cmdline},
		{"--base", &d.Base},
		{"--kernel_offset", &d.KernelOffset},
		{"--ramdisk_offset", &d.RamdiskOffset},
		{"--second_offset", &d.SecondOffset},
		{"--tags_offset", &d.TagsOffset},
		{"--dtb_offset", &d.DTBOffset},
		{"--pagesize", &d.PageSize},
		{"--os_version", &d.OSVersion},
		{"--os_patch_level", &d.OSPatchLevel},
		{"--header_version", &d.HeaderVersion},
		{"--board", &d.Board},
	}
}

// Unpack runs unpack_bootimg with the mkbootimg output format and parses
// the printed argument list into a descriptor.
func (t *mkbootimgTool) Unpack(ctx context.Context, img, outDir string) (*Descriptor, error) {
	p, err := exec.NewProcess("unpack_bootimg", []string{
		"--boot_img", img,
		"--out", outDir,
		"--format", "mkbootimg",
	})
	if err != nil {
		return nil, err
	}

	out, err := p.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing boot image: %w", err)
	}

	args, err := shlex.Split(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("parsing unpack_bootimg output: %w", err)
	}

	desc := parseDescriptorArgs(args)
	desc.ImageDir = outDir
	return desc, nil
}

// parseDescriptorArgs turns the argument list printed by unpack_bootimg
// into a descriptor.
func parseDescriptorArgs(args []string) *Descriptor {
	desc := &Descriptor{
		BootMagic: MagicAndroid,
	}
	flags := descriptorFlags(desc)

args:
	for i := 0; i < len(args); i++ {
		for _, f := range flags {
			if args[i] == f.flag && i+1 < len(args) {
				*f.dst = args[i+1]
				i++
				continue args
			}
		}
		// Unknown flags ride along untouched so new header fields survive a
		// round trip.
		desc.ExtraArgs = append(desc.ExtraArgs, args[i])
	}
	return desc
}

// Build runs mkbootimg with the descriptor's fields, substituting the
// supplied ramdisk path for the one recorded at unpack time.
func (t *mkbootimgTool) Build(ctx context.Context, desc *Descriptor, ramdisk, out string) error {
	p, err := exec.NewProcess("mkbootimg", buildDescriptorArgs(desc, ramdisk, out))
	if err != nil {
		return err
	}
	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("building boot image: %w", err)
	}
	return nil
}

// buildDescriptorArgs reconstructs the mkbootimg argument list from the
// descriptor, substituting the supplied ramdisk path.
func buildDescriptorArgs(desc *Descriptor, ramdisk, out string) []string {
	d := *desc
	d.Ramdisk = ramdisk

	var args []string
	for _, f := range descriptorFlags(&d) {
		if *f.dst != "" {
			args = append(args, f.flag, *f.dst)
		}
	}
	args = append(args, d.ExtraArgs...)
	return append(args, "--output", out)
}
