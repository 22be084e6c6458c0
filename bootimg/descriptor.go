// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DescriptorFile is the name of the persisted descriptor inside a work
// directory.
const DescriptorFile = "info.json"

// FileAttr captures the ownership, permission and timestamp of one ramdisk
// path, as recorded at unpack time or supplied as an override at pack
// time.  The mode is the octal permission string, type bits excluded.
type FileAttr struct {
	UID   int    `json:"uid"`
	GID   int    `json:"gid"`
	Mode  string `json:"mode"`
	Mtime int64  `json:"mtime"`
}

// Descriptor is the metadata carrier bridging the unpack and pack phases.
// It is produced once by Unpack, persisted as info.json, and consumed by
// Pack; the archive codec never mutates it.
//
// The Android boot image fields are the explicit union of everything that
// container kind needs.  They are kept as the strings the describing tool
// printed, passed through untouched when repacking, and left empty for
// other container kinds.
type Descriptor struct {
	BootMagic          string              `json:"boot_magic"`
	ImageDir           string              `json:"image_dir,omitempty"`
	ImageSize          int64               `json:"image_size"`
	RamdiskCompression string              `json:"ramdisk_compression"`
	RamdiskFiles       map[string]FileAttr `json:"ramdisk_files"`

	Kernel        string `json:"kernel,omitempty"`
	Ramdisk       string `json:"ramdisk,omitempty"`
	Second        string `json:"second,omitempty"`
	DTB           string `json:"dtb,omitempty"`
	RecoveryDTBO  string `json:"recovery_dtbo,omitempty"`
	Cmdline       string `json:"cmdline,omitempty"`
	Base          string `json:"base,omitempty"`
	KernelOffset  string `json:"kernel_offset,omitempty"`
	RamdiskOffset string `json:"ramdisk_offset,omitempty"`
	SecondOffset  string `json:"second_offset,omitempty"`
	TagsOffset    string `json:"tags_offset,omitempty"`
	DTBOffset     string `json:"dtb_offset,omitempty"`
	PageSize      string `json:"page_size,omitempty"`
	OSVersion     string `json:"os_version,omitempty"`
	OSPatchLevel  string `json:"os_patch_level,omitempty"`
	HeaderVersion string `json:"header_version,omitempty"`
	Board         string `json:"board,omitempty"`

	// ExtraArgs carries describing-tool output this version does not map
	// to a named field, so unrecognized header fields still round trip.
	ExtraArgs []string `json:"extra_mkbootimg_args,omitempty"`
}

// Save persists the descriptor as info.json inside dir.
func (d *Descriptor) Save(dir string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, DescriptorFile), append(data, '\n'), 0o644)
}

// LoadDescriptor reads the descriptor persisted in dir.
func LoadDescriptor(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DescriptorFile, err)
	}
	return &d, nil
}
