// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/ntherning/bootimg/cpio"
	"github.com/ntherning/bootimg/log"
)

// ExtractedDir is the directory under the work directory holding the
// extracted ramdisk tree.
const ExtractedDir = "ramdisk.extracted"

// Unpack splits the boot image at img into its parts under outDir,
// extracts the ramdisk tree into outDir/ramdisk.extracted, and persists
// the resulting descriptor as info.json.  The container kind is chosen by
// the image's leading magic.
func Unpack(ctx context.Context, img, outDir string, opts ...Option) (*Descriptor, error) {
	o := newOptions(opts...)

	fi, err := os.Stat(img)
	if err != nil {
		return nil, err
	}
	magic, err := readMagic(img)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	var desc *Descriptor
	switch {
	case string(magic[:len(MagicAndroid)]) == MagicAndroid:
		desc, err = o.android.Unpack(ctx, img, outDir)
	case string(magic[:len(MagicKRNL)]) == MagicKRNL:
		desc, err = unpackKRNL(img, outDir)
	default:
		err = fmt.Errorf("%w: magic %q", ErrUnsupportedContainer, magic[:len(MagicAndroid)])
	}
	if err != nil {
		return nil, err
	}
	desc.ImageDir = outDir
	desc.ImageSize = fi.Size()

	log.G(ctx).
		WithField("format", desc.BootMagic).
		WithField("size", humanize.IBytes(uint64(desc.ImageSize))).
		Infof("unpacking %s", img)

	if err := unpackRamdisk(ctx, desc, o); err != nil {
		return nil, err
	}
	if err := desc.Save(outDir); err != nil {
		return nil, err
	}
	return desc, nil
}

func readMagic(img string) ([]byte, error) {
	f, err := os.Open(img)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, len(MagicAndroid))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}
	return magic, nil
}

// unpackRamdisk extracts the ramdisk archive into the work directory and
// captures every member's live attributes in the descriptor.
func unpackRamdisk(ctx context.Context, desc *Descriptor, o *options) error {
	ramdisk := filepath.Join(desc.ImageDir, "ramdisk")
	extracted := filepath.Join(desc.ImageDir, ExtractedDir)

	f, err := cpio.Open(ramdisk)
	if err != nil {
		return err
	}
	defer f.Close()
	f.ErrorLevel = o.errorLevel

	desc.RamdiskCompression = f.Compression().String()
	log.G(ctx).
		WithField("compression", desc.RamdiskCompression).
		Debugf("extracting ramdisk to %s", extracted)

	if err := f.ExtractAll(ctx, extracted); err != nil {
		return fmt.Errorf("extracting ramdisk: %w", err)
	}

	members, err := f.Members()
	if err != nil {
		return err
	}
	desc.RamdiskFiles = make(map[string]FileAttr, len(members))
	for _, hdr := range members {
		desc.RamdiskFiles[hdr.Name] = FileAttr{
			UID:   hdr.UID,
			GID:   hdr.GID,
			Mode:  strconv.FormatUint(uint64(hdr.Mode.Perm()), 8),
			Mtime: hdr.ModTime,
		}
	}
	return nil
}
