// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ntherning/bootimg/compression"
	"github.com/ntherning/bootimg/cpio"
	"github.com/ntherning/bootimg/log"
)

// PatchedDir is the directory under the work directory holding a modified
// ramdisk tree, preferred over ExtractedDir when present.
const PatchedDir = "ramdisk.extracted.patched"

// Mode defaults for files added to the ramdisk without a captured or
// supplied attribute.
var (
	defaultFileAttr = FileAttr{Mode: "644"}
	defaultDirAttr  = FileAttr{Mode: "755"}
)

// Pack rebuilds the boot image at img from the work directory previously
// filled by Unpack.  The ramdisk tree is re-archived with the compression
// recorded in the descriptor, member attributes are restored from the
// descriptor's table with extra taking precedence, and the result is
// framed according to the descriptor's container kind and padded back to
// the original image size.
func Pack(ctx context.Context, img, workDir string, extra map[string]FileAttr, opts ...Option) error {
	o := newOptions(opts...)

	desc, err := LoadDescriptor(workDir)
	if err != nil {
		return err
	}
	if desc.BootMagic != MagicKRNL && desc.BootMagic != MagicAndroid {
		return fmt.Errorf("%w: %q", ErrUnsupportedContainer, desc.BootMagic)
	}

	attrs := make(map[string]FileAttr, len(desc.RamdiskFiles)+len(extra))
	for name, attr := range desc.RamdiskFiles {
		attrs[name] = attr
	}
	for name, attr := range extra {
		attrs[name] = attr
	}

	scheme, err := compression.Parse(desc.RamdiskCompression)
	if err != nil {
		return err
	}

	srcDir := filepath.Join(workDir, PatchedDir)
	if _, err := os.Stat(srcDir); err != nil {
		srcDir = filepath.Join(workDir, ExtractedDir)
	}

	ramdisk := filepath.Join(workDir, "ramdisk.patched")
	log.G(ctx).
		WithField("compression", desc.RamdiskCompression).
		Debugf("archiving %s", srcDir)
	if err := writeRamdisk(ctx, ramdisk, srcDir, scheme, attrs); err != nil {
		return fmt.Errorf("archiving ramdisk: %w", err)
	}

	log.G(ctx).
		WithField("format", desc.BootMagic).
		Infof("packing %s", img)

	switch desc.BootMagic {
	case MagicKRNL:
		return packKRNL(img, ramdisk, desc)
	case MagicAndroid:
		if err := o.android.Build(ctx, desc, ramdisk, img); err != nil {
			return err
		}
		return padFile(img, desc.ImageSize)
	}
	return nil
}

// writeRamdisk archives the tree rooted at srcDir.  Inodes are renumbered
// densely in walk order, hardlink groups preserved, and device numbers
// zeroed so the archive's bytes do not depend on where the tree happens to
// live on disk.
func writeRamdisk(ctx context.Context, ramdisk, srcDir string, scheme compression.Compression, attrs map[string]FileAttr) error {
	f, err := cpio.Create(ramdisk, scheme)
	if err != nil {
		return err
	}

	inodes := make(map[int64]int64)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == srcDir {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		hdr, err := cpio.FileInfoHeader(path, rel)
		if err != nil {
			return err
		}

		ino, ok := inodes[hdr.Inode]
		if !ok {
			ino = int64(len(inodes) + 1)
			inodes[hdr.Inode] = ino
		}
		hdr.Inode = ino
		hdr.DevMajor, hdr.DevMinor = 0, 0

		if err := applyAttr(hdr, attrs); err != nil {
			return err
		}
		log.G(ctx).WithField("file", hdr.Name).Trace("adding")

		if hdr.Mode.IsRegular() && hdr.Size > 0 {
			src, err := os.Open(path)
			if err != nil {
				return err
			}
			err = f.AddFile(hdr, src)
			src.Close()
			return err
		}
		return f.AddFile(hdr, nil)
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// applyAttr overlays the recorded or supplied attributes onto hdr.  The
// permission bits come from the attribute table; the live type, setuid,
// setgid and sticky bits are kept so an executable turned suid on disk
// stays suid in the archive.
func applyAttr(hdr *cpio.Header, attrs map[string]FileAttr) error {
	attr, ok := attrs[hdr.Name]
	if !ok {
		if hdr.Mode.IsDir() {
			attr = defaultDirAttr
		} else {
			attr = defaultFileAttr
		}
	}
	perm, err := strconv.ParseUint(attr.Mode, 8, 32)
	if err != nil {
		return fmt.Errorf("attribute mode for %s: %w", hdr.Name, err)
	}
	hdr.Mode = cpio.FileMode(perm) | hdr.Mode&^cpio.ModePerm
	hdr.UID = attr.UID
	hdr.GID = attr.GID
	hdr.ModTime = attr.Mtime
	return nil
}
