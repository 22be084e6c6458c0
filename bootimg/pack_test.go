// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntherning/bootimg/compression"
	"github.com/ntherning/bootimg/cpio"
)

func TestApplyAttr(t *testing.T) {
	attrs := map[string]FileAttr{
		"etc/passwd": {UID: 1, GID: 2, Mode: "600", Mtime: 1234},
	}

	hdr := &cpio.Header{Name: "etc/passwd", Mode: cpio.TypeReg | 0o644, UID: 1000, GID: 1000, ModTime: 99}
	require.NoError(t, applyAttr(hdr, attrs))
	assert.Equal(t, cpio.TypeReg|cpio.FileMode(0o600), hdr.Mode)
	assert.Equal(t, 1, hdr.UID)
	assert.Equal(t, 2, hdr.GID)
	assert.EqualValues(t, 1234, hdr.ModTime)
}

func TestApplyAttrDefaults(t *testing.T) {
	// Unlisted files fall back to 0644 root:root mtime 0; directories to
	// 0755.
	file := &cpio.Header{Name: "x", Mode: cpio.TypeReg | 0o777, UID: 5, GID: 5, ModTime: 5}
	require.NoError(t, applyAttr(file, nil))
	assert.Equal(t, cpio.TypeReg|cpio.FileMode(0o644), file.Mode)
	assert.Equal(t, 0, file.UID)
	assert.Equal(t, 0, file.GID)
	assert.EqualValues(t, 0, file.ModTime)

	dir := &cpio.Header{Name: "d", Mode: cpio.TypeDir | 0o700}
	require.NoError(t, applyAttr(dir, nil))
	assert.Equal(t, cpio.TypeDir|cpio.FileMode(0o755), dir.Mode)
}

func TestApplyAttrKeepsLiveTypeBits(t *testing.T) {
	// The attribute table only carries permission bits.  Type, setuid,
	// setgid and sticky bits stay as found on disk, so a binary made suid
	// inside the extracted tree keeps that bit even when the recorded mode
	// says otherwise.
	hdr := &cpio.Header{Name: "bin/su", Mode: cpio.TypeReg | cpio.ModeSetuid | 0o755}
	require.NoError(t, applyAttr(hdr, map[string]FileAttr{
		"bin/su": {Mode: "644"},
	}))
	assert.Equal(t, cpio.TypeReg|cpio.ModeSetuid|cpio.FileMode(0o644), hdr.Mode)

	link := &cpio.Header{Name: "lib/l", Mode: cpio.TypeSymlink | 0o777}
	require.NoError(t, applyAttr(link, nil))
	assert.True(t, link.Mode.IsSymlink())
}

func TestApplyAttrBadMode(t *testing.T) {
	hdr := &cpio.Header{Name: "x", Mode: cpio.TypeReg | 0o644}
	err := applyAttr(hdr, map[string]FileAttr{"x": {Mode: "rwxr-x"}})
	assert.Error(t, err)
}

func TestWriteRamdiskDeterministic(t *testing.T) {
	// Two trees with identical content must produce identical archives no
	// matter what inode or device numbers the filesystem assigned them.
	makeTree := func(t *testing.T) string {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "etc"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "etc", "motd"), []byte("hi\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "init"), []byte("#!/bin/sh\n"), 0o755))
		require.NoError(t, os.Symlink("init", filepath.Join(dir, "linuxrc")))
		return dir
	}

	ctx := context.Background()
	attrs := map[string]FileAttr{
		"init": {Mode: "755"},
	}

	out1 := filepath.Join(t.TempDir(), "rd1")
	require.NoError(t, writeRamdisk(ctx, out1, makeTree(t), compression.Uncompressed, attrs))
	out2 := filepath.Join(t.TempDir(), "rd2")
	require.NoError(t, writeRamdisk(ctx, out2, makeTree(t), compression.Uncompressed, attrs))

	a, err := os.ReadFile(out1)
	require.NoError(t, err)
	b, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteRamdiskHardlinks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "busybox"), []byte("#!busybox"), 0o755))
	require.NoError(t, os.Link(filepath.Join(dir, "busybox"), filepath.Join(dir, "sh")))

	out := filepath.Join(t.TempDir(), "rd")
	require.NoError(t, writeRamdisk(context.Background(), out, dir, compression.Uncompressed, nil))

	f, err := cpio.Open(out)
	require.NoError(t, err)
	defer f.Close()

	members, err := f.Members()
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Both members share one renumbered inode and only the first carries
	// the payload.
	assert.Equal(t, members[0].Inode, members[1].Inode)
	assert.EqualValues(t, 0, members[1].Size)

	data, err := f.ReadMember(cpio.ByName(members[1].Name))
	require.NoError(t, err)
	assert.Equal(t, "#!busybox", string(data))
}

func TestPackRejectsUnknownMagic(t *testing.T) {
	dir := t.TempDir()
	desc := &Descriptor{BootMagic: "WEIRD!", RamdiskCompression: "none"}
	require.NoError(t, desc.Save(dir))

	err := Pack(context.Background(), filepath.Join(dir, "boot.img"), dir, nil)
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}

func TestPackPrefersPatchedTree(t *testing.T) {
	work := t.TempDir()

	extracted := filepath.Join(work, ExtractedDir)
	require.NoError(t, os.MkdirAll(extracted, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(extracted, "init"), []byte("original"), 0o755))

	patched := filepath.Join(work, PatchedDir)
	require.NoError(t, os.MkdirAll(patched, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(patched, "init"), []byte("patched"), 0o755))

	desc := &Descriptor{
		BootMagic:          MagicKRNL,
		ImageSize:          8192,
		RamdiskCompression: "none",
		RamdiskFiles:       map[string]FileAttr{"init": {Mode: "755"}},
	}
	require.NoError(t, desc.Save(work))

	img := filepath.Join(work, "boot.img")
	require.NoError(t, Pack(context.Background(), img, work, nil))

	f, err := cpio.Open(filepath.Join(work, "ramdisk.patched"))
	require.NoError(t, err)
	defer f.Close()

	data, err := f.ReadMember(cpio.ByName("init"))
	require.NoError(t, err)
	assert.Equal(t, "patched", string(data))
}
