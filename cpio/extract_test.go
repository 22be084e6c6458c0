// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ntherning/bootimg/cpio"
)

func TestExtractAll(t *testing.T) {
	raw := buildArchive(t, []entry{
		{hdr: cpio.Header{Name: "etc", Mode: cpio.TypeDir | 0o700, Inode: 1, Links: 2, ModTime: 1600000000}},
		{hdr: cpio.Header{Name: "etc/motd", Mode: cpio.TypeReg | 0o640, Inode: 2, Links: 1, ModTime: 1600000000}, data: "welcome\n"},
		{hdr: cpio.Header{Name: "bin/busybox", Mode: cpio.TypeReg | 0o755, Inode: 3, Links: 2}, data: "#!busybox"},
		{hdr: cpio.Header{Name: "bin/sh", Mode: cpio.TypeReg | 0o755, Inode: 3, Links: 2}, data: "#!busybox"},
		{hdr: cpio.Header{Name: "linuxrc", Mode: cpio.TypeSymlink | 0o777, Inode: 4, Links: 1, Linkname: "bin/sh"}},
	})

	f, err := cpio.NewReadFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatal("NewReadFile:", err)
	}
	defer f.Close()

	dir := t.TempDir()
	if err := f.ExtractAll(context.Background(), dir); err != nil {
		t.Fatal("ExtractAll:", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "etc", "motd"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "welcome\n" {
		t.Errorf("etc/motd = %q, want %q", data, "welcome\n")
	}

	fi, err := os.Stat(filepath.Join(dir, "etc", "motd"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o640 {
		t.Errorf("etc/motd mode = %o, want 640", fi.Mode().Perm())
	}
	if fi.ModTime().Unix() != 1600000000 {
		t.Errorf("etc/motd mtime = %d, want 1600000000", fi.ModTime().Unix())
	}

	// Directory metadata is applied after the tree is complete, so a
	// restrictive directory mode cannot block its own children.
	fi, err = os.Stat(filepath.Join(dir, "etc"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o700 {
		t.Errorf("etc mode = %o, want 700", fi.Mode().Perm())
	}

	// Hardlink groups come back as filesystem hardlinks.
	first, err := os.Stat(filepath.Join(dir, "bin", "busybox"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := os.Stat(filepath.Join(dir, "bin", "sh"))
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(first, second) {
		t.Error("bin/busybox and bin/sh are not the same file")
	}
	data, err = os.ReadFile(filepath.Join(dir, "bin", "sh"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#!busybox" {
		t.Errorf("bin/sh = %q, want %q", data, "#!busybox")
	}

	target, err := os.Readlink(filepath.Join(dir, "linuxrc"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "bin/sh" {
		t.Errorf("linuxrc -> %q, want bin/sh", target)
	}
}

func TestExtractAllSetuid(t *testing.T) {
	raw := buildArchive(t, []entry{
		{hdr: cpio.Header{Name: "bin/su", Mode: cpio.TypeReg | cpio.ModeSetuid | 0o755, Inode: 1, Links: 1}, data: "su"},
	})

	f, err := cpio.NewReadFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatal("NewReadFile:", err)
	}
	defer f.Close()

	dir := t.TempDir()
	if err := f.ExtractAll(context.Background(), dir); err != nil {
		t.Fatal("ExtractAll:", err)
	}

	fi, err := os.Stat(filepath.Join(dir, "bin", "su"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeSetuid == 0 {
		t.Error("setuid bit was dropped during extraction")
	}
}

func TestExtractAllFromStream(t *testing.T) {
	raw := buildArchive(t, []entry{
		{hdr: cpio.Header{Name: "a", Mode: cpio.TypeReg | 0o644, Inode: 1, Links: 1}, data: "aaa"},
		{hdr: cpio.Header{Name: "b", Mode: cpio.TypeReg | 0o644, Inode: 2, Links: 1}, data: "bbb"},
	})

	// Extraction during the first scan only ever moves forward, so it
	// works on sources that cannot seek.
	f, err := cpio.NewReadFile(forwardOnly{bytes.NewReader(raw)})
	if err != nil {
		t.Fatal("NewReadFile:", err)
	}
	defer f.Close()

	dir := t.TempDir()
	if err := f.ExtractAll(context.Background(), dir); err != nil {
		t.Fatal("ExtractAll:", err)
	}

	for name, want := range map[string]string{"a": "aaa", "b": "bbb"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
}
