// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfoHeader builds a Header from the filesystem entry at path, to be
// stored under arcname.  Symlinks are not followed; their target is
// captured in Linkname.  Backslashes are normalized and any leading slash
// is stripped so names are POSIX relative paths.
func FileInfoHeader(path, arcname string) (*Header, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	hdr := &Header{
		Name: cleanName(arcname),
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}
		hdr.Linkname = target
	}
	if fi.Mode().IsRegular() {
		hdr.Size = fi.Size()
	}
	hdr.ModTime = fi.ModTime().Unix()

	if err := statHeader(fi, hdr); err != nil {
		return nil, err
	}
	return hdr, nil
}

func cleanName(name string) string {
	name = filepath.ToSlash(name)
	for strings.HasPrefix(name, "/") {
		name = name[1:]
	}
	return name
}

// AddFile writes hdr and, when r is non-nil, hdr.Size payload bytes read
// from r, padding the stream to the next 4-byte boundary.  When hardlink
// tracking is enabled and hdr's inode has been added before, the entry is
// recorded as an alias: its size is forced to 0 and no payload is written.
// The caller's Header is not modified.
func (f *File) AddFile(hdr *Header, r io.Reader) error {
	if err := f.check(ModeWrite, ModeAppend); err != nil {
		return err
	}

	h := *hdr
	if h.Links > 1 && f.Hardlinks {
		if _, ok := f.inodes[h.Inode]; ok {
			// This inode has already been added; only the first occurrence
			// carries the payload.
			h.Size = 0
			f.inodes[h.Inode] = append(f.inodes[h.Inode], h.Name)
		} else {
			f.inodes[h.Inode] = []string{h.Name}
		}
	}

	buf := h.encode()
	if _, err := f.w.Write(buf); err != nil {
		return fmt.Errorf("writing header for %q: %w", h.Name, err)
	}
	h.offset = f.offset
	f.offset += int64(len(buf))
	h.payloadOffset = f.offset

	if r != nil && h.Size > 0 {
		n, err := io.CopyN(f.w, r, h.Size)
		f.offset += n
		if err != nil {
			return fmt.Errorf("writing payload for %q: %w", h.Name, err)
		}

		// The offset is the alignment anchor for every subsequent entry.
		if pad := word(f.offset) - f.offset; pad > 0 {
			if _, err := f.w.Write(make([]byte, pad)); err != nil {
				return fmt.Errorf("padding payload for %q: %w", h.Name, err)
			}
			f.offset += pad
		}
	}

	f.members = append(f.members, &h)
	return nil
}
