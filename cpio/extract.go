// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ntherning/bootimg/log"
)

// ExtractAll materializes every member of the archive under dir.
// Directories are created in encounter order with permissive modes so that
// deeper entries can always be written; their ownership, permissions and
// timestamps are applied afterwards in reverse lexicographic name order,
// deepest first, so tightening a parent cannot block its children.
//
// Per-member failures are logged or raised depending on ErrorLevel.
// Structural stream failures always abort.
func (f *File) ExtractAll(ctx context.Context, dir string) error {
	if err := f.check(ModeRead); err != nil {
		return err
	}

	var dirs []*Header
	links := make(map[int64]string) // inode -> first extracted path

	handle := func(hdr *Header) error {
		if hdr.Mode.IsDir() {
			if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(hdr.Name)), 0o777); err != nil {
				return f.entryError(ctx, fmt.Errorf("creating directory %q: %w", hdr.Name, err), false)
			}
			dirs = append(dirs, hdr)
			return nil
		}
		if err := f.extractMember(hdr, filepath.Join(dir, filepath.FromSlash(hdr.Name)), links); err != nil {
			if errors.Is(err, ErrRead) || errors.Is(err, ErrStream) {
				return err
			}
			var xerr *ExtractError
			return f.entryError(ctx, err, errors.As(err, &xerr))
		}
		return nil
	}

	if f.scanned {
		for _, hdr := range f.members {
			if err := handle(hdr); err != nil {
				return err
			}
		}
	} else {
		for {
			hdr, err := f.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := handle(hdr); err != nil {
				return err
			}
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name > dirs[j].Name })
	for _, hdr := range dirs {
		target := filepath.Join(dir, filepath.FromSlash(hdr.Name))
		if err := applyMetadata(hdr, target); err != nil {
			if err := f.entryError(ctx, err, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// entryError applies the strictness policy to one member's failure:
// metadata failures abort only at ErrorLevel > 1, other per-entry failures
// at ErrorLevel > 0, and everything below the threshold is logged.
func (f *File) entryError(ctx context.Context, err error, metadata bool) error {
	threshold := 0
	if metadata {
		threshold = 1
	}
	if f.ErrorLevel > threshold {
		return err
	}
	log.G(ctx).Warnf("cpio: %v", err)
	return nil
}

func (f *File) extractMember(hdr *Header, target string, links map[int64]string) error {
	// Missing parents get permissive modes for the same reason extracted
	// directories do.
	if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
		return fmt.Errorf("creating parents of %q: %w", hdr.Name, err)
	}

	switch {
	case hdr.Mode.IsRegular():
		if err := f.makeFile(hdr, target, links); err != nil {
			return err
		}
	case hdr.Mode.IsSymlink():
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("creating symlink %q: %w", hdr.Name, err)
		}
	case hdr.Mode.IsFifo():
		if err := makeFifo(target); err != nil {
			return &ExtractError{Name: hdr.Name, Op: "mkfifo", Err: err}
		}
	case hdr.Mode.IsDevice():
		if err := makeDevice(hdr, target); err != nil {
			return &ExtractError{Name: hdr.Name, Op: "mknod", Err: err}
		}
	default:
		// Unknown types are stored as regular files, matching classic cpio
		// behavior.
		if err := f.makeFile(hdr, target, links); err != nil {
			return err
		}
	}

	return applyMetadata(hdr, target)
}

// makeFile writes a regular member to target.  The first member of a
// hardlink group carries the data; later members become filesystem
// hardlinks to the first extracted path, falling back to an independent
// copy where the platform cannot link.
func (f *File) makeFile(hdr *Header, target string, links map[int64]string) error {
	if hdr.Links > 1 {
		if first, ok := links[hdr.Inode]; ok {
			if err := os.Link(first, target); err == nil {
				return nil
			}
			// No hardlink support on this filesystem; fall through to an
			// independent copy of the group's data member.
		} else {
			links[hdr.Inode] = target
		}
	}

	src, err := f.payload(f.dataMember(hdr))
	if err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("creating file %q: %w", hdr.Name, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("%w: copying payload of %q: %v", ErrRead, hdr.Name, err)
	}
	return out.Close()
}

// osMode converts cpio permission bits to an os.FileMode, which keeps its
// setuid/setgid/sticky bits in high positions.
func osMode(m FileMode) os.FileMode {
	mode := os.FileMode(m & ModePerm)
	if m&ModeSetuid != 0 {
		mode |= os.ModeSetuid
	}
	if m&ModeSetgid != 0 {
		mode |= os.ModeSetgid
	}
	if m&ModeSticky != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// applyMetadata sets ownership, permission bits and the modification time
// on target.  Ownership needs root; permissions and times are skipped for
// symlinks, whose targets own them.
func applyMetadata(hdr *Header, target string) error {
	if os.Geteuid() == 0 {
		if err := os.Lchown(target, hdr.UID, hdr.GID); err != nil {
			return &ExtractError{Name: hdr.Name, Op: "chown", Err: err}
		}
	}
	if hdr.Mode.IsSymlink() {
		return nil
	}
	if err := os.Chmod(target, osMode(hdr.Mode)); err != nil {
		return &ExtractError{Name: hdr.Name, Op: "chmod", Err: err}
	}
	mtime := time.Unix(hdr.ModTime, 0)
	if err := os.Chtimes(target, mtime, mtime); err != nil {
		return &ExtractError{Name: hdr.Name, Op: "utime", Err: err}
	}
	return nil
}
