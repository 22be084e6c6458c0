// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ntherning/bootimg/log"
	"github.com/ntherning/bootimg/patch"
)

// ExtraAttrFile is the optional file inside a modifications directory
// supplying attribute overrides for files the modifications add or
// change.
const ExtraAttrFile = "extra_ramdisk_files.json"

// Repack unpacks bootImg into workDir, applies the modifications found in
// modsDir to the extracted ramdisk tree, and packs the result as outImg.
// Modifications are plain text patches (*.patch, applied in lexical
// order) and a files/ tree overlaid onto the ramdisk.  An empty workDir
// selects a fresh temporary directory, which is kept afterwards for
// inspection.
func Repack(ctx context.Context, bootImg, outImg, modsDir, workDir string, opts ...Option) error {
	if workDir == "" {
		dir, err := os.MkdirTemp("", "bootimg-")
		if err != nil {
			return err
		}
		workDir = dir
		log.G(ctx).Infof("using work directory %s", workDir)
	}

	if _, err := Unpack(ctx, bootImg, workDir, opts...); err != nil {
		return err
	}

	extracted := filepath.Join(workDir, ExtractedDir)
	if err := applyPatches(ctx, modsDir, extracted); err != nil {
		return err
	}
	if err := overlayFiles(ctx, filepath.Join(modsDir, "files"), extracted); err != nil {
		return err
	}

	extra, err := loadExtraAttrs(modsDir)
	if err != nil {
		return err
	}
	return Pack(ctx, outImg, workDir, extra, opts...)
}

// applyPatches applies every *.patch in modsDir to the extracted tree, in
// lexical order.  A patch that does not apply aborts the repack.
func applyPatches(ctx context.Context, modsDir, root string) error {
	patches, err := filepath.Glob(filepath.Join(modsDir, "*.patch"))
	if err != nil {
		return err
	}
	sort.Strings(patches)

	for _, p := range patches {
		log.G(ctx).Infof("applying %s", filepath.Base(p))
		if err := patch.Apply(ctx, p, root); err != nil {
			return fmt.Errorf("applying %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// overlayFiles copies the modification tree at src onto the extracted
// ramdisk tree, preserving permission bits and recreating symlinks rather
// than following them.  A missing src is not an error.
func overlayFiles(ctx context.Context, src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		log.G(ctx).Debugf("adding %s", filepath.ToSlash(rel))

		if d.Type()&fs.ModeSymlink != 0 {
			linkname, err := os.Readlink(path)
			if err != nil {
				return err
			}
			os.Remove(target)
			return os.Symlink(linkname, target)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, fi.Mode().Perm())
}

// loadExtraAttrs reads the optional attribute override file from modsDir.
// A missing file simply means no overrides.
func loadExtraAttrs(modsDir string) (map[string]FileAttr, error) {
	extra, err := LoadFileAttrs(filepath.Join(modsDir, ExtraAttrFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return extra, err
}

// LoadFileAttrs reads a JSON file mapping ramdisk paths to attribute
// overrides.
func LoadFileAttrs(path string) (map[string]FileAttr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var attrs map[string]FileAttr
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return attrs, nil
}
