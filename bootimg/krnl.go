// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MagicKRNL is the leading magic of the simple length-framed container:
// the 4-byte magic, a little-endian 32-bit payload size, the ramdisk
// payload, and a little-endian 32-bit payload checksum.
const MagicKRNL = "KRNL"

// unpackKRNL extracts the ramdisk payload of a KRNL container into
// outDir/ramdisk.  Only the magic is validated; the stored checksum is
// deliberately not re-verified, so images produced by imperfect packers
// still unpack.
func unpackKRNL(img, outDir string) (*Descriptor, error) {
	f, err := os.Open(img)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header [8]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}
	if string(header[:4]) != MagicKRNL {
		return nil, fmt.Errorf("%w: magic %q", ErrUnsupportedContainer, header[:4])
	}
	size := binary.LittleEndian.Uint32(header[4:8])

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	out, err := os.Create(filepath.Join(outDir, "ramdisk"))
	if err != nil {
		return nil, err
	}
	if _, err := io.CopyN(out, f, int64(size)); err != nil {
		out.Close()
		return nil, fmt.Errorf("extracting ramdisk: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	return &Descriptor{
		BootMagic: MagicKRNL,
		ImageDir:  outDir,
	}, nil
}

// packKRNL frames the ramdisk file into a KRNL container at img,
// recomputing the checksum over the possibly modified payload, then pads
// the image to its original size.
func packKRNL(img, ramdisk string, desc *Descriptor) error {
	rd, err := os.Open(ramdisk)
	if err != nil {
		return err
	}
	defer rd.Close()

	fi, err := rd.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(img)
	if err != nil {
		return err
	}

	var header [8]byte
	copy(header[:4], MagicKRNL)
	binary.LittleEndian.PutUint32(header[4:8], uint32(fi.Size()))
	if _, err := out.Write(header[:]); err != nil {
		out.Close()
		return err
	}

	h := NewChecksum()
	if _, err := io.Copy(io.MultiWriter(out, h), rd); err != nil {
		out.Close()
		return err
	}

	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], h.Sum32())
	if _, err := out.Write(crc[:]); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return padFile(img, desc.ImageSize)
}
