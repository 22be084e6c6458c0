// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackKRNLLayout(t *testing.T) {
	dir := t.TempDir()
	ramdisk := filepath.Join(dir, "ramdisk")
	payload := []byte("ramdisk payload bytes")
	require.NoError(t, os.WriteFile(ramdisk, payload, 0o644))

	img := filepath.Join(dir, "boot.img")
	desc := &Descriptor{BootMagic: MagicKRNL, ImageSize: 4096}
	require.NoError(t, packKRNL(img, ramdisk, desc))

	data, err := os.ReadFile(img)
	require.NoError(t, err)

	// Magic, little-endian payload size, payload, little-endian checksum,
	// NUL padding up to the original image size.
	require.True(t, len(data) >= 8+len(payload)+4)
	assert.Equal(t, []byte(MagicKRNL), data[:4])
	assert.EqualValues(t, len(payload), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, payload, data[8:8+len(payload)])

	h := NewChecksum()
	h.Write(payload)
	crcOff := 8 + len(payload)
	assert.Equal(t, h.Sum32(), binary.LittleEndian.Uint32(data[crcOff:crcOff+4]))

	assert.Len(t, data, 4096)
	assert.Equal(t, bytes.Repeat([]byte{0}, 4096-crcOff-4), data[crcOff+4:])
}

func TestKRNLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ramdisk := filepath.Join(dir, "ramdisk")
	payload := bytes.Repeat([]byte("initrd"), 1000)
	require.NoError(t, os.WriteFile(ramdisk, payload, 0o644))

	img := filepath.Join(dir, "boot.img")
	desc := &Descriptor{BootMagic: MagicKRNL, ImageSize: 16384}
	require.NoError(t, packKRNL(img, ramdisk, desc))

	outDir := filepath.Join(dir, "out")
	got, err := unpackKRNL(img, outDir)
	require.NoError(t, err)
	assert.Equal(t, MagicKRNL, got.BootMagic)
	assert.Equal(t, outDir, got.ImageDir)

	extracted, err := os.ReadFile(filepath.Join(outDir, "ramdisk"))
	require.NoError(t, err)
	assert.Equal(t, payload, extracted)
}

func TestUnpackKRNLBadMagic(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "boot.img")
	require.NoError(t, os.WriteFile(img, []byte("XXXXYYYYZZZZ"), 0o644))

	_, err := unpackKRNL(img, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrUnsupportedContainer), "got %v", err)
}

func TestUnpackKRNLTruncated(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "boot.img")
	require.NoError(t, os.WriteFile(img, []byte("KR"), 0o644))

	_, err := unpackKRNL(img, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrUnsupportedContainer), "got %v", err)
}
