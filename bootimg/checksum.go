// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bootimg

import (
	"hash"
	"io"
	"os"
)

// checksumPoly is the generator polynomial of the boot image payload
// checksum.  This is not the IEEE CRC-32 polynomial and the computation is
// MSB-first without bit reflection, so a library CRC-32 cannot substitute
// for it.
const checksumPoly = 0x04C10DB7

// digest implements the running 32-bit payload checksum.
type digest struct {
	sum uint32
}

// NewChecksum returns a hash.Hash32 computing the boot image payload
// checksum over the bytes written to it.  The initial accumulator is 0.
func NewChecksum() hash.Hash32 {
	return &digest{}
}

func (d *digest) Write(p []byte) (int, error) {
	crc := d.sum
	for _, b := range p {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ checksumPoly
			} else {
				crc <<= 1
			}
		}
	}
	d.sum = crc
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return d.sum }

func (d *digest) Sum(in []byte) []byte {
	s := d.sum
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (d *digest) Reset()         { d.sum = 0 }
func (d *digest) Size() int      { return 4 }
func (d *digest) BlockSize() int { return 1 }

// checksumFile computes the payload checksum of an entire file.
func checksumFile(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := NewChecksum()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
