// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// magicNewc is the magic of the SVR4 portable format without checksum.
	magicNewc = 0x070701

	// TrailerName is the member name that terminates an archive.
	TrailerName = "TRAILER!!!"

	// headerSize is the length of the fixed ASCII-hex header prefix.
	headerSize = 110

	// wordSize is the alignment boundary for names and payloads.
	wordSize = 4
)

// FileMode holds a member's type and permission bits packed together, using
// the usual SVR4 octal values.
type FileMode int64

const (
	TypeFifo    FileMode = 0o010000
	TypeChar    FileMode = 0o020000
	TypeDir     FileMode = 0o040000
	TypeBlock   FileMode = 0o060000
	TypeReg     FileMode = 0o100000
	TypeSymlink FileMode = 0o120000
	TypeMask    FileMode = 0o170000

	ModeSetuid FileMode = 0o4000
	ModeSetgid FileMode = 0o2000
	ModeSticky FileMode = 0o1000
	ModePerm   FileMode = 0o777
)

func (m FileMode) IsRegular() bool { return m&TypeMask == TypeReg }
func (m FileMode) IsDir() bool     { return m&TypeMask == TypeDir }
func (m FileMode) IsSymlink() bool { return m&TypeMask == TypeSymlink }
func (m FileMode) IsChar() bool    { return m&TypeMask == TypeChar }
func (m FileMode) IsBlock() bool   { return m&TypeMask == TypeBlock }
func (m FileMode) IsFifo() bool    { return m&TypeMask == TypeFifo }
func (m FileMode) IsDevice() bool  { return m.IsChar() || m.IsBlock() }

// Perm returns the permission bits only.
func (m FileMode) Perm() FileMode { return m & ModePerm }

// Header describes one member of a cpio archive.
type Header struct {
	Name      string   // POSIX relative path, forward slashes
	Inode     int64    // inode number, groups hardlinked members
	Mode      FileMode // type and permission bits
	UID       int      // owning user id
	GID       int      // owning group id
	Links     int      // number of hardlinks to this inode
	ModTime   int64    // modification time, unix seconds
	Size      int64    // payload length; 0 for entries without a data block
	DevMajor  int64
	DevMinor  int64
	RDevMajor int64
	RDevMinor int64
	Linkname  string // symlink target
	Checksum  uint32 // reserved, always 0 in the newc format

	offset        int64 // byte offset of the header in the archive
	payloadOffset int64 // byte offset of the payload in the archive
}

// Offset returns the byte offset of this member's header within the
// archive stream.
func (h *Header) Offset() int64 { return h.offset }

// PayloadOffset returns the byte offset of this member's data block within
// the archive stream.
func (h *Header) PayloadOffset() int64 { return h.payloadOffset }

// IsHardlink reports whether the member belongs to a hardlink group.
func (h *Header) IsHardlink() bool { return h.Mode.IsRegular() && h.Links > 1 }

// word rounds a byte count up to the next wordSize boundary,
// e.g. word(17) == 20.
func word(n int64) int64 {
	if r := n % wordSize; r != 0 {
		return n + wordSize - r
	}
	return n
}

// encode renders the fixed 110-byte ASCII-hex header followed by the
// NUL-terminated name and, for symlinks, the link target, each padded with
// NUL bytes to the next 4-byte boundary.  For symlinks the size field holds
// the link-target length instead of a payload length.
func (h *Header) encode() []byte {
	size := h.Size
	if h.Linkname != "" {
		size = int64(len(h.Linkname))
	}

	var b strings.Builder
	b.Grow(headerSize + len(h.Name) + 1 + len(h.Linkname) + 2*wordSize)
	fmt.Fprintf(&b, "%06X", magicNewc)
	fmt.Fprintf(&b, "%08X", h.Inode)
	fmt.Fprintf(&b, "%08X", int64(h.Mode))
	fmt.Fprintf(&b, "%08X", h.UID)
	fmt.Fprintf(&b, "%08X", h.GID)
	fmt.Fprintf(&b, "%08X", h.Links)
	fmt.Fprintf(&b, "%08X", h.ModTime)
	fmt.Fprintf(&b, "%08X", size)
	fmt.Fprintf(&b, "%08X", h.DevMajor)
	fmt.Fprintf(&b, "%08X", h.DevMinor)
	fmt.Fprintf(&b, "%08X", h.RDevMajor)
	fmt.Fprintf(&b, "%08X", h.RDevMinor)
	fmt.Fprintf(&b, "%08X", len(h.Name)+1)
	fmt.Fprintf(&b, "%08X", h.Checksum)

	b.WriteString(h.Name)
	b.WriteByte(0)
	for b.Len()%wordSize != 0 {
		b.WriteByte(0)
	}

	if h.Linkname != "" {
		b.WriteString(h.Linkname)
		for b.Len()%wordSize != 0 {
			b.WriteByte(0)
		}
	}

	return []byte(b.String())
}

// decodeHeader parses the fixed 110-byte prefix of buf by the documented
// byte offsets.  The name and any symlink target are read separately by the
// caller, which knows the stream position.
func decodeHeader(buf []byte) (*Header, int64, error) {
	if len(buf) < headerSize {
		return nil, 0, fmt.Errorf("short header: %d bytes", len(buf))
	}

	field := func(lo, hi int) (int64, error) {
		v, err := strconv.ParseUint(string(buf[lo:hi]), 16, 64)
		if err != nil {
			return 0, fmt.Errorf("header field [%d:%d]: %w", lo, hi, err)
		}
		return int64(v), nil
	}

	magic, err := field(0, 6)
	if err != nil {
		return nil, 0, err
	}
	if magic != magicNewc {
		return nil, 0, fmt.Errorf("bad magic %06X", magic)
	}

	h := &Header{}
	fields := []struct {
		lo, hi int
		dst    *int64
	}{
		{6, 14, &h.Inode},
		{46, 54, &h.ModTime},
		{54, 62, &h.Size},
		{62, 70, &h.DevMajor},
		{70, 78, &h.DevMinor},
		{78, 86, &h.RDevMajor},
		{86, 94, &h.RDevMinor},
	}
	for _, f := range fields {
		if *f.dst, err = field(f.lo, f.hi); err != nil {
			return nil, 0, err
		}
	}

	mode, err := field(14, 22)
	if err != nil {
		return nil, 0, err
	}
	h.Mode = FileMode(mode)

	uid, err := field(22, 30)
	if err != nil {
		return nil, 0, err
	}
	h.UID = int(uid)

	gid, err := field(30, 38)
	if err != nil {
		return nil, 0, err
	}
	h.GID = int(gid)

	nlink, err := field(38, 46)
	if err != nil {
		return nil, 0, err
	}
	h.Links = int(nlink)

	namesize, err := field(94, 102)
	if err != nil {
		return nil, 0, err
	}

	check, err := field(102, 110)
	if err != nil {
		return nil, 0, err
	}
	h.Checksum = uint32(check)

	return h, namesize, nil
}
