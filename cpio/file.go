// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ntherning/bootimg/compression"
)

// OpenMode selects how an archive is opened.
type OpenMode int

const (
	// ModeRead opens an existing archive for member iteration and
	// extraction.
	ModeRead OpenMode = iota
	// ModeWrite creates a new archive.
	ModeWrite
	// ModeAppend opens an existing uncompressed archive and positions the
	// cursor over its trailer so further members can be added.
	ModeAppend
)

// Read-mode archives move through a small state machine: no member has
// been produced yet, members are being produced, or the trailer has been
// observed and the member list is final.
type scanState int

const (
	scanNotStarted scanState = iota
	scanStreaming
	scanExhausted
)

// File provides access to one cpio archive over one byte stream.  It is
// not safe for concurrent use: the cursor and buffer state belong to a
// single caller.
type File struct {
	// Hardlinks controls whether members with a link count above one are
	// deduplicated by inode when adding, so that only the first occurrence
	// carries a payload.
	Hardlinks bool

	// ErrorLevel controls extraction strictness: at 0 every per-member
	// failure is only logged, at 1 I/O failures abort, at 2 metadata
	// (chown/chmod/utime/mknod) failures abort as well.
	ErrorLevel int

	mode OpenMode

	r   io.Reader   // decompressed read stream, nil in write mode
	w   io.Writer   // write stream (possibly compression-adapted), nil in read mode
	ra  io.ReaderAt // random payload access, nil for compression-adapted input
	dec compression.DecompressReadCloser
	cmp io.WriteCloser // compression layer to finalize on close
	fc  io.Closer      // underlying stream, closed only if owned by us

	pos     int64 // bytes consumed from the (decompressed) stream
	next    int64 // offset of the next header to read
	offset  int64 // write cursor, the alignment anchor for added members
	members []*Header
	inodes  map[int64][]string // inode -> names, for hardlink bookkeeping
	state   scanState
	scanned bool
	closed  bool

	compression compression.Compression
}

// Ref identifies an archive member either by path or by a handle obtained
// from this File.  The zero Ref is invalid.
type Ref struct {
	name string
	hdr  *Header
}

// ByName refers to the last member with the given path.
func ByName(name string) Ref { return Ref{name: name} }

// ByHandle refers to one concrete member.
func ByHandle(hdr *Header) Ref { return Ref{hdr: hdr} }

// NewReadFile opens an archive over a caller-supplied stream, layering
// compression auto-detection on top.  The File never closes r.
func NewReadFile(r io.Reader) (*File, error) {
	dec, err := compression.DecompressStream(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	f := newFile(ModeRead)
	f.r = dec
	f.dec = dec
	f.compression = dec.GetCompression()
	if f.compression == compression.Uncompressed {
		if ra, ok := r.(io.ReaderAt); ok {
			f.ra = ra
		}
	}
	return f, nil
}

// NewWriteFile creates an archive writing to a caller-supplied stream with
// no compression layer.  The File never closes w.
func NewWriteFile(w io.Writer) *File {
	f := newFile(ModeWrite)
	f.w = w
	return f
}

// Open opens the archive at path for reading, transparently detecting its
// compression scheme.
func Open(path string) (*File, error) {
	return OpenScheme(path, compression.Uncompressed, true)
}

// OpenScheme opens the archive at path for reading.  With auto set the
// scheme is detected from the stream's first bytes; otherwise the given
// scheme is demanded and a mismatch is an error.
func OpenScheme(path string, scheme compression.Compression, auto bool) (*File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var dec compression.DecompressReadCloser
	if auto {
		dec, err = compression.DecompressStream(fp)
	} else {
		dec, err = compression.DecompressStreamWith(fp, scheme)
	}
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	f := newFile(ModeRead)
	f.r = dec
	f.dec = dec
	f.fc = fp
	f.compression = dec.GetCompression()
	if f.compression == compression.Uncompressed {
		f.ra = fp
	}
	return f, nil
}

// Create creates a new archive at path, compressed with the given scheme.
func Create(path string, scheme compression.Compression) (*File, error) {
	fp, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	cmp, err := compression.CompressStream(fp, scheme)
	if err != nil {
		fp.Close()
		return nil, err
	}

	f := newFile(ModeWrite)
	f.w = cmp
	f.cmp = cmp
	f.fc = fp
	f.compression = scheme
	return f, nil
}

// OpenAppend opens an existing uncompressed archive at path and scans to
// its trailer so added members replace it.  Appending to compressed
// archives is not supported.
func OpenAppend(path string) (*File, error) {
	fp, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	var head [6]byte
	if _, err := io.ReadFull(fp, head[:]); err == nil {
		if compression.DetectCompression(head[:]) != compression.Uncompressed {
			fp.Close()
			return nil, fmt.Errorf("%w: cannot append to compressed archive", ErrStream)
		}
	}
	if _, err := fp.Seek(0, io.SeekStart); err != nil {
		fp.Close()
		return nil, err
	}

	f := newFile(ModeAppend)
	f.r = fp
	f.ra = fp
	f.fc = fp

	// Scan all members; the cursor ends just past the trailer.  Rewind the
	// write position to overwrite the trailer record.
	if _, err := f.listAll(); err != nil {
		fp.Close()
		return nil, err
	}
	trailerOff := f.endOfMembers()
	if _, err := fp.Seek(trailerOff, io.SeekStart); err != nil {
		fp.Close()
		return nil, err
	}
	f.w = fp
	f.offset = trailerOff
	return f, nil
}

func newFile(mode OpenMode) *File {
	return &File{
		Hardlinks: true,
		mode:      mode,
		inodes:    make(map[int64][]string),
	}
}

// Compression reports the scheme layered under the archive.
func (f *File) Compression() compression.Compression { return f.compression }

// endOfMembers returns the archive offset immediately after the last
// member's padded payload, i.e. where the trailer record begins.
func (f *File) endOfMembers() int64 {
	if n := len(f.members); n > 0 {
		last := f.members[n-1]
		return word(last.payloadOffset + last.Size)
	}
	return 0
}

func (f *File) check(modes ...OpenMode) error {
	if f.closed {
		return errors.New("archive is closed")
	}
	for _, m := range modes {
		if f.mode == m {
			return nil
		}
	}
	return fmt.Errorf("bad operation for open mode %d", f.mode)
}

// readFull reads exactly len(p) bytes from the stream, advancing the
// cursor.
func (f *File) readFull(p []byte) error {
	n, err := io.ReadFull(f.r, p)
	f.pos += int64(n)
	return err
}

// discard skips n bytes of the stream, advancing the cursor.
func (f *File) discard(n int64) error {
	if n == 0 {
		return nil
	}
	m, err := io.CopyN(io.Discard, f.r, n)
	f.pos += m
	return err
}

// Next returns the next member of the archive, or io.EOF once the trailer
// record has been observed.  The member's payload is not consumed; it is
// located by offset for later extraction.
func (f *File) Next() (*Header, error) {
	if err := f.check(ModeRead, ModeAppend); err != nil {
		return nil, err
	}
	if f.state == scanExhausted {
		return nil, io.EOF
	}

	if err := f.discard(f.next - f.pos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	buf := make([]byte, headerSize)
	if err := f.readFull(buf); err != nil {
		if err == io.EOF && f.pos == f.next {
			// Archive ended cleanly without a trailer record.
			f.exhaust()
			return nil, io.EOF
		}
		if f.pos <= headerSize {
			return nil, fmt.Errorf("%w: empty or truncated archive: %v", ErrRead, err)
		}
		f.exhaust()
		return nil, io.EOF
	}

	hdr, namesize, err := decodeHeader(buf)
	if err != nil {
		if f.pos <= headerSize {
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}
		// Garbage after valid members ends the archive, matching the
		// permissive scan of classic cpio readers.
		f.exhaust()
		return nil, io.EOF
	}

	hdr.offset = f.pos - headerSize

	// The total header length, name included, is padded to the next word
	// boundary before the payload begins.
	nameRegion := word(headerSize+namesize) - headerSize
	nameBuf := make([]byte, nameRegion)
	if err := f.readFull(nameBuf); err != nil {
		return nil, fmt.Errorf("%w: truncated member name: %v", ErrRead, err)
	}
	name := strings.TrimRight(string(nameBuf), "\x00")

	if name == TrailerName {
		f.exhaust()
		return nil, io.EOF
	}
	hdr.Name = name

	if hdr.Mode.IsSymlink() {
		// The declared size is the link-target length; a symlink carries no
		// separate data block.
		targetBuf := make([]byte, word(hdr.Size))
		if err := f.readFull(targetBuf); err != nil {
			return nil, fmt.Errorf("%w: truncated symlink target: %v", ErrRead, err)
		}
		hdr.Linkname = strings.TrimRight(string(targetBuf), "\x00")
		hdr.Size = 0
	}

	hdr.payloadOffset = f.pos
	f.next = word(hdr.payloadOffset + hdr.Size)
	f.state = scanStreaming

	f.members = append(f.members, hdr)
	return hdr, nil
}

func (f *File) exhaust() {
	f.state = scanExhausted
	f.scanned = true
}

// Members returns all members in on-disk order, scanning the remainder of
// the archive if it has not been fully read yet.  The returned slice is
// cached; subsequent calls and iterations reuse it.
func (f *File) Members() ([]*Header, error) {
	if err := f.check(ModeRead, ModeWrite, ModeAppend); err != nil {
		return nil, err
	}
	if f.mode == ModeWrite || f.scanned {
		return f.members, nil
	}
	return f.listAll()
}

func (f *File) listAll() ([]*Header, error) {
	for {
		_, err := f.Next()
		if err == io.EOF {
			return f.members, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Member returns the member for the given ref.  Lookups by name resolve to
// the last occurrence in the archive, so duplicated paths behave as "last
// write wins".
func (f *File) Member(ref Ref) (*Header, error) {
	if ref.hdr != nil {
		return ref.hdr, nil
	}
	members, err := f.Members()
	if err != nil {
		return nil, err
	}
	for i := len(members) - 1; i >= 0; i-- {
		if members[i].Name == ref.name {
			return members[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMemberNotFound, ref.name)
}

// dataMember returns the member actually carrying the payload for hdr's
// inode: the first member of a hardlink group holds the data, later ones
// declare size 0.
func (f *File) dataMember(hdr *Header) *Header {
	if hdr.Size > 0 {
		return hdr
	}
	for _, m := range f.members {
		if m.Inode == hdr.Inode && m.Size > 0 {
			return m
		}
	}
	return hdr
}

// OpenMember returns a reader over a member's payload.  Regular members
// read their data block; hardlinked members read their group's data
// member; symlink members resolve to the member their target names, which
// requires a seekable source.  Members without data (directories, devices,
// fifos) are an error.
func (f *File) OpenMember(ref Ref) (io.Reader, error) {
	if err := f.check(ModeRead, ModeAppend); err != nil {
		return nil, err
	}
	hdr, err := f.Member(ref)
	if err != nil {
		return nil, err
	}

	switch {
	case hdr.Mode.IsRegular():
		return f.payload(f.dataMember(hdr))
	case hdr.Mode.IsSymlink():
		if f.ra == nil {
			return nil, fmt.Errorf("%w: cannot resolve symlink target", ErrStream)
		}
		return f.OpenMember(ByName(hdr.Linkname))
	default:
		return nil, fmt.Errorf("member %q has no data block", hdr.Name)
	}
}

// payload returns a reader over hdr's data block.  Seekable sources get an
// independent section reader; forward-only sources consume the stream and
// refuse to travel backwards.
func (f *File) payload(hdr *Header) (io.Reader, error) {
	if f.ra != nil {
		return io.NewSectionReader(f.ra, hdr.payloadOffset, hdr.Size), nil
	}
	if hdr.payloadOffset < f.pos {
		return nil, fmt.Errorf("%w: payload of %q is behind the stream cursor", ErrStream, hdr.Name)
	}
	if err := f.discard(hdr.payloadOffset - f.pos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return &payloadReader{f: f, n: hdr.Size}, nil
}

// payloadReader reads a data block from the shared stream, keeping the
// File's cursor in step.
type payloadReader struct {
	f *File
	n int64
}

func (p *payloadReader) Read(b []byte) (int, error) {
	if p.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(b)) > p.n {
		b = b[:p.n]
	}
	n, err := p.f.r.Read(b)
	p.f.pos += int64(n)
	p.n -= int64(n)
	return n, err
}

// ReadMember reads a member's entire payload into memory.
func (f *File) ReadMember(ref Ref) ([]byte, error) {
	r, err := f.OpenMember(ref)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close closes the archive.  Write-mode archives append the terminal
// trailer record and flush any compression layer first.  A stream supplied
// by the caller is never closed.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	if f.mode == ModeWrite || f.mode == ModeAppend {
		trailer := &Header{Name: TrailerName, Links: 1}
		if _, err := f.w.Write(trailer.encode()); err != nil {
			firstErr = err
		}
	}
	if f.cmp != nil {
		if err := f.cmp.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.dec != nil {
		if err := f.dec.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.fc != nil {
		if err := f.fc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
