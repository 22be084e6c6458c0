// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package compression provides a uniform byte-stream interface over the
// block-compression schemes a ramdisk may be wrapped in.  On the read side
// the scheme can be auto-detected from the leading magic bytes, so callers
// never need to know up front whether an archive is compressed.
package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Compression identifies a supported compression scheme.
type Compression int

const (
	// Uncompressed represents the plain, unwrapped byte stream.
	Uncompressed Compression = iota
	// Gzip is the DEFLATE-gzip-framed scheme.
	Gzip
	// Bzip2 is the bzip2 scheme.
	Bzip2
	// Xz is the XZ (LZMA2) scheme.
	Xz
)

// ErrUnavailable is returned when a requested compression scheme has no
// codec in this build.
var ErrUnavailable = errors.New("compression scheme unavailable")

// ErrMismatchedScheme is returned when the caller demanded a specific
// compressed scheme but the stream's magic bytes do not match it.
var ErrMismatchedScheme = errors.New("stream does not match requested compression scheme")

const (
	// blockSize bounds the amount of data buffered while compressing or
	// decompressing.
	blockSize = 16 * 1024

	// peekSize is how far ahead DecompressStream looks for magic bytes.
	peekSize = 512
)

var magics = []struct {
	compression Compression
	magic       []byte
}{
	{Gzip, []byte{0x1f, 0x8b, 0x08}},
	{Bzip2, []byte("BZh9")},
	{Xz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
}

// Codec constructors are looked up through explicit maps built once at
// package initialization.
var (
	decompressors = map[Compression]func(io.Reader) (io.ReadCloser, error){
		Gzip: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		Bzip2: func(r io.Reader) (io.ReadCloser, error) {
			return bzip2.NewReader(r, nil)
		},
		Xz: func(r io.Reader) (io.ReadCloser, error) {
			zr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(zr), nil
		},
	}

	compressors = map[Compression]func(io.Writer) (io.WriteCloser, error){
		Gzip: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
		Bzip2: func(w io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		},
		Xz: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
	}
)

// String returns the scheme tag used throughout descriptors and logs.
func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

// Parse converts a scheme tag back into a Compression.
func Parse(s string) (Compression, error) {
	switch s {
	case "none", "":
		return Uncompressed, nil
	case "gzip":
		return Gzip, nil
	case "bzip2":
		return Bzip2, nil
	case "xz":
		return Xz, nil
	}
	return Uncompressed, fmt.Errorf("%w: %q", ErrUnavailable, s)
}

// DetectCompression returns the scheme whose magic bytes prefix head, or
// Uncompressed when none match.
func DetectCompression(head []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.compression
		}
	}
	return Uncompressed
}

// DecompressReadCloser is the read side of the adapter.  GetCompression
// reports the scheme selected at open time.
type DecompressReadCloser interface {
	io.ReadCloser
	GetCompression() Compression
}

type readCloserWrapper struct {
	io.Reader
	compression Compression
	closer      func() error
}

func (r *readCloserWrapper) GetCompression() Compression { return r.compression }

func (r *readCloserWrapper) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// DecompressStream returns a stream of the decompressed contents of r,
// selecting the scheme from the first bytes of the stream.  A stream with
// no recognized magic is passed through untouched.  Closing the returned
// reader finalizes the codec but never closes r.
func DecompressStream(r io.Reader) (DecompressReadCloser, error) {
	buf := bufio.NewReaderSize(r, blockSize)
	head, err := buf.Peek(peekSize)
	if err != nil && err != io.EOF {
		return nil, err
	}

	compression := DetectCompression(head)
	if compression == Uncompressed {
		return &readCloserWrapper{
			Reader:      buf,
			compression: Uncompressed,
		}, nil
	}

	dec, err := decompressors[compression](buf)
	if err != nil {
		return nil, fmt.Errorf("opening %s stream: %w", compression, err)
	}

	return &readCloserWrapper{
		Reader:      dec,
		compression: compression,
		closer:      dec.Close,
	}, nil
}

// DecompressStreamWith is DecompressStream for callers that demand a
// specific scheme.  A magic mismatch is an error rather than a silent
// fallback to the uncompressed path.
func DecompressStreamWith(r io.Reader, compression Compression) (DecompressReadCloser, error) {
	if compression == Uncompressed {
		return &readCloserWrapper{
			Reader:      bufio.NewReaderSize(r, blockSize),
			compression: Uncompressed,
		}, nil
	}

	rc, err := DecompressStream(r)
	if err != nil {
		return nil, err
	}
	if rc.GetCompression() != compression {
		return nil, fmt.Errorf("%w: want %s, found %s", ErrMismatchedScheme, compression, rc.GetCompression())
	}
	return rc, nil
}

// CompressStream returns a stream that compresses into w using the given
// scheme.  Auto-detection is a read-side concept only; writers always name
// their scheme.  Closing the returned writer flushes pending blocks and
// appends any trailing checksum/length fields the scheme defines, but
// never closes w.
func CompressStream(w io.Writer, compression Compression) (io.WriteCloser, error) {
	if compression == Uncompressed {
		return nopWriteCloser{w}, nil
	}

	newCompressor, ok := compressors[compression]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, compression)
	}

	return newCompressor(w)
}
