// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"io"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// streamFormat is a compressor wrapping exactly one unnamed item.
type streamFormat struct {
	method string
	magic  []byte
	open   func(io.Reader) (io.ReadCloser, error)
	// verify rejects truncated input before any item is reported.
	verify func(in codec.InStream, size int64) error
	// describe fills item metadata the stream header or trailer carries.
	describe func(in codec.InStream, size int64, it *item) error
}

var (
	gzipStream = streamFormat{
		method: "Deflate",
		magic:  []byte{0x1F, 0x8B},
		open: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		describe: describeGzip,
	}
	bzip2Stream = streamFormat{
		method: "BZip2",
		magic:  []byte("BZh"),
		open: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	}
	xzStream = streamFormat{
		method: "LZMA2",
		magic:  []byte{0xFD, '7', 'z', 'X', 'Z', 0x00},
		open: func(r io.Reader) (io.ReadCloser, error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(xr), nil
		},
		verify: verifyXz,
	}
	zstdStream = streamFormat{
		method: "ZSTD",
		magic:  []byte{0x28, 0xB5, 0x2F, 0xFD},
		open: func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
		verify: verifyZstd,
	}
	lz4Stream = streamFormat{
		method: "LZ4",
		magic:  []byte{0x04, 0x22, 0x4D, 0x18},
		open: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		},
		verify: verifyLz4,
	}
)

// describeGzip reads the stored name and time from the header and the
// uncompressed size from the trailer of the last member.
func describeGzip(in codec.InStream, size int64, it *item) error {
	zr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	it.path, it.modified = zr.Name, zr.ModTime
	if size >= 18 {
		var trailer [4]byte
		if _, err := in.Seek(size-4, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(in, trailer[:]); err != nil {
			return err
		}
		it.size, it.hasSize = uint64(binary.LittleEndian.Uint32(trailer[:])), true
	}
	return nil
}

type streamReader struct {
	f  streamFormat
	in codec.InStream
}

func newStreamReader(f streamFormat) *streamReader {
	return &streamReader{f: f}
}

func (s *streamReader) open(in codec.InStream, size int64) ([]item, error) {
	s.in = in
	head := make([]byte, len(s.f.magic))
	if _, err := io.ReadFull(in, head); err != nil {
		return nil, errors.Wrap(err, "reading signature")
	}
	if !bytes.Equal(head, s.f.magic) {
		return nil, errors.Errorf("missing %s signature", s.f.method)
	}
	if s.f.verify != nil {
		if err := s.f.verify(in, size); err != nil {
			return nil, errors.Wrapf(err, "checking %s stream", s.f.method)
		}
	}
	it := item{packed: uint64(size), hasPacked: true, method: s.f.method}
	if s.f.describe != nil {
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if err := s.f.describe(in, size, &it); err != nil {
			return nil, err
		}
	}
	return []item{it}, nil
}

func (s *streamReader) walk(want func(int) bool, visit func(int, io.Reader, error) error) error {
	if !want(0) {
		return nil
	}
	if _, err := s.in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	rc, err := s.f.open(s.in)
	if err != nil {
		return visit(0, nil, err)
	}
	defer rc.Close()
	return visit(0, rc, nil)
}
