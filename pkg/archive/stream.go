// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"io"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// source adapts the archive input to the codec.InStream contract.
type source struct {
	rs    io.ReadSeeker
	owned io.Closer
}

// sourceAt is a source whose input also supports random access.
type sourceAt struct {
	*source
	ra io.ReaderAt
}

func (s sourceAt) ReadAt(p []byte, off int64) (int, error) {
	return s.ra.ReadAt(p, off)
}

// newSource wraps rs. When owned is non-nil it is closed by close.
func newSource(rs io.ReadSeeker, owned io.Closer) (codec.InStream, *source) {
	s := &source{rs: rs, owned: owned}
	if ra, ok := rs.(io.ReaderAt); ok {
		return sourceAt{source: s, ra: ra}, s
	}
	return s, s
}

func (s *source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for range maxEmptyReads {
		n, err := s.rs.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.ErrNoProgress
}

func (s *source) Seek(offset int64, whence int) (int64, error) {
	return s.rs.Seek(offset, whence)
}

func (s *source) close() error {
	if s.owned == nil {
		return nil
	}
	c := s.owned
	s.owned = nil
	return c.Close()
}

var errSinkClosed = errors.New("write to closed sink")

// sink adapts one entry destination to the writer handed to the backend.
// Backend writes may arrive in any size; sink always consumes them whole.
type sink struct {
	w       io.Writer
	owned   io.Closer
	written int64
	closed  bool
}

var _ codec.Resizer = &sink{}

func newSink(w io.Writer, owned io.Closer) *sink {
	return &sink{w: w, owned: owned}
}

func (s *sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errSinkClosed
	}
	var total int
	for len(p) > 0 {
		n, err := s.w.Write(p)
		total += n
		s.written += int64(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
		p = p[n:]
	}
	return total, nil
}

// SetSize preallocates the destination when it supports truncation.
func (s *sink) SetSize(size int64) error {
	if s.closed {
		return errSinkClosed
	}
	if t, ok := s.w.(interface{ Truncate(int64) error }); ok {
		return t.Truncate(size)
	}
	return nil
}

func (s *sink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}
