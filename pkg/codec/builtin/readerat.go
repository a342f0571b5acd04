// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"io"
	"sync"

	"github.com/files-community/Files-sub019/pkg/codec"
)

// toReaderAt coerces an archive stream into the io.ReaderAt that zip and 7z
// readers need. Streams without native random access are read through Seek,
// one call at a time.
func toReaderAt(in codec.InStream) io.ReaderAt {
	if ra, ok := in.(io.ReaderAt); ok {
		return ra
	}
	return &seekReaderAt{in: in}
}

type seekReaderAt struct {
	mu sync.Mutex
	in codec.InStream
}

func (s *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.in.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.in, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
