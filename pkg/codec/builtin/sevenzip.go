// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"io"

	"github.com/bodgit/sevenzip"
	"github.com/files-community/Files-sub019/pkg/codec"
)

type sevenZipReader struct {
	password string
	r        *sevenzip.Reader
}

func (s *sevenZipReader) open(in codec.InStream, size int64) ([]item, error) {
	r, err := sevenzip.NewReaderWithPassword(toReaderAt(in), size, s.password)
	if err != nil {
		return nil, err
	}
	s.r = r
	items := make([]item, len(r.File))
	for i, f := range r.File {
		dir := f.FileInfo().IsDir()
		items[i] = item{
			path:      f.Name,
			dir:       dir,
			size:      f.UncompressedSize,
			hasSize:   true,
			created:   f.Created,
			accessed:  f.Accessed,
			modified:  f.Modified,
			attrib:    f.Attributes,
			hasAttrib: true,
			crc:       f.CRC32,
			hasCRC:    !dir && f.CRC32 != 0,
		}
	}
	return items, nil
}

func (s *sevenZipReader) walk(want func(int) bool, visit func(int, io.Reader, error) error) error {
	for i, f := range s.r.File {
		if !want(i) {
			continue
		}
		if f.FileInfo().IsDir() {
			if err := visit(i, nil, nil); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			if err := visit(i, nil, err); err != nil {
				return err
			}
			continue
		}
		err = visit(i, rc, nil)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
