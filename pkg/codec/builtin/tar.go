// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"archive/tar"
	"io"
	"strings"

	"github.com/files-community/Files-sub019/internal/iterx"
	"github.com/files-community/Files-sub019/pkg/codec"
)

const (
	attrDirectory     = 0x10
	attrUnixExtension = 0x8000
)

// tarReader rescans the archive from the start for every walk; tar has no
// index to seek through.
type tarReader struct {
	in codec.InStream
}

// listed reports whether h is an archive member rather than metadata for
// the following headers.
func listed(h *tar.Header) bool {
	return h.Typeflag != tar.TypeXGlobalHeader
}

func tarItem(h *tar.Header) item {
	dir := h.Typeflag == tar.TypeDir || strings.HasSuffix(h.Name, "/")
	attrib := uint32(h.Mode&0xFFFF)<<16 | attrUnixExtension
	if dir {
		attrib |= attrDirectory
	}
	return item{
		path:      h.Name,
		dir:       dir,
		size:      uint64(h.Size),
		hasSize:   true,
		packed:    uint64(h.Size),
		hasPacked: true,
		modified:  h.ModTime,
		accessed:  h.AccessTime,
		attrib:    attrib,
		hasAttrib: true,
		hostOS:    "Unix",
	}
}

func (t *tarReader) open(in codec.InStream, _ int64) ([]item, error) {
	t.in = in
	var items []item
	for h, err := range iterx.Headers[*tar.Header](tar.NewReader(in)) {
		if err != nil {
			return nil, err
		}
		if listed(h) {
			items = append(items, tarItem(h))
		}
	}
	return items, nil
}

func (t *tarReader) walk(want func(int) bool, visit func(int, io.Reader, error) error) error {
	if _, err := t.in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	tr := tar.NewReader(t.in)
	i := 0
	for h, err := range iterx.Headers[*tar.Header](tr) {
		if err != nil {
			return err
		}
		if !listed(h) {
			continue
		}
		if want(i) {
			var r io.Reader
			if h.Typeflag != tar.TypeDir {
				r = tr
			}
			if err := visit(i, r, nil); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}
