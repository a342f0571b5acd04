// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"io"

	"github.com/files-community/Files-sub019/internal/iterx"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/nwaples/rardecode"
)

// rarHostSystems maps rar host ids to the names used for zip creators.
var rarHostSystems = map[byte]string{
	rardecode.HostOSMSDOS:   "FAT",
	rardecode.HostOSOS2:     "HPFS",
	rardecode.HostOSWindows: "NTFS",
	rardecode.HostOSUnix:    "Unix",
	rardecode.HostOSMacOS:   "Macintosh",
	rardecode.HostOSBeOS:    "BeOS",
}

// rarReader serves both RAR 1.5-4 and RAR5 archives. Like tar, every walk
// restarts at the first header; solid archives decode everything before the
// wanted items.
type rarReader struct {
	password string
	in       codec.InStream
}

func rarItem(h *rardecode.FileHeader) item {
	return item{
		path:      h.Name,
		dir:       h.IsDir,
		size:      uint64(h.UnPackedSize),
		hasSize:   !h.UnKnownSize,
		packed:    uint64(h.PackedSize),
		hasPacked: true,
		created:   h.CreationTime,
		accessed:  h.AccessTime,
		modified:  h.ModificationTime,
		attrib:    uint32(h.Attributes),
		hasAttrib: true,
		hostOS:    rarHostSystems[h.HostOS],
	}
}

func (r *rarReader) open(in codec.InStream, _ int64) ([]item, error) {
	r.in = in
	rr, err := rardecode.NewReader(in, r.password)
	if err != nil {
		return nil, err
	}
	var items []item
	for h, err := range iterx.Headers[*rardecode.FileHeader](rr) {
		if err != nil {
			return nil, err
		}
		items = append(items, rarItem(h))
	}
	return items, nil
}

func (r *rarReader) walk(want func(int) bool, visit func(int, io.Reader, error) error) error {
	if _, err := r.in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	rr, err := rardecode.NewReader(r.in, r.password)
	if err != nil {
		return err
	}
	i := 0
	for h, err := range iterx.Headers[*rardecode.FileHeader](rr) {
		if err != nil {
			return err
		}
		if want(i) {
			var content io.Reader
			if !h.IsDir {
				content = rr
			}
			if err := visit(i, content, nil); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}
