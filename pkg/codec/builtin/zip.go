// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"
	"io"
	"strings"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

var zipMethods = map[uint16]string{
	0:  "Store",
	8:  "Deflate",
	9:  "Deflate64",
	12: "BZip2",
	14: "LZMA",
	93: "ZSTD",
	95: "XZ",
	98: "PPMd",
	99: "AES",
}

// hostSystems names the creator systems of zip and rar headers.
var hostSystems = []string{
	"FAT", "AMIGA", "VMS", "Unix", "VM/CMS", "Atari", "HPFS", "Macintosh",
	"Z-System", "CP/M", "TOPS-20", "NTFS", "SMS/QDOS", "Acorn", "VFAT",
	"MVS", "BeOS", "Tandem", "OS/400", "OS/X",
}

func hostSystem(id int) string {
	if id >= 0 && id < len(hostSystems) {
		return hostSystems[id]
	}
	return fmt.Sprint(id)
}

func zipMethod(m uint16) string {
	if name, ok := zipMethods[m]; ok {
		return name
	}
	return fmt.Sprint(m)
}

type zipReader struct {
	zr *zip.Reader
}

func (z *zipReader) open(in codec.InStream, size int64) ([]item, error) {
	zr, err := zip.NewReader(toReaderAt(in), size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, err
	}
	z.zr = zr
	items := make([]item, len(zr.File))
	for i, f := range zr.File {
		dir := strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
		items[i] = item{
			path:      f.Name,
			dir:       dir,
			size:      f.UncompressedSize64,
			hasSize:   true,
			packed:    f.CompressedSize64,
			hasPacked: true,
			modified:  f.Modified,
			attrib:    f.ExternalAttrs,
			hasAttrib: true,
			crc:       f.CRC32,
			hasCRC:    !dir,
			encrypted: f.Flags&0x1 != 0,
			method:    zipMethod(f.Method),
			hostOS:    hostSystem(int(f.CreatorVersion >> 8)),
			comment:   f.Comment,
		}
	}
	return items, nil
}

var errZipEncrypted = errors.Wrap(errUnsupported, "encrypted zip entry")

func (z *zipReader) walk(want func(int) bool, visit func(int, io.Reader, error) error) error {
	for i, f := range z.zr.File {
		if !want(i) {
			continue
		}
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			if err := visit(i, nil, nil); err != nil {
				return err
			}
			continue
		}
		if f.Flags&0x1 != 0 {
			if err := visit(i, nil, errZipEncrypted); err != nil {
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
