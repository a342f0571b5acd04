// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// sniffOnly lists extensions that never resolve by name because several
// formats claim them.
var sniffOnly = map[string]bool{"rar": true}

type catalogSignature struct {
	format Format
	Signature
}

// Catalog resolves archive formats from file names and content.
// A Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	byExtension map[string]Format
	signatures  []catalogSignature
	peekLen     int
}

type catalogConfig struct {
	executables bool
}

// CatalogOption configures NewCatalog.
type CatalogOption func(*catalogConfig)

// WithoutExecutables excludes executable container formats (PE, ELF, Mach-O,
// universal binaries) from both extension and signature resolution.
func WithoutExecutables() CatalogOption {
	return func(c *catalogConfig) { c.executables = false }
}

// DefaultCatalog resolves every known format, executables included.
var DefaultCatalog = NewCatalog()

// NewCatalog builds a catalog from the format table.
func NewCatalog(opts ...CatalogOption) *Catalog {
	cfg := catalogConfig{executables: true}
	for _, o := range opts {
		o(&cfg)
	}
	c := &Catalog{byExtension: make(map[string]Format)}
	for _, f := range Formats() {
		fi := formats[f]
		if fi.executable && !cfg.executables {
			continue
		}
		for _, ext := range fi.extensions {
			if !sniffOnly[ext] {
				c.byExtension[ext] = f
			}
		}
		for _, s := range fi.signatures {
			c.signatures = append(c.signatures, catalogSignature{f, s})
			c.peekLen = max(c.peekLen, s.Offset+len(s.Magic))
		}
	}
	// Longer magics are more specific and win over shorter ones they extend,
	// e.g. the RAR5 marker over the RAR marker.
	slices.SortStableFunc(c.signatures, func(a, b catalogSignature) int {
		return len(b.Magic) - len(a.Magic)
	})
	return c
}

// PeekLen is the number of leading bytes Sniff needs to see.
func (c *Catalog) PeekLen() int {
	return c.peekLen
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ResolveByExtension maps a file extension (with or without its leading dot)
// to a format.
func (c *Catalog) ResolveByExtension(ext string) (Format, bool) {
	ext = normalizeExtension(ext)
	if ext == "" || sniffOnly[ext] {
		return UnknownFormat, false
	}
	f, ok := c.byExtension[ext]
	return f, ok
}

// Sniff matches the leading bytes of an archive against known signatures.
// header may be shorter than PeekLen; signatures beyond it do not match.
func (c *Catalog) Sniff(header []byte) Format {
	for _, s := range c.signatures {
		end := s.Offset + len(s.Magic)
		if end <= len(header) && bytes.Equal(header[s.Offset:end], s.Magic) {
			return s.format
		}
	}
	return UnknownFormat
}

// ResolveBySignature peeks at r and matches its content against known
// signatures. The position of r is restored before returning.
func (c *Catalog) ResolveBySignature(r io.ReadSeeker) (f Format, err error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return UnknownFormat, errors.Wrap(err, "locating stream position")
	}
	defer func() {
		if _, serr := r.Seek(pos, io.SeekStart); serr != nil && err == nil {
			f, err = UnknownFormat, errors.Wrap(serr, "restoring stream position")
		}
	}()
	header := make([]byte, c.peekLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return UnknownFormat, errors.Wrap(err, "reading signature")
	}
	if f := c.Sniff(header[:n]); f != UnknownFormat {
		return f, nil
	}
	return UnknownFormat, ErrUnknownFormat
}

// ResolveForPath resolves the format of the file at path, trying its
// extension first and its content second. r must read the file content.
func (c *Catalog) ResolveForPath(path string, r io.ReadSeeker) (Format, error) {
	if f, ok := c.ResolveByExtension(filepath.Ext(path)); ok {
		return f, nil
	}
	if r == nil {
		return UnknownFormat, errors.Wrapf(ErrUnknownFormat, "%s", path)
	}
	f, err := c.ResolveBySignature(r)
	if err != nil {
		return UnknownFormat, errors.Wrapf(err, "%s", path)
	}
	return f, nil
}
