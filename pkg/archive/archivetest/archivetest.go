// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archivetest builds small archives in memory for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// File is one item of a generated archive. Names ending in "/" are folders.
type File struct {
	Name     string
	Body     []byte
	Modified time.Time
	// Store writes zip entries without compression.
	Store bool
}

func (f File) isDir() bool {
	return len(f.Name) > 0 && f.Name[len(f.Name)-1] == '/'
}

func (f File) modified() time.Time {
	if f.Modified.IsZero() {
		return time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return f.Modified
}

// ZipFile returns a zip archive holding files.
func ZipFile(files ...File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range files {
		h := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.modified()}
		if f.Store || f.isDir() {
			h.Method = zip.Store
		}
		if f.isDir() {
			h.SetMode(os.ModeDir | 0o755)
		}
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, errors.Wrapf(err, "adding %s", f.Name)
		}
		if _, err := w.Write(f.Body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// TarFile returns a ustar archive holding files.
func TarFile(files ...File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for _, f := range files {
		h := &tar.Header{
			Name:    f.Name,
			Mode:    0o644,
			Size:    int64(len(f.Body)),
			ModTime: f.modified(),
			Format:  tar.FormatUSTAR,
		}
		if f.isDir() {
			h.Typeflag, h.Mode, h.Size = tar.TypeDir, 0o755, 0
		}
		if err := tw.WriteHeader(h); err != nil {
			return nil, errors.Wrapf(err, "adding %s", f.Name)
		}
		if _, err := tw.Write(f.Body); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// TgzFile returns a gzip-compressed tar archive holding files.
func TgzFile(files ...File) (*bytes.Buffer, error) {
	buf, err := TarFile(files...)
	if err != nil {
		return nil, err
	}
	return GzipFile("", buf.Bytes())
}

// GzipFile compresses data, recording name in the gzip header when set.
func GzipFile(name string, data []byte) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := gzip.NewWriter(buf)
	w.Name = name
	return buf, compress(w, data)
}

// ZstdFile compresses data as a single zstd frame.
func ZstdFile(data []byte) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w, err := zstd.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	return buf, compress(w, data)
}

// Lz4File compresses data as an lz4 frame.
func Lz4File(data []byte) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	return buf, compress(lz4.NewWriter(buf), data)
}

// XzFile compresses data as an xz stream.
func XzFile(data []byte) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w, err := xz.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	return buf, compress(w, data)
}

func compress(w io.WriteCloser, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}
