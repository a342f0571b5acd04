// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin_test

import (
	"bytes"
	"context"
	"hash"
	"hash/crc32"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/files-community/Files-sub019/pkg/archive/archivetest"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/files-community/Files-sub019/pkg/codec/builtin"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

var modified = time.Date(2023, 6, 7, 8, 9, 10, 0, time.UTC)

func sampleFiles() []archivetest.File {
	return []archivetest.File{
		{Name: "docs/", Modified: modified},
		{Name: "docs/readme.txt", Body: []byte("read me first"), Modified: modified},
		{Name: "data.bin", Body: bytes.Repeat([]byte{0, 1, 2, 3}, 1024), Modified: modified, Store: true},
	}
}

func fileContents(files []archivetest.File) map[string]string {
	m := map[string]string{}
	for _, f := range files {
		if !strings.HasSuffix(f.Name, "/") {
			m[f.Name] = string(f.Body)
		}
	}
	return m
}

func TestExtractFormats(t *testing.T) {
	body := []byte(strings.Repeat("compressible line\n", 200))
	tests := []struct {
		name       string
		build      func() (*bytes.Buffer, error)
		wantFormat archive.Format
		want       map[string]string
	}{
		{
			name:       "zip",
			build:      func() (*bytes.Buffer, error) { return archivetest.ZipFile(sampleFiles()...) },
			wantFormat: archive.ZipFormat,
			want:       fileContents(sampleFiles()),
		},
		{
			name:       "tar",
			build:      func() (*bytes.Buffer, error) { return archivetest.TarFile(sampleFiles()...) },
			wantFormat: archive.TarFormat,
			want:       fileContents(sampleFiles()),
		},
		{
			name:       "gzip",
			build:      func() (*bytes.Buffer, error) { return archivetest.GzipFile("notes.txt", body) },
			wantFormat: archive.GzipFormat,
			want:       map[string]string{"notes.txt": string(body)},
		},
		{
			name:       "zstd",
			build:      func() (*bytes.Buffer, error) { return archivetest.ZstdFile(body) },
			wantFormat: archive.ZstdFormat,
			want:       map[string]string{"content": string(body)},
		},
		{
			name:       "lz4",
			build:      func() (*bytes.Buffer, error) { return archivetest.Lz4File(body) },
			wantFormat: archive.Lz4Format,
			want:       map[string]string{"content": string(body)},
		},
		{
			name:       "xz",
			build:      func() (*bytes.Buffer, error) { return archivetest.XzFile(body) },
			wantFormat: archive.XzFormat,
			want:       map[string]string{"content": string(body)},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := tc.build()
			if err != nil {
				t.Fatalf("building archive: %v", err)
			}
			lib := builtin.New()
			r, err := archive.OpenStream(lib, bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("OpenStream() error: %v", err)
			}
			defer r.Close()
			if r.Format() != tc.wantFormat {
				t.Errorf("Format() = %v, want %v", r.Format(), tc.wantFormat)
			}
			fs := memfs.New()
			res, err := r.ExtractToFolder(context.Background(), fs, "", nil)
			if err != nil {
				t.Fatalf("ExtractToFolder() error: %v", err)
			}
			if len(res.Failed) > 0 {
				t.Fatalf("ExtractToFolder() failures: %v", res.Failed)
			}
			got := map[string]string{}
			for name := range tc.want {
				b, err := util.ReadFile(fs, name)
				if err != nil {
					t.Errorf("reading %s: %v", name, err)
				}
				got[name] = string(b)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("extracted files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZipMetadata(t *testing.T) {
	buf, err := archivetest.ZipFile(sampleFiles()...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	dir, doc, data := entries[0], entries[1], entries[2]
	if !dir.IsFolder || dir.HasCRC {
		t.Errorf("docs/ = folder %v, has CRC %v; want folder without CRC", dir.IsFolder, dir.HasCRC)
	}
	if doc.Size != uint64(len("read me first")) || doc.Method != "Deflate" {
		t.Errorf("readme = size %d method %q", doc.Size, doc.Method)
	}
	if want := crc32.ChecksumIEEE([]byte("read me first")); !doc.HasCRC || doc.CRC != want {
		t.Errorf("readme CRC = %08X (present %v), want %08X", doc.CRC, doc.HasCRC, want)
	}
	if !doc.Modified.Equal(modified) {
		t.Errorf("readme modified = %v, want %v", doc.Modified, modified)
	}
	if data.Method != "Store" || data.PackedSize != data.Size {
		t.Errorf("data.bin = method %q packed %d size %d", data.Method, data.PackedSize, data.Size)
	}
}

func TestTarMetadata(t *testing.T) {
	buf, err := archivetest.TarFile(sampleFiles()...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Path)
	}
	if diff := cmp.Diff([]string{"docs/", "docs/readme.txt", "data.bin"}, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if !entries[0].IsFolder || entries[0].Attributes&0x10 == 0 {
		t.Errorf("docs/ attributes = %#x, want folder bit", entries[0].Attributes)
	}
	if entries[1].HostOS != "Unix" || !entries[1].Modified.Equal(modified) {
		t.Errorf("readme = host %q modified %v", entries[1].HostOS, entries[1].Modified)
	}
	var out bytes.Buffer
	if err := entries[2].Extract(context.Background(), &out); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if out.Len() != 4096 {
		t.Errorf("data.bin extracted %d bytes, want 4096", out.Len())
	}
}

func TestGzipMetadata(t *testing.T) {
	body := []byte("some text that will be compressed")
	buf, err := archivetest.GzipFile("report.txt", body)
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	e := entries[0]
	if e.Path != "report.txt" || e.Size != uint64(len(body)) || e.PackedSize != uint64(buf.Len()) || e.Method != "Deflate" {
		t.Errorf("entry = %q size %d packed %d method %q", e.Path, e.Size, e.PackedSize, e.Method)
	}
}

func crcWriters(entries []*archive.Entry) ([]io.Writer, []hash.Hash32) {
	ws := make([]io.Writer, len(entries))
	hs := make([]hash.Hash32, len(entries))
	for i, e := range entries {
		if !e.IsFolder {
			hs[i] = crc32.NewIEEE()
			ws[i] = hs[i]
		}
	}
	return ws, hs
}

func TestSevenZipFixtures(t *testing.T) {
	for _, name := range []string{"deflate.7z", "file_and_empty.7z"} {
		t.Run(name, func(t *testing.T) {
			r, err := archive.Open(builtin.New(), filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer r.Close()
			if r.Format() != archive.SevenZipFormat {
				t.Errorf("Format() = %v, want 7z", r.Format())
			}
			entries, err := r.Entries()
			if err != nil {
				t.Fatalf("Entries() error: %v", err)
			}
			if len(entries) == 0 {
				t.Fatal("no entries")
			}
			ws, hs := crcWriters(entries)
			res, err := r.ExtractToStreams(context.Background(), ws)
			if err != nil {
				t.Fatalf("ExtractToStreams() error: %v", err)
			}
			if len(res.Failed) > 0 {
				t.Fatalf("failures: %v", res.Failed)
			}
			for i, e := range entries {
				if hs[i] != nil && e.HasCRC && hs[i].Sum32() != e.CRC {
					t.Errorf("%s: CRC %08X, want %08X", e.Path, hs[i].Sum32(), e.CRC)
				}
			}
		})
	}
}

func TestBzip2Fixture(t *testing.T) {
	r, err := archive.Open(builtin.New(), filepath.Join("testdata", "hello.txt.bz2"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "hello.txt" {
		t.Fatalf("entries = %v, want one named hello.txt", entries)
	}
	var out bytes.Buffer
	if err := entries[0].Extract(context.Background(), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello from bzip2\n" {
		t.Errorf("content = %q", out.String())
	}
}

func TestCorruptedZipEntry(t *testing.T) {
	files := []archivetest.File{
		{Name: "intact.txt", Body: []byte("left alone"), Store: true},
		{Name: "damaged.txt", Body: []byte("this body gets flipped"), Store: true},
	}
	buf, err := archivetest.ZipFile(files...)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	at := bytes.Index(data, []byte("gets flipped"))
	data[at] ^= 0xFF
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var intact, damaged bytes.Buffer
	res, err := r.ExtractToStreams(context.Background(), []io.Writer{&intact, &damaged})
	if err != nil {
		t.Fatalf("ExtractToStreams() error: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Entry.Path != "damaged.txt" || res.Failed[0].Result != codec.OpCRCError {
		t.Fatalf("failures = %v, want CRC error on damaged.txt", res.Failed)
	}
	if intact.String() != "left alone" {
		t.Errorf("intact.txt = %q", intact.String())
	}
}

func TestTruncatedGzip(t *testing.T) {
	buf, err := archivetest.GzipFile("big.txt", []byte(strings.Repeat("0123456789abcdef", 4096)))
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()/2]
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	res, err := r.ExtractToStreams(context.Background(), []io.Writer{io.Discard})
	if err != nil {
		t.Fatalf("ExtractToStreams() error: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Result != codec.OpUnexpectedEnd {
		t.Errorf("failures = %v, want unexpected end", res.Failed)
	}
}

func TestTruncatedStreams(t *testing.T) {
	data := []byte(strings.Repeat("0123456789abcdef", 2048))
	for _, tc := range []struct {
		name  string
		build func([]byte) (*bytes.Buffer, error)
	}{
		{"xz", archivetest.XzFile},
		{"zstd", archivetest.ZstdFile},
		{"lz4", archivetest.Lz4File},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := tc.build(data)
			if err != nil {
				t.Fatal(err)
			}
			whole := buf.Bytes()
			r, err := archive.OpenStream(builtin.New(), bytes.NewReader(whole))
			if err != nil {
				t.Fatal(err)
			}
			entries, err := r.Entries()
			r.Close()
			if err != nil || len(entries) != 1 {
				t.Fatalf("Entries() of whole stream = %d entries, %v", len(entries), err)
			}
			for _, n := range []int{len(whole) / 2, len(whole) - 1} {
				r, err := archive.OpenStream(builtin.New(), bytes.NewReader(whole[:n]))
				if err != nil {
					t.Fatal(err)
				}
				if _, err := r.Entries(); !errors.Is(err, archive.ErrCorruptOrUnsupported) {
					t.Errorf("Entries() of %d/%d bytes error = %v, want ErrCorruptOrUnsupported", n, len(whole), err)
				}
				r.Close()
			}
		})
	}
}

func TestNotAnArchive(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xAB}, 256)
	for _, tc := range []struct {
		name   string
		format archive.Format
		prefix string
	}{
		{"zip", archive.ZipFormat, "PK\x03\x04"},
		{"7z", archive.SevenZipFormat, "7z\xbc\xaf\x27\x1c"},
		{"rar5", archive.Rar5Format, "Rar!\x1a\x07\x01\x00"},
		{"xz", archive.XzFormat, "\xfd7zXZ"},
		{"gzip", archive.GzipFormat, "\x1f\x8b\x08"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := append([]byte(tc.prefix), garbage...)
			r, err := archive.OpenStream(builtin.New(), bytes.NewReader(data), archive.WithFormat(tc.format))
			if err != nil {
				t.Fatalf("OpenStream() error: %v", err)
			}
			defer r.Close()
			if _, err := r.Entries(); !errors.Is(err, archive.ErrCorruptOrUnsupported) {
				t.Errorf("Entries() error = %v, want ErrCorruptOrUnsupported", err)
			}
		})
	}
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestWriteFailureAborts(t *testing.T) {
	buf, err := archivetest.ZipFile(sampleFiles()...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(builtin.New(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var after bytes.Buffer
	_, err = r.ExtractToStreams(context.Background(), []io.Writer{nil, failingWriter{}, &after})
	if !errors.Is(err, errDiskFull) {
		t.Errorf("ExtractToStreams() error = %v, want disk full", err)
	}
	if after.Len() != 0 {
		t.Error("extraction continued after a write failure")
	}
}

// plainStream hides io.ReaderAt from the archive source.
type plainStream struct{ io.ReadSeeker }

func TestZipWithoutReaderAt(t *testing.T) {
	buf, err := archivetest.ZipFile(sampleFiles()...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(builtin.New(), plainStream{bytes.NewReader(buf.Bytes())})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := entries[1].Extract(context.Background(), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "read me first" {
		t.Errorf("content = %q", out.String())
	}
}

func TestLibrary(t *testing.T) {
	lib := builtin.New()
	if _, err := lib.CreateDecoder(codec.HandlerKey(0x99)); !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Errorf("CreateDecoder(0x99) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := lib.CreateDecoder(codec.Key{}); !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Errorf("CreateDecoder(zero) error = %v, want ErrUnsupportedFormat", err)
	}
	for _, f := range []archive.Format{archive.ZipFormat, archive.SevenZipFormat, archive.RarFormat, archive.Rar5Format,
		archive.TarFormat, archive.GzipFormat, archive.Bzip2Format, archive.XzFormat, archive.ZstdFormat, archive.Lz4Format} {
		key, _ := f.CodecKey()
		found := false
		for _, k := range lib.Keys() {
			found = found || k == key
		}
		if !found {
			t.Errorf("%v is not served", f)
		}
	}
	buf, err := archivetest.ZstdFile([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := archive.OpenStream(lib, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Close(); !errors.Is(err, codec.ErrLibraryBusy) {
		t.Errorf("Close() with open reader error = %v, want ErrLibraryBusy", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := lib.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
