// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"hash/crc32"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/files-community/Files-sub019/pkg/codec/codectest"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
)

func key(t *testing.T, f Format) codec.Key {
	t.Helper()
	k, ok := f.CodecKey()
	if !ok {
		t.Fatalf("%v has no codec key", f)
	}
	return k
}

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func openStub(t *testing.T, lib *codectest.Library, opts ...Option) *Reader {
	t.Helper()
	opts = append([]Option{WithFormat(ZipFormat)}, opts...)
	r, err := OpenStream(lib, bytes.NewReader([]byte("PK\x03\x04")), opts...)
	if err != nil {
		t.Fatalf("OpenStream() error: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func threeEntries(t *testing.T) *codectest.Library {
	return codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "a", Dir: true},
		codectest.Item{Path: "a/b.txt", Data: []byte("hello")},
		codectest.Item{Path: "c.txt", Data: []byte("world")},
	)
}

func TestEntries(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	lib := codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "dir", Dir: true},
		codectest.Item{Path: `dir\file.txt`, Data: []byte("content"), Modified: mtime,
			Props: map[codec.PropID]codec.Value{
				codec.PropAttrib:    codec.Uint32Value(0x20),
				codec.PropEncrypted: codec.BoolValue(true),
				codec.PropComment:   codec.StringValue("note"),
				codec.PropHostOS:    codec.StringValue("FAT"),
			}},
		codectest.Item{Path: "trailing/"},
	)
	r := openStub(t, lib)
	got, err := r.Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	want := []*Entry{
		{Index: 0, Path: "dir", IsFolder: true, Method: "Stub"},
		{Index: 1, Path: `dir\file.txt`, Size: 7, PackedSize: 7, Modified: mtime, CRC: crc32.ChecksumIEEE([]byte("content")), HasCRC: true,
			Attributes: 0x20, Encrypted: true, Comment: "note", Method: "Stub", HostOS: "FAT"},
		{Index: 2, Path: "trailing/", IsFolder: true, HasCRC: true, Method: "Stub"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Entry{})); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
	if got[1].Name() != "file.txt" {
		t.Errorf("Name() = %q, want file.txt", got[1].Name())
	}
}

func TestEntriesAreMemoized(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	first, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if &first[0] != &second[0] || first[1] != second[1] {
		t.Error("Entries() returned a different snapshot on the second call")
	}
	if lib.Calls.Open != 1 || lib.Calls.Count != 1 {
		t.Errorf("backend opened %d times and counted %d times, want 1 and 1", lib.Calls.Open, lib.Calls.Count)
	}
}

func TestEntriesErrorIsMemoized(t *testing.T) {
	lib := threeEntries(t)
	lib.Magic = []byte("7z")
	r := openStub(t, lib)
	_, err := r.Entries()
	if !errors.Is(err, ErrCorruptOrUnsupported) {
		t.Fatalf("Entries() error = %v, want ErrCorruptOrUnsupported", err)
	}
	if _, again := r.Entries(); again != err {
		t.Errorf("second Entries() error = %v, want the memoized %v", again, err)
	}
	if lib.Calls.Open != 1 {
		t.Errorf("backend opened %d times, want 1", lib.Calls.Open)
	}
}

func TestOpenZeroByteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(threeEntries(t), path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer r.Close()
	if r.Format() != ZipFormat || r.Path() != path {
		t.Errorf("reader = %v %q, want zip %q", r.Format(), r.Path(), path)
	}
	if _, err := r.Entries(); !errors.Is(err, ErrCorruptOrUnsupported) {
		t.Errorf("Entries() error = %v, want ErrCorruptOrUnsupported", err)
	}
}

func TestOpenUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(threeEntries(t), path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open() error = %v, want ErrUnknownFormat", err)
	}
	if _, err := OpenStream(threeEntries(t), strings.NewReader("")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("OpenStream() error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpenUnsupportedByLibrary(t *testing.T) {
	_, err := OpenStream(threeEntries(t), strings.NewReader("7z\xbc\xaf\x27\x1c"))
	if !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Errorf("OpenStream() error = %v, want ErrUnsupportedFormat", err)
	}
	_, err = OpenStream(nil, strings.NewReader("PK\x03\x04"))
	if !errors.Is(err, codec.ErrLibraryNotFound) {
		t.Errorf("OpenStream(nil library) error = %v, want ErrLibraryNotFound", err)
	}
}

func TestDefaultItemName(t *testing.T) {
	tests := []struct {
		archive string
		want    string
	}{
		{"", "content"},
		{"/tmp/report.pdf.gz", "report.pdf"},
		{"backup.TGZ", "backup.tar"},
		{"logs.txz", "logs.tar"},
		{"noext", "noext~"},
	}
	for _, tc := range tests {
		if got := defaultItemName(tc.archive); got != tc.want {
			t.Errorf("defaultItemName(%q) = %q, want %q", tc.archive, got, tc.want)
		}
	}
}

func TestSingleNamelessItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tgz")
	if err := os.WriteFile(path, []byte{0x1f, 0x8b, 0x08}, 0o644); err != nil {
		t.Fatal(err)
	}
	lib := codectest.New(key(t, GzipFormat), codectest.Item{Data: []byte("tarball")})
	r, err := Open(lib, path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer r.Close()
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Path != "data.tar" {
		t.Errorf("Path = %q, want data.tar", entries[0].Path)
	}
}

func TestExtractToFolder(t *testing.T) {
	for _, async := range []bool{false, true} {
		t.Run(map[bool]string{false: "sync", true: "async"}[async], func(t *testing.T) {
			lib := threeEntries(t)
			lib.Async = async
			lib.Chunk = 2
			fs := memfs.New()
			r := openStub(t, lib)
			res, err := r.ExtractToFolder(context.Background(), fs, "out", nil)
			if err != nil {
				t.Fatalf("ExtractToFolder() error: %v", err)
			}
			if diff := cmp.Diff(&Result{Extracted: 2, Folders: 1}, res); diff != "" {
				t.Errorf("Result mismatch (-want +got):\n%s", diff)
			}
			for name, want := range map[string]string{"out/a/b.txt": "hello", "out/c.txt": "world"} {
				got, err := util.ReadFile(fs, name)
				if err != nil {
					t.Errorf("reading %s: %v", name, err)
					continue
				}
				if string(got) != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
			if fi, err := fs.Stat("out/a"); err != nil || !fi.IsDir() {
				t.Errorf("out/a is not a folder: %v", err)
			}
		})
	}
}

func TestExtractToFolderFilter(t *testing.T) {
	fs := memfs.New()
	r := openStub(t, threeEntries(t))
	res, err := r.ExtractToFolder(context.Background(), fs, "", func(e *Entry) bool {
		return strings.HasSuffix(e.Path, "c.txt")
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Extracted != 1 || res.Skipped != 2 {
		t.Errorf("Result = %+v, want 1 extracted and 2 skipped", res)
	}
	if _, err := fs.Stat("a/b.txt"); !os.IsNotExist(err) {
		t.Errorf("filtered entry a/b.txt was written: %v", err)
	}
}

func TestExtractToOSFolder(t *testing.T) {
	dir := t.TempDir()
	r := openStub(t, threeEntries(t))
	if _, err := r.ExtractToFolder(context.Background(), osfs.New(dir), "", nil); err != nil {
		t.Fatalf("ExtractToFolder() error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a", "b.txt"))
	if err != nil || string(got) != "hello" {
		t.Errorf("a/b.txt = %q, %v", got, err)
	}
}

// recordingFS logs folder creation, file opening and writing in order.
type recordingFS struct {
	billy.Filesystem
	ops *[]string
}

func (fs recordingFS) MkdirAll(name string, perm os.FileMode) error {
	*fs.ops = append(*fs.ops, "mkdir "+filepath.ToSlash(name))
	return fs.Filesystem.MkdirAll(name, perm)
}

func (fs recordingFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	*fs.ops = append(*fs.ops, "open "+filepath.ToSlash(name))
	f, err := fs.Filesystem.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return recordingFile{f, fs.ops}, nil
}

type recordingFile struct {
	billy.File
	ops *[]string
}

func (f recordingFile) Write(p []byte) (int, error) {
	*f.ops = append(*f.ops, "write "+filepath.ToSlash(f.Name()))
	return f.File.Write(p)
}

func (f recordingFile) Close() error {
	*f.ops = append(*f.ops, "close "+filepath.ToSlash(f.Name()))
	return f.File.Close()
}

func TestExtractCreatesFoldersBeforeWriting(t *testing.T) {
	var ops []string
	fs := recordingFS{memfs.New(), &ops}
	lib := codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "x/y/z.txt", Data: []byte("z")},
		codectest.Item{Path: "x/y", Dir: true},
		codectest.Item{Path: "x/empty", Dir: true},
	)
	r := openStub(t, lib)
	if _, err := r.ExtractToFolder(context.Background(), fs, "out", nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"mkdir out/x/y",
		"open out/x/y/z.txt",
		"mkdir out/x/y",
		"mkdir out/x/empty",
		"write out/x/y/z.txt",
		"close out/x/y/z.txt",
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("filesystem operations mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUnsafePath(t *testing.T) {
	lib := codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "ok.txt", Data: []byte("ok")},
		codectest.Item{Path: "../../etc/passwd", Data: []byte("root")},
	)
	fs := memfs.New()
	r := openStub(t, lib)
	_, err := r.ExtractToFolder(context.Background(), fs, "out", nil)
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("ExtractToFolder() error = %v, want ErrUnsafePath", err)
	}
	if lib.Calls.Extract != 0 {
		t.Errorf("backend extracted despite an unsafe path")
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a/b.txt", filepath.Join("a", "b.txt"), false},
		{`a\b\c.txt`, filepath.Join("a", "b", "c.txt"), false},
		{"/abs/file", filepath.Join("abs", "file"), false},
		{`C:\Windows\x.dll`, filepath.Join("Windows", "x.dll"), false},
		{"./a/./b", filepath.Join("a", "b"), false},
		{"a/../../b", "", true},
		{"..", "", true},
		{"/", "", true},
	}
	for _, tc := range tests {
		got, err := localPath(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("localPath(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("localPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractToStreamsKeepsAlignment(t *testing.T) {
	lib := codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "0", Data: []byte("zero")},
		codectest.Item{Path: "1", Data: []byte("one")},
		codectest.Item{Path: "2", Data: []byte("two")},
	)
	r := openStub(t, lib)
	var first, third bytes.Buffer
	res, err := r.ExtractToStreams(context.Background(), []io.Writer{&first, nil, &third})
	if err != nil {
		t.Fatalf("ExtractToStreams() error: %v", err)
	}
	if first.String() != "zero" || third.String() != "two" {
		t.Errorf("streams = %q, %q; want zero, two", first.String(), third.String())
	}
	if res.Extracted != 2 || res.Skipped != 1 {
		t.Errorf("Result = %+v, want 2 extracted and 1 skipped", res)
	}
	if _, err := r.ExtractToStreams(context.Background(), []io.Writer{&first}); err == nil {
		t.Error("ExtractToStreams() with too few streams succeeded")
	}
}

func TestExtractReportsEntryFailures(t *testing.T) {
	var logs bytes.Buffer
	lib := codectest.New(key(t, ZipFormat),
		codectest.Item{Path: "good.txt", Data: []byte("good")},
		codectest.Item{Path: "bad.txt", Data: []byte("corrupted"), Result: codec.OpCRCError},
		codectest.Item{Path: "after.txt", Data: []byte("after")},
	)
	r := openStub(t, lib, WithLogger(newTestLogger(&logs)))
	fs := memfs.New()
	res, err := r.ExtractToFolder(context.Background(), fs, "", nil)
	if err != nil {
		t.Fatalf("ExtractToFolder() error: %v", err)
	}
	if res.Extracted != 2 || len(res.Failed) != 1 {
		t.Fatalf("Result = %+v, want 2 extracted and 1 failed", res)
	}
	failed := res.Failed[0]
	if failed.Entry.Path != "bad.txt" || failed.Result != codec.OpCRCError {
		t.Errorf("failure = %v", failed)
	}
	if !errors.Is(res.Err(), ErrEntryExtractionFailed) {
		t.Errorf("Result.Err() = %v, want ErrEntryExtractionFailed", res.Err())
	}
	if !strings.Contains(logs.String(), "bad.txt") {
		t.Errorf("log %q does not mention the failed entry", logs.String())
	}
	if got, _ := util.ReadFile(fs, "after.txt"); string(got) != "after" {
		t.Errorf("after.txt = %q, want after", got)
	}
}

type trackedWriter struct {
	bytes.Buffer
	closed bool
}

func (w *trackedWriter) Close() error {
	w.closed = true
	return nil
}

func TestExtractSinkOpenFailureAborts(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	opened := &trackedWriter{}
	_, err := r.Extract(context.Background(), func(e *Entry) Sink {
		switch e.Index {
		case 1:
			return Stream(func() (io.WriteCloser, error) { return opened, nil })
		case 2:
			return Stream(func() (io.WriteCloser, error) { return nil, errors.New("disk full") })
		}
		return Skip()
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Extract() error = %v, want disk full", err)
	}
	if !opened.closed {
		t.Error("already opened sink was not closed")
	}
	if lib.Calls.Extract != 0 {
		t.Error("backend extraction ran after a sink failed to open")
	}
}

func TestExtractClosesOwnedStreams(t *testing.T) {
	r := openStub(t, threeEntries(t))
	outs := map[int]*trackedWriter{}
	res, err := r.Extract(context.Background(), func(e *Entry) Sink {
		if e.IsFolder {
			return Skip()
		}
		w := &trackedWriter{}
		outs[e.Index] = w
		return Stream(func() (io.WriteCloser, error) { return w, nil })
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", res.Extracted)
	}
	for i, w := range outs {
		if !w.closed {
			t.Errorf("stream %d left open", i)
		}
	}
	if outs[2].String() != "world" {
		t.Errorf("stream 2 = %q, want world", outs[2].String())
	}
}

func TestExtractCanceled(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &trackedWriter{}
	_, err := r.Extract(ctx, func(e *Entry) Sink {
		return Stream(func() (io.WriteCloser, error) { return out, nil })
	})
	if !errors.Is(err, codec.ErrAborted) {
		t.Errorf("Extract() error = %v, want ErrAborted", err)
	}
	if !out.closed {
		t.Error("sink left open after cancellation")
	}
}

func TestExtractBackendError(t *testing.T) {
	lib := threeEntries(t)
	lib.ExtractErr = errors.New("unexpected end of archive")
	r := openStub(t, lib)
	_, err := r.ExtractToStreams(context.Background(), make([]io.Writer, 3))
	if err == nil || !strings.Contains(err.Error(), "unexpected end of archive") {
		t.Errorf("Extract() error = %v, want backend error", err)
	}
}

func TestExtractProgress(t *testing.T) {
	type tick struct{ done, total uint64 }
	var ticks []tick
	r := openStub(t, threeEntries(t), WithProgress(func(done, total uint64) {
		ticks = append(ticks, tick{done, total})
	}))
	if _, err := r.ExtractToStreams(context.Background(), make([]io.Writer, 3)); err != nil {
		t.Fatal(err)
	}
	want := []tick{{0, 10}, {0, 10}, {5, 10}, {10, 10}}
	if diff := cmp.Diff(want, ticks, cmp.AllowUnexported(tick{})); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryExtract(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := entries[2].Extract(context.Background(), &buf); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if buf.String() != "world" {
		t.Errorf("Extract() wrote %q, want world", buf.String())
	}
	if diff := cmp.Diff([]uint32{2}, lib.Calls.Streams); diff != "" {
		t.Errorf("requested items mismatch (-want +got):\n%s", diff)
	}

	fs := memfs.New()
	if err := entries[1].ExtractFile(context.Background(), fs, "deep/copy.txt"); err != nil {
		t.Fatalf("ExtractFile() error: %v", err)
	}
	if got, _ := util.ReadFile(fs, "deep/copy.txt"); string(got) != "hello" {
		t.Errorf("deep/copy.txt = %q, want hello", got)
	}
	if err := entries[0].ExtractFile(context.Background(), fs, "folder"); err != nil {
		t.Fatalf("ExtractFile() of folder error: %v", err)
	}
	if fi, err := fs.Stat("folder"); err != nil || !fi.IsDir() {
		t.Errorf("folder not created: %v", err)
	}
}

func TestEntryExtractFailure(t *testing.T) {
	lib := codectest.New(key(t, ZipFormat), codectest.Item{Path: "x", Data: []byte("abcd"), Result: codec.OpDataError})
	r := openStub(t, lib)
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	err = entries[0].Extract(context.Background(), io.Discard)
	var ee *EntryError
	if !errors.As(err, &ee) || ee.Result != codec.OpDataError {
		t.Errorf("Extract() error = %v, want EntryError with data error", err)
	}
}

func TestCloseTwice(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	entries, err := r.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if lib.Calls.Close != 1 || lib.Open() != 0 {
		t.Errorf("decoder closed %d times with %d still open, want 1 and 0", lib.Calls.Close, lib.Open())
	}
	if err := lib.Close(); err != nil {
		t.Errorf("library Close() after reader Close() = %v", err)
	}
	if _, err := r.Entries(); !errors.Is(err, ErrHandleDisposed) {
		t.Errorf("Entries() after Close() error = %v, want ErrHandleDisposed", err)
	}
	if err := entries[1].Extract(context.Background(), io.Discard); !errors.Is(err, ErrHandleDisposed) {
		t.Errorf("Entry.Extract() after Close() error = %v, want ErrHandleDisposed", err)
	}
	if entries[1].Path != "a/b.txt" {
		t.Errorf("entry metadata lost after Close(): %q", entries[1].Path)
	}
}

// loggedSource records its Close into a shared event log.
type loggedSource struct {
	*bytes.Reader
	events *[]string
}

func (s loggedSource) Close() error {
	*s.events = append(*s.events, "stream close")
	return nil
}

func TestCloseOrder(t *testing.T) {
	tests := []struct {
		name  string
		owned bool
		want  []string
	}{
		{"owned source", true, []string{"decoder close", "stream close"}},
		{"caller stream", false, []string{"decoder close"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var events []string
			lib := threeEntries(t)
			lib.OnClose = func() { events = append(events, "decoder close") }
			src := loggedSource{Reader: bytes.NewReader([]byte("PK\x03\x04")), events: &events}
			var r *Reader
			var err error
			if tc.owned {
				// Open hands the file it opened to newReader as the owned closer.
				r, err = newReader(lib, src, src, ZipFormat, newOptions(nil))
			} else {
				r, err = OpenStream(lib, src, WithFormat(ZipFormat))
			}
			if err != nil {
				t.Fatalf("opening reader: %v", err)
			}
			if _, err := r.Entries(); err != nil {
				t.Fatalf("Entries() error: %v", err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("second Close() error: %v", err)
			}
			if diff := cmp.Diff(tc.want, events); diff != "" {
				t.Errorf("close events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCloseReleasesPathOpenedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.zip")
	if err := os.WriteFile(path, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := threeEntries(t)
	r, err := Open(lib, path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	f, ok := r.src.owned.(*os.File)
	if !ok {
		t.Fatalf("reader does not own the file it opened: %T", r.src.owned)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := f.Stat(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("archive file still open after Close(): Stat() error = %v", err)
	}
}

func TestLibraryBusyWhileReaderOpen(t *testing.T) {
	lib := threeEntries(t)
	r := openStub(t, lib)
	if err := lib.Close(); !errors.Is(err, codec.ErrLibraryBusy) {
		t.Errorf("library Close() error = %v, want ErrLibraryBusy", err)
	}
	r.Close()
}
