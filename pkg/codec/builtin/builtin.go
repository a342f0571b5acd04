// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package builtin implements a codec.Library on pure Go decoders.
//
// It serves the common formats without any native library: zip, 7z, rar,
// rar5, tar and the single-stream compressors gzip, bzip2, xz, zstd and lz4.
// Handler keys use the same numbering as the native backend, so either
// library can stand behind an archive.Reader.
package builtin

import (
	"hash/crc32"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// Handler ids served by the library.
const (
	ZipID      byte = 0x01
	Bzip2ID    byte = 0x02
	RarID      byte = 0x03
	SevenZipID byte = 0x07
	XzID       byte = 0x0C
	ZstdID     byte = 0x0E
	Lz4ID      byte = 0x0F
	Rar5ID     byte = 0xCC
	TarID      byte = 0xEE
	GzipID     byte = 0xEF
)

// reader is one archive format of the built-in backend.
type reader interface {
	// open parses the archive index from in, which holds size bytes.
	open(in codec.InStream, size int64) ([]item, error)
	// walk visits the wanted items in archive order. visit receives the item
	// content, or nil for folders, or the error preventing it from being read.
	walk(want func(int) bool, visit func(i int, r io.Reader, err error) error) error
}

var readers = map[byte]func(password string) reader{
	ZipID:      func(string) reader { return &zipReader{} },
	SevenZipID: func(pw string) reader { return &sevenZipReader{password: pw} },
	RarID:      func(pw string) reader { return &rarReader{password: pw} },
	Rar5ID:     func(pw string) reader { return &rarReader{password: pw} },
	TarID:      func(string) reader { return &tarReader{} },
	GzipID:     func(string) reader { return newStreamReader(gzipStream) },
	Bzip2ID:    func(string) reader { return newStreamReader(bzip2Stream) },
	XzID:       func(string) reader { return newStreamReader(xzStream) },
	ZstdID:     func(string) reader { return newStreamReader(zstdStream) },
	Lz4ID:      func(string) reader { return newStreamReader(lz4Stream) },
}

// Option configures a Library.
type Option func(*Library)

// WithPassword decrypts encrypted 7z and rar archives with password.
func WithPassword(password string) Option {
	return func(l *Library) { l.password = password }
}

// Library is the pure Go codec.Library.
type Library struct {
	password string

	mu     sync.Mutex
	open   int
	closed bool
}

var _ codec.Library = &Library{}

// New returns a ready Library.
func New(opts ...Option) *Library {
	l := &Library{}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Keys returns the handler keys the library can decode.
func (l *Library) Keys() []codec.Key {
	ids := make([]byte, 0, len(readers))
	for id := range readers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	keys := make([]codec.Key, len(ids))
	for i, id := range ids {
		keys[i] = codec.HandlerKey(id)
	}
	return keys
}

// CreateDecoder implements codec.Library.
func (l *Library) CreateDecoder(key codec.Key) (codec.Decoder, error) {
	id, ok := key.HandlerID()
	if !ok {
		return nil, errors.Wrapf(codec.ErrUnsupportedFormat, "%s is not a handler key", key)
	}
	newReader, ok := readers[id]
	if !ok {
		return nil, errors.Wrapf(codec.ErrUnsupportedFormat, "no built-in handler %#02x", id)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("library closed")
	}
	l.open++
	return &decoder{lib: l, r: newReader(l.password)}, nil
}

func (l *Library) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open--
}

// Close implements codec.Library. It fails with codec.ErrLibraryBusy while
// decoders are open.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open > 0 {
		return errors.Wrapf(codec.ErrLibraryBusy, "%d decoders open", l.open)
	}
	l.closed = true
	return nil
}

// item is the metadata of one archive member.
type item struct {
	path      string
	dir       bool
	size      uint64
	hasSize   bool
	packed    uint64
	hasPacked bool
	created   time.Time
	accessed  time.Time
	modified  time.Time
	attrib    uint32
	hasAttrib bool
	crc       uint32
	hasCRC    bool
	encrypted bool
	method    string
	hostOS    string
	comment   string
}

func timeValue(t time.Time) codec.Value {
	if t.IsZero() {
		return codec.Empty()
	}
	return codec.TimeValue(t)
}

func stringValue(s string) codec.Value {
	if s == "" {
		return codec.Empty()
	}
	return codec.StringValue(s)
}

func (it *item) property(id codec.PropID) codec.Value {
	switch id {
	case codec.PropPath:
		return stringValue(it.path)
	case codec.PropIsDir:
		return codec.BoolValue(it.dir)
	case codec.PropSize:
		if it.hasSize {
			return codec.Uint64Value(it.size)
		}
	case codec.PropPackSize:
		if it.hasPacked {
			return codec.Uint64Value(it.packed)
		}
	case codec.PropCTime:
		return timeValue(it.created)
	case codec.PropATime:
		return timeValue(it.accessed)
	case codec.PropMTime:
		return timeValue(it.modified)
	case codec.PropAttrib:
		if it.hasAttrib {
			return codec.Uint32Value(it.attrib)
		}
	case codec.PropCRC:
		if it.hasCRC {
			return codec.Uint32Value(it.crc)
		}
	case codec.PropEncrypted:
		return codec.BoolValue(it.encrypted)
	case codec.PropMethod:
		return stringValue(it.method)
	case codec.PropHostOS:
		return stringValue(it.hostOS)
	case codec.PropComment:
		return stringValue(it.comment)
	}
	return codec.Empty()
}

// decoder drives one reader through the codec.Decoder contract.
type decoder struct {
	lib    *Library
	r      reader
	items  []item
	opened bool
	closed bool
}

var _ codec.Decoder = &decoder{}

var errClosed = errors.New("decoder closed")

// Open parses the archive index. Readers locate their own headers, so the
// scan window is not used.
func (d *decoder) Open(in codec.InStream, _ uint64) error {
	if d.closed {
		return errClosed
	}
	size, err := in.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "sizing archive")
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewinding archive")
	}
	if size == 0 {
		return codec.ErrNotArchive
	}
	items, err := d.r.open(in, size)
	if err != nil {
		return errors.Wrapf(codec.ErrNotArchive, "%v", err)
	}
	d.items, d.opened = items, true
	return nil
}

func (d *decoder) Count() (uint32, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.opened {
		return 0, errors.New("decoder not opened")
	}
	return uint32(len(d.items)), nil
}

func (d *decoder) Property(index uint32, id codec.PropID) (codec.Value, error) {
	if d.closed {
		return codec.Value{}, errClosed
	}
	if int(index) >= len(d.items) {
		return codec.Value{}, errors.Errorf("item %d of %d", index, len(d.items))
	}
	return d.items[index].property(id), nil
}

// callbackError marks errors raised by the extraction callback, which abort
// the whole operation instead of failing one item.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }
func (e callbackError) Unwrap() error { return e.err }

// trackingWriter records the first write error so it can be told apart from
// a read error surfacing from the same io.Copy.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

func (d *decoder) Extract(indices []uint32, cb codec.ExtractCallback) error {
	if d.closed {
		return errClosed
	}
	if !d.opened {
		return errors.New("decoder not opened")
	}
	wanted := make([]bool, len(d.items))
	if indices == nil {
		for i := range wanted {
			wanted[i] = true
		}
	}
	for _, idx := range indices {
		if int(idx) >= len(d.items) {
			return errors.Errorf("item %d of %d", idx, len(d.items))
		}
		wanted[idx] = true
	}
	var total, completed uint64
	for i, w := range wanted {
		if w {
			total += d.items[i].size
		}
	}
	cb.SetTotal(total)

	visited := make([]bool, len(d.items))
	report := func(i int, result codec.OpResult, copyItem func(io.Writer) (uint64, codec.OpResult, error)) error {
		visited[i] = true
		w, err := cb.Stream(uint32(i), codec.AskExtract)
		if err != nil {
			return callbackError{err}
		}
		if err := cb.Prepare(codec.AskExtract); err != nil {
			return callbackError{err}
		}
		if copyItem != nil {
			n, res, err := copyItem(w)
			if err != nil {
				return callbackError{err}
			}
			completed += n
			result = res
		}
		if err := cb.SetCompleted(completed); err != nil {
			return callbackError{err}
		}
		if err := cb.SetResult(result); err != nil {
			return callbackError{err}
		}
		return nil
	}

	err := d.r.walk(func(i int) bool { return wanted[i] }, func(i int, r io.Reader, rerr error) error {
		if rerr != nil {
			return report(i, resultOf(rerr), nil)
		}
		if r == nil {
			return report(i, codec.OpOK, nil)
		}
		return report(i, codec.OpOK, func(w io.Writer) (uint64, codec.OpResult, error) {
			return copyItem(w, r, &d.items[i])
		})
	})
	var cerr callbackError
	if errors.As(err, &cerr) {
		return cerr.err
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	// Items the reader never reached fail with the reason it stopped.
	for i := range wanted {
		if wanted[i] && !visited[i] {
			if err := report(i, resultOf(err), nil); err != nil {
				return err.(callbackError).err
			}
		}
	}
	return nil
}

// copyItem streams r into w, or discards it when w is nil, and checks the
// result against the recorded CRC.
func copyItem(w io.Writer, r io.Reader, it *item) (uint64, codec.OpResult, error) {
	if w == nil {
		w = io.Discard
	}
	tw := &trackingWriter{w: w}
	h := crc32.NewIEEE()
	n, err := io.Copy(io.MultiWriter(tw, h), r)
	if tw.err != nil {
		return uint64(n), codec.OpOK, tw.err
	}
	if err != nil {
		return uint64(n), resultOf(err), nil
	}
	if it.hasCRC && h.Sum32() != it.crc {
		return uint64(n), codec.OpCRCError, nil
	}
	return uint64(n), codec.OpOK, nil
}

// errUnsupported marks items a reader recognizes but cannot decode.
var errUnsupported = errors.New("unsupported method")

// resultOf classifies a read failure the way the native backend reports it.
func resultOf(err error) codec.OpResult {
	if err == nil {
		return codec.OpOK
	}
	var rerr *sevenzip.ReadError
	msg := err.Error()
	switch {
	case errors.Is(err, errUnsupported):
		return codec.OpUnsupportedMethod
	case errors.As(err, &rerr) && rerr.Encrypted:
		return codec.OpWrongPassword
	case errors.Is(err, zip.ErrChecksum), strings.Contains(msg, "checksum"):
		return codec.OpCRCError
	case errors.Is(err, zip.ErrAlgorithm), strings.Contains(msg, "unsupported compression"),
		strings.Contains(msg, "unsupported decoder"), strings.Contains(msg, "unknown decoder"):
		return codec.OpUnsupportedMethod
	case strings.Contains(msg, "password"):
		return codec.OpWrongPassword
	case errors.Is(err, io.ErrUnexpectedEOF), strings.Contains(msg, "unexpected end"),
		strings.Contains(msg, "too short"):
		return codec.OpUnexpectedEnd
	case strings.Contains(msg, "header"):
		return codec.OpHeadersError
	}
	return codec.OpDataError
}

func (d *decoder) Close() error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	d.items = nil
	d.lib.release()
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
