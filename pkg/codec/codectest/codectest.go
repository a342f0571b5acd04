// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package codectest provides an in-memory codec backend for tests.
package codectest

import (
	"hash/crc32"
	"io"
	"time"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// Item is one entry reported by a stub decoder.
type Item struct {
	Path     string
	Dir      bool
	Data     []byte
	Modified time.Time
	// Props overrides or adds properties. A property mapped to an empty
	// Value is reported as absent.
	Props map[codec.PropID]codec.Value
	// Result is reported after the item is extracted. Failing items have
	// only the first half of Data written.
	Result codec.OpResult
}

// Calls counts the operations issued against decoders of a Library.
type Calls struct {
	Create   int
	Open     int
	Count    int
	Property int
	Extract  int
	Close    int
	// Streams records every index requested through ExtractCallback.Stream.
	Streams []uint32
}

// Library is a codec.Library serving fixed item lists.
type Library struct {
	// Formats maps each supported key to the items its decoders report.
	Formats map[codec.Key][]Item
	// Magic, when set, must prefix the source stream for Open to succeed.
	Magic []byte
	// Chunk bounds the size of each write into a sink. Zero writes whole items.
	Chunk int
	// Async drives extraction callbacks from a separate goroutine.
	Async bool
	// ExtractErr, when set, is returned by Extract after all items are driven.
	ExtractErr error
	// OnClose, when set, runs each time a decoder is closed.
	OnClose func()

	Calls    Calls
	decoders []*Decoder
	closed   bool
}

var _ codec.Library = &Library{}

// New returns a Library serving items under key.
func New(key codec.Key, items ...Item) *Library {
	return &Library{Formats: map[codec.Key][]Item{key: items}}
}

// CreateDecoder implements codec.Library.
func (l *Library) CreateDecoder(key codec.Key) (codec.Decoder, error) {
	if l.closed {
		return nil, errors.New("library closed")
	}
	items, ok := l.Formats[key]
	if !ok {
		return nil, errors.Wrapf(codec.ErrUnsupportedFormat, "key %s", key)
	}
	l.Calls.Create++
	d := &Decoder{lib: l, items: items}
	l.decoders = append(l.decoders, d)
	return d, nil
}

// Open reports how many created decoders have not been closed.
func (l *Library) Open() int {
	var n int
	for _, d := range l.decoders {
		if !d.closed {
			n++
		}
	}
	return n
}

// Close implements codec.Library.
func (l *Library) Close() error {
	if l.closed {
		return nil
	}
	if l.Open() > 0 {
		return codec.ErrLibraryBusy
	}
	l.closed = true
	return nil
}

// Decoder is a codec.Decoder created by Library.
type Decoder struct {
	lib    *Library
	items  []Item
	in     codec.InStream
	opened bool
	closed bool
}

var _ codec.Decoder = &Decoder{}

func (d *Decoder) check() error {
	if d.closed {
		return errors.New("stub decoder used after close")
	}
	return nil
}

// Open implements codec.Decoder.
func (d *Decoder) Open(in codec.InStream, scanWindow uint64) error {
	if err := d.check(); err != nil {
		return err
	}
	d.lib.Calls.Open++
	want := len(d.lib.Magic)
	if want == 0 {
		want = 1
	}
	head := make([]byte, want)
	n, err := io.ReadFull(in, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	if n < want || (len(d.lib.Magic) > 0 && string(head) != string(d.lib.Magic)) {
		return codec.ErrNotArchive
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	d.in = in
	d.opened = true
	return nil
}

// Count implements codec.Decoder.
func (d *Decoder) Count() (uint32, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	d.lib.Calls.Count++
	if !d.opened {
		return 0, errors.New("stub decoder not opened")
	}
	return uint32(len(d.items)), nil
}

// Property implements codec.Decoder.
func (d *Decoder) Property(index uint32, id codec.PropID) (codec.Value, error) {
	if err := d.check(); err != nil {
		return codec.Value{}, err
	}
	d.lib.Calls.Property++
	if int(index) >= len(d.items) {
		return codec.Value{}, errors.Errorf("index %d out of range", index)
	}
	it := d.items[index]
	if v, ok := it.Props[id]; ok {
		return v, nil
	}
	switch id {
	case codec.PropPath:
		return codec.StringValue(it.Path), nil
	case codec.PropIsDir:
		return codec.BoolValue(it.Dir), nil
	case codec.PropSize:
		return codec.Uint64Value(uint64(len(it.Data))), nil
	case codec.PropPackSize:
		return codec.Uint64Value(uint64(len(it.Data))), nil
	case codec.PropCRC:
		if it.Dir {
			return codec.Empty(), nil
		}
		return codec.Uint32Value(crc32.ChecksumIEEE(it.Data)), nil
	case codec.PropMTime:
		if it.Modified.IsZero() {
			return codec.Empty(), nil
		}
		return codec.TimeValue(it.Modified), nil
	case codec.PropEncrypted:
		return codec.BoolValue(false), nil
	case codec.PropMethod:
		return codec.StringValue("Stub"), nil
	}
	return codec.Empty(), nil
}

// Extract implements codec.Decoder.
func (d *Decoder) Extract(indices []uint32, cb codec.ExtractCallback) error {
	if err := d.check(); err != nil {
		return err
	}
	d.lib.Calls.Extract++
	if !d.opened {
		return errors.New("stub decoder not opened")
	}
	if indices == nil {
		for i := range d.items {
			indices = append(indices, uint32(i))
		}
	}
	if !d.lib.Async {
		return d.extract(indices, cb)
	}
	done := make(chan error, 1)
	go func() { done <- d.extract(indices, cb) }()
	return <-done
}

func (d *Decoder) extract(indices []uint32, cb codec.ExtractCallback) error {
	var total, completed uint64
	for _, idx := range indices {
		if int(idx) >= len(d.items) {
			return errors.Errorf("index %d out of range", idx)
		}
		total += uint64(len(d.items[idx].Data))
	}
	cb.SetTotal(total)
	for _, idx := range indices {
		it := d.items[idx]
		d.lib.Calls.Streams = append(d.lib.Calls.Streams, idx)
		w, err := cb.Stream(idx, codec.AskExtract)
		if err != nil {
			return err
		}
		if err := cb.Prepare(codec.AskExtract); err != nil {
			return err
		}
		if w != nil && !it.Dir {
			data := it.Data
			if it.Result != codec.OpOK {
				data = data[:len(data)/2]
			}
			if err := d.write(w, data); err != nil {
				return err
			}
		}
		completed += uint64(len(it.Data))
		if err := cb.SetCompleted(completed); err != nil {
			return err
		}
		if err := cb.SetResult(it.Result); err != nil {
			return err
		}
	}
	return d.lib.ExtractErr
}

func (d *Decoder) write(w io.Writer, data []byte) error {
	chunk := d.lib.Chunk
	if chunk <= 0 {
		chunk = len(data)
	}
	for len(data) > 0 {
		n := min(chunk, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Close implements codec.Decoder.
func (d *Decoder) Close() error {
	if d.closed {
		return errors.New("stub decoder closed twice")
	}
	d.lib.Calls.Close++
	d.closed = true
	d.in = nil
	if d.lib.OnClose != nil {
		d.lib.OnClose()
	}
	return nil
}
