// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/pkg/errors"
)

// Handle owns a Decoder and guarantees it is released exactly once.
//
// Every operation after Close fails with ErrDisposed. Handle does no locking;
// like the Decoder it wraps, it must be confined to one goroutine at a time.
type Handle struct {
	dec      Decoder
	released bool
}

// NewHandle takes ownership of dec.
func NewHandle(dec Decoder) *Handle {
	return &Handle{dec: dec}
}

// CreateHandle asks lib for a decoder for key and wraps it in a Handle.
func CreateHandle(lib Library, key Key) (*Handle, error) {
	if lib == nil {
		return nil, errors.Wrap(ErrLibraryNotFound, "no library provided")
	}
	dec, err := lib.CreateDecoder(key)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrUnsupportedFormat, "creating decoder %s: %v", key, err)
	}
	if dec == nil {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "creating decoder %s", key)
	}
	return NewHandle(dec), nil
}

// Released reports whether Close has been called.
func (h *Handle) Released() bool {
	return h == nil || h.released
}

func (h *Handle) live() (Decoder, error) {
	if h.Released() {
		return nil, ErrDisposed
	}
	return h.dec, nil
}

// Open opens the archive on in.
func (h *Handle) Open(in InStream, scanWindow uint64) error {
	dec, err := h.live()
	if err != nil {
		return err
	}
	return dec.Open(in, scanWindow)
}

// Count returns the number of items.
func (h *Handle) Count() (uint32, error) {
	dec, err := h.live()
	if err != nil {
		return 0, err
	}
	return dec.Count()
}

// Property returns one item property.
func (h *Handle) Property(index uint32, id PropID) (Value, error) {
	dec, err := h.live()
	if err != nil {
		return Value{}, err
	}
	return dec.Property(index, id)
}

// Extract decodes the given items, or all items for nil indices.
func (h *Handle) Extract(indices []uint32, cb ExtractCallback) error {
	dec, err := h.live()
	if err != nil {
		return err
	}
	return dec.Extract(indices, cb)
}

// Close releases the decoder. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.Released() {
		return nil
	}
	h.released = true
	dec := h.dec
	h.dec = nil
	return dec.Close()
}
