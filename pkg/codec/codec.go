// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package codec defines the contract between the archive reader and a
// decoding backend.
//
// A backend is exposed as a Library that creates one Decoder per opened
// archive. Decoders are driven entirely through the InStream they are opened
// on and the ExtractCallback they are handed on extraction; the archive bytes
// never cross this boundary in any other form.
package codec

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrLibraryNotFound is returned when no backend library could be located.
	ErrLibraryNotFound = errors.New("codec library not found")
	// ErrLibraryInvalid is returned when a located library cannot serve as a backend.
	ErrLibraryInvalid = errors.New("codec library invalid")
	// ErrLibraryBusy is returned when closing a library that still has open decoders.
	ErrLibraryBusy = errors.New("codec library has open decoders")
	// ErrUnsupportedFormat is returned when a library refuses to create a decoder for a key.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNotArchive is returned by Decoder.Open when the stream is not recognized.
	ErrNotArchive = errors.New("not an archive")
	// ErrDisposed is returned by any operation on a released decoder handle.
	ErrDisposed = errors.New("decoder handle disposed")
	// ErrAborted is returned from callbacks to request the backend stop.
	ErrAborted = errors.New("operation aborted")
)

// DefaultScanWindow is how far into a stream a backend may probe for an
// archive header, e.g. to skip a self-extractor stub.
const DefaultScanWindow = 32 << 10

// Library creates decoders for archive formats.
// A Library must outlive every Decoder it created.
type Library interface {
	CreateDecoder(key Key) (Decoder, error)
	Close() error
}

// InStream is the archive source handed to a decoder.
type InStream interface {
	io.Reader
	io.Seeker
}

// Resizer is implemented by output streams that accept preallocation.
type Resizer interface {
	SetSize(size int64) error
}

// Decoder is one opened archive inside a backend.
//
// Implementations need not be safe for concurrent use. Callers serialize
// all operations against a single Decoder.
type Decoder interface {
	// Open parses the archive headers from in, probing at most scanWindow
	// bytes for the start of the archive.
	Open(in InStream, scanWindow uint64) error
	// Count returns the number of items in the opened archive.
	Count() (uint32, error)
	// Property returns one metadata value of one item.
	// Properties the backend does not provide are returned as an empty Value.
	Property(index uint32, id PropID) (Value, error)
	// Extract decodes the items named by indices, or every item when indices
	// is nil, driving cb for each one in archive order.
	Extract(indices []uint32, cb ExtractCallback) error
	// Close releases the decoder and any reference it holds on its InStream.
	Close() error
}

// AskMode describes what the backend intends to do with an item.
type AskMode int32

const (
	AskExtract AskMode = iota
	AskTest
	AskSkip
)

func (m AskMode) String() string {
	switch m {
	case AskExtract:
		return "extract"
	case AskTest:
		return "test"
	case AskSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// OpResult is the per-item outcome reported by a backend after extraction.
type OpResult int32

const (
	OpOK OpResult = iota
	OpUnsupportedMethod
	OpDataError
	OpCRCError
	OpUnavailable
	OpUnexpectedEnd
	OpDataAfterEnd
	OpIsNotArc
	OpHeadersError
	OpWrongPassword
)

var opResultNames = [...]string{
	OpOK:                "ok",
	OpUnsupportedMethod: "unsupported method",
	OpDataError:         "data error",
	OpCRCError:          "crc error",
	OpUnavailable:       "unavailable data",
	OpUnexpectedEnd:     "unexpected end of data",
	OpDataAfterEnd:      "data after end",
	OpIsNotArc:          "not an archive",
	OpHeadersError:      "headers error",
	OpWrongPassword:     "wrong password",
}

func (r OpResult) String() string {
	if r >= 0 && int(r) < len(opResultNames) {
		return opResultNames[r]
	}
	return "unknown result"
}

// ExtractCallback receives the backend's requests during Decoder.Extract.
//
// For every item the backend calls Stream, then Prepare, then writes to the
// returned writer (if any), then SetResult. A non-nil error from any method
// aborts the whole extraction.
type ExtractCallback interface {
	SetTotal(total uint64)
	SetCompleted(completed uint64) error
	// Stream returns the destination of item index, or nil to discard it.
	Stream(index uint32, mode AskMode) (io.Writer, error)
	Prepare(mode AskMode) error
	SetResult(result OpResult) error
}
