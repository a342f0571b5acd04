// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/files-community/Files-sub019/pkg/codec"
	billy "github.com/go-git/go-billy/v5"
)

// Entry is one item of an archive as reported by the backend.
//
// Entries are snapshots taken when the reader first enumerates the archive.
// Timestamps the backend does not report are the zero time.
type Entry struct {
	// Index is the position of the entry in backend order and the only key
	// used to address it during extraction.
	Index int
	// Path may contain either '/' or '\' separators, as stored in the archive.
	Path        string
	IsFolder    bool
	Size        uint64
	PackedSize  uint64
	Created     time.Time
	Modified    time.Time
	Accessed    time.Time
	CRC         uint32
	HasCRC      bool
	Attributes  uint32
	Encrypted   bool
	SplitBefore bool
	SplitAfter  bool
	Comment     string
	Method      string
	HostOS      string

	reader *Reader
}

// Name returns the last element of the entry path.
func (e *Entry) Name() string {
	p := strings.TrimRight(strings.ReplaceAll(e.Path, `\`, "/"), "/")
	return path.Base(p)
}

// Extract writes the content of the entry to w. The writer is not closed.
// A failure reported by the backend is returned as an *EntryError.
func (e *Entry) Extract(ctx context.Context, w io.Writer) error {
	return e.reader.extractOne(ctx, e, Writer(w))
}

// ExtractFile writes the entry to name on fs, creating parent folders as
// needed. Folder entries create the folder itself.
func (e *Entry) ExtractFile(ctx context.Context, fs billy.Filesystem, name string) error {
	if e.IsFolder {
		return e.reader.extractOne(ctx, e, folderSink(fs, name))
	}
	return e.reader.extractOne(ctx, e, fileSink(fs, name))
}

// readEntry pulls the metadata of item i. Every property is read on its
// own; a property the backend fails to provide takes its type's default.
func (r *Reader) readEntry(i uint32) *Entry {
	prop := func(id codec.PropID) codec.Value {
		v, err := r.handle.Property(i, id)
		if err != nil {
			return codec.Empty()
		}
		return v
	}
	e := &Entry{
		Index:       int(i),
		Path:        prop(codec.PropPath).AsString(),
		IsFolder:    prop(codec.PropIsDir).AsBool(),
		Size:        prop(codec.PropSize).AsUint64(),
		PackedSize:  prop(codec.PropPackSize).AsUint64(),
		Created:     prop(codec.PropCTime).AsTime(),
		Modified:    prop(codec.PropMTime).AsTime(),
		Accessed:    prop(codec.PropATime).AsTime(),
		Attributes:  prop(codec.PropAttrib).AsUint32(),
		Encrypted:   prop(codec.PropEncrypted).AsBool(),
		SplitBefore: prop(codec.PropSplitBefore).AsBool(),
		SplitAfter:  prop(codec.PropSplitAfter).AsBool(),
		Comment:     prop(codec.PropComment).AsString(),
		Method:      prop(codec.PropMethod).AsString(),
		HostOS:      prop(codec.PropHostOS).AsString(),
		reader:      r,
	}
	if e.Path == "" {
		e.Path = prop(codec.PropName).AsString()
	}
	if crc := prop(codec.PropCRC); !crc.IsEmpty() {
		e.CRC, e.HasCRC = crc.AsUint32(), true
	}
	if strings.HasSuffix(e.Path, "/") || strings.HasSuffix(e.Path, `\`) {
		e.IsFolder = true
	}
	return e
}
