// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownFormat is returned when no format can be resolved for a source.
	ErrUnknownFormat = errors.New("unknown archive format")
	// ErrCorruptOrUnsupported is returned when the backend cannot open the archive.
	ErrCorruptOrUnsupported = errors.New("corrupt or unsupported archive")
	// ErrEntryExtractionFailed matches every *EntryError.
	ErrEntryExtractionFailed = errors.New("entry extraction failed")
	// ErrHandleDisposed is returned when using a reader or entry after Close.
	ErrHandleDisposed = codec.ErrDisposed
)

// EntryError reports a non-fatal failure extracting one entry.
type EntryError struct {
	Entry  *Entry
	Result codec.OpResult
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("extracting %q (index %d): %s", e.Entry.Path, e.Entry.Index, e.Result)
}

// Is makes errors.Is(err, ErrEntryExtractionFailed) hold for every EntryError.
func (e *EntryError) Is(target error) bool {
	return target == ErrEntryExtractionFailed
}
