// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ContentSummary lists the files of an archive alongside their SHA-256
// digests, sorted by path.
type ContentSummary struct {
	Files      []string
	FileHashes []string
}

// Summarize extracts every file entry of r into a digest. Folder entries are
// left out. Any entry failure fails the summary.
func Summarize(ctx context.Context, r *Reader) (*ContentSummary, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	hashes := make([]hash.Hash, len(entries))
	ws := make([]io.Writer, len(entries))
	for i, e := range entries {
		if e.IsFolder {
			continue
		}
		hashes[i] = sha256.New()
		ws[i] = hashes[i]
	}
	res, err := r.ExtractToStreams(ctx, ws)
	if err != nil {
		return nil, errors.Wrap(err, "digesting entries")
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	type file struct{ name, digest string }
	var files []file
	for i, e := range entries {
		if hashes[i] == nil {
			continue
		}
		name := strings.ReplaceAll(e.Path, `\`, "/")
		files = append(files, file{name, hex.EncodeToString(hashes[i].Sum(nil))})
	}
	slices.SortStableFunc(files, func(a, b file) int { return strings.Compare(a.name, b.name) })
	cs := &ContentSummary{Files: make([]string, 0, len(files)), FileHashes: make([]string, 0, len(files))}
	for _, f := range files {
		cs.Files = append(cs.Files, f.name)
		cs.FileHashes = append(cs.FileHashes, f.digest)
	}
	return cs, nil
}

// Diff returns the files only in cs, the files in both whose digests differ,
// and the files only in other.
func (cs *ContentSummary) Diff(other *ContentSummary) (leftOnly, diffs, rightOnly []string) {
	left, right := cs, other
	var i, j int
	for i < len(left.Files) || j < len(right.Files) {
		switch {
		case i >= len(left.Files):
			rightOnly = append(rightOnly, right.Files[j])
			j++
		case j >= len(right.Files):
			leftOnly = append(leftOnly, left.Files[i])
			i++
		case left.Files[i] == right.Files[j]:
			if left.FileHashes[i] != right.FileHashes[j] {
				diffs = append(diffs, right.Files[j])
			}
			i++
			j++
		case left.Files[i] < right.Files[j]:
			leftOnly = append(leftOnly, left.Files[i])
			i++
		default:
			rightOnly = append(rightOnly, right.Files[j])
			j++
		}
	}
	return
}
