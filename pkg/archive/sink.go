// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

type sinkKind int

const (
	sinkSkip sinkKind = iota
	sinkFolder
	sinkStream
)

// Sink is the destination chosen for one entry before extraction begins.
type Sink struct {
	kind  sinkKind
	mkdir func() error
	open  func() (io.Writer, io.Closer, error)
}

// SinkResolver chooses the sink of each entry.
type SinkResolver func(*Entry) Sink

// Skip discards the entry.
func Skip() Sink {
	return Sink{kind: sinkSkip}
}

// Folder creates a folder for the entry when sinks are resolved.
func Folder(create func() error) Sink {
	return Sink{kind: sinkFolder, mkdir: create}
}

// Stream writes the entry to the writer returned by open, which is called
// before extraction starts and closed once the entry is complete.
func Stream(open func() (io.WriteCloser, error)) Sink {
	return Sink{kind: sinkStream, open: func() (io.Writer, io.Closer, error) {
		w, err := open()
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}}
}

// Writer writes the entry to w, which stays owned by the caller.
func Writer(w io.Writer) Sink {
	return Sink{kind: sinkStream, open: func() (io.Writer, io.Closer, error) {
		return w, nil, nil
	}}
}

func failedSink(err error) Sink {
	return Sink{kind: sinkStream, open: func() (io.Writer, io.Closer, error) {
		return nil, nil, err
	}}
}

// ErrUnsafePath is returned when an entry path would land outside the
// extraction folder.
var ErrUnsafePath = errors.New("entry path escapes destination")

// localPath converts an archive path into a relative OS path. Leading
// separators and drive letters are dropped; ".." elements are rejected.
func localPath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	if len(p) >= 2 && p[1] == ':' {
		p = p[2:]
	}
	var parts []string
	for _, elem := range strings.Split(p, "/") {
		switch elem {
		case "", ".":
			continue
		case "..":
			return "", errors.Wrapf(ErrUnsafePath, "%q", p)
		}
		parts = append(parts, elem)
	}
	if len(parts) == 0 {
		return "", errors.Wrapf(ErrUnsafePath, "empty path %q", p)
	}
	return filepath.Join(parts...), nil
}

func folderSink(fs billy.Filesystem, name string) Sink {
	return Folder(func() error {
		return fs.MkdirAll(name, 0o755)
	})
}

func fileSink(fs billy.Filesystem, name string) Sink {
	return Stream(func() (io.WriteCloser, error) {
		if dir := filepath.Dir(name); dir != "." && dir != "" {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	})
}

// ToFolder extracts every entry under dir on fs, recreating the archive's
// folder structure.
func ToFolder(fs billy.Filesystem, dir string) SinkResolver {
	return func(e *Entry) Sink {
		rel, err := localPath(e.Path)
		if err != nil {
			return failedSink(err)
		}
		target := fs.Join(dir, rel)
		if e.IsFolder {
			return folderSink(fs, target)
		}
		return fileSink(fs, target)
	}
}

// ToStreams writes entry i to ws[i]. Nil writers skip their entry.
// The writers are not closed.
func ToStreams(ws []io.Writer) SinkResolver {
	return func(e *Entry) Sink {
		if e.Index < len(ws) && ws[e.Index] != nil {
			return Writer(ws[e.Index])
		}
		return Skip()
	}
}
