// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package native loads a 7-Zip compatible shared library (7z.dll on
// Windows, 7z.so elsewhere) and serves its archive handlers as a
// codec.Library.
//
// The library is reached through its exported CreateObject function and the
// COM-style IInArchive interface. Streams and callbacks handed to the
// library are Go objects exposed through C-callable vtables.
//
// The backend needs a 64-bit amd64 or arm64 process. Archive handlers that
// decode on worker threads call back into Go from threads the runtime did
// not create, which requires a cgo-enabled build on Linux.
package native

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// Option configures Load.
type Option func(*options)

type options struct {
	baseDir    string
	systemDirs []string
	logger     *log.Logger
}

// WithBaseDir sets the directory searched first for the library. It defaults
// to the directory of the running executable.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithSystemDirs replaces the system install locations searched after the
// base directory.
func WithSystemDirs(dirs ...string) Option {
	return func(o *options) { o.systemDirs = dirs }
}

// WithLogger sets the logger used to report the library that was loaded.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Library is a loaded 7-Zip library.
type Library struct {
	path         string
	handle       uintptr
	createObject uintptr

	mu     sync.Mutex
	open   int
	closed bool
}

var _ codec.Library = &Library{}

// Load loads the library at path. When path is empty the library is
// searched for in the base directory, its bin and architecture
// subdirectories, and then the system install locations.
func Load(path string, opts ...Option) (*Library, error) {
	o := options{systemDirs: systemDirs(runtime.GOOS), logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if path == "" {
		base := o.baseDir
		if base == "" {
			base = executableDir()
		}
		paths := candidates(base, libraryName(runtime.GOOS), runtime.GOARCH, o.systemDirs)
		found, ok := locate(paths, isFile)
		if !ok {
			return nil, errors.Wrapf(codec.ErrLibraryNotFound, "searched %s", strings.Join(paths, ", "))
		}
		path = found
	} else if !isFile(path) {
		return nil, errors.Wrapf(codec.ErrLibraryNotFound, "%s", path)
	}
	h, err := loadModule(path)
	if err != nil {
		return nil, errors.Wrapf(codec.ErrLibraryInvalid, "loading %s: %v", path, err)
	}
	sym, err := lookupSymbol(h, "CreateObject")
	if err != nil || sym == 0 {
		freeModule(h)
		return nil, errors.Wrapf(codec.ErrLibraryInvalid, "%s does not export CreateObject", path)
	}
	o.logger.Printf("loaded codec library %s", path)
	return &Library{path: path, handle: h, createObject: sym}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// CreateDecoder implements codec.Library.
func (l *Library) CreateDecoder(key codec.Key) (codec.Decoder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("library closed")
	}
	d, err := l.newDecoder(key)
	if err != nil {
		return nil, err
	}
	l.open++
	return d, nil
}

func (l *Library) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open--
}

// Close unloads the library. It fails with codec.ErrLibraryBusy while
// decoders are open; closing twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	if l.open > 0 {
		return errors.Wrapf(codec.ErrLibraryBusy, "%d decoders open", l.open)
	}
	l.closed = true
	return errors.Wrapf(freeModule(l.handle), "unloading %s", l.path)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
