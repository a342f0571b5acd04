// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package command holds the pieces the unpack subcommands share: backend
// selection flags and archive opening.
package command

import (
	"flag"
	"io"
	"log"

	"github.com/files-community/Files-sub019/internal/settings"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// Backend selects and configures the codec library. Flags override the
// configuration file.
type Backend struct {
	ConfigPath  string
	Backend     string
	LibraryPath string
	BaseDir     string
	Format      string
}

// RegisterFlags adds the backend flags to set.
func (b *Backend) RegisterFlags(set *flag.FlagSet) {
	set.StringVar(&b.ConfigPath, "config", "", "a YAML or TOML settings file")
	set.StringVar(&b.Backend, "backend", "", "the codec backend (auto|native|builtin)")
	set.StringVar(&b.LibraryPath, "library", "", "the path of the 7-Zip library (7z.dll or 7z.so)")
	set.StringVar(&b.BaseDir, "base-dir", "", "the directory searched first for the 7-Zip library")
	set.StringVar(&b.Format, "format", "", "the archive format, skipping detection")
}

// Validate checks the flag values that can be checked without IO.
func (b Backend) Validate() error {
	if b.Format != "" {
		if _, err := archive.ParseFormat(b.Format); err != nil {
			return err
		}
	}
	switch settings.Backend(b.Backend) {
	case "", settings.Auto, settings.Native, settings.Builtin:
	default:
		return errors.Errorf("invalid backend: %s. Expected one of 'auto', 'native', or 'builtin'", b.Backend)
	}
	return nil
}

// Settings loads the configuration file, if any, and applies the flags.
func (b Backend) Settings() (settings.Settings, error) {
	s := settings.Default()
	if b.ConfigPath != "" {
		var err error
		if s, err = settings.Load(b.ConfigPath); err != nil {
			return s, err
		}
	}
	if b.Backend != "" {
		s.Backend = settings.Backend(b.Backend)
	}
	if b.LibraryPath != "" {
		s.LibraryPath = b.LibraryPath
		if b.Backend == "" {
			s.Backend = settings.Native
		}
	}
	if b.BaseDir != "" {
		s.BaseDir = b.BaseDir
	}
	return s, s.Validate()
}

// Archive is an open archive and the library behind it.
type Archive struct {
	*archive.Reader
	lib codec.Library
}

// Close closes the reader, then the library.
func (a *Archive) Close() error {
	rerr := a.Reader.Close()
	lerr := a.lib.Close()
	if rerr != nil {
		return rerr
	}
	return lerr
}

// Open opens the archive at path with the configured backend. Extra reader
// options are applied last.
func (b Backend) Open(path string, logger *log.Logger, extra ...archive.Option) (*Archive, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s, err := b.Settings()
	if err != nil {
		return nil, err
	}
	lib, err := s.Library(logger)
	if err != nil {
		return nil, errors.Wrap(err, "loading codec library")
	}
	opts := append(s.ReaderOptions(), archive.WithLogger(logger))
	if b.Format != "" {
		f, err := archive.ParseFormat(b.Format)
		if err != nil {
			lib.Close()
			return nil, err
		}
		opts = append(opts, archive.WithFormat(f))
	}
	r, err := archive.Open(lib, path, append(opts, extra...)...)
	if err != nil {
		lib.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return &Archive{Reader: r, lib: lib}, nil
}
