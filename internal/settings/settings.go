// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package settings reads the optional unpack configuration file and turns it
// into a codec backend and archive reader options.
package settings

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/files-community/Files-sub019/pkg/codec/builtin"
	"github.com/files-community/Files-sub019/pkg/codec/native"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Backend selects the codec library.
type Backend string

const (
	// Auto uses the native library when one is found and the built-in
	// decoders otherwise.
	Auto    Backend = "auto"
	Native  Backend = "native"
	Builtin Backend = "builtin"
)

// Settings configures how archives are opened.
type Settings struct {
	Backend     Backend `yaml:"backend" toml:"backend"`
	LibraryPath string  `yaml:"library_path" toml:"library_path"`
	BaseDir     string  `yaml:"base_dir" toml:"base_dir"`
	ScanWindow  uint64  `yaml:"scan_window" toml:"scan_window"`
	// SniffExecutables treats PE files as archives. Unset means true.
	SniffExecutables *bool  `yaml:"sniff_executables" toml:"sniff_executables"`
	Password         string `yaml:"password" toml:"password"`
}

// Default returns the settings used without a configuration file.
func Default() Settings {
	return Settings{Backend: Auto, ScanWindow: codec.DefaultScanWindow}
}

// Parse decodes a configuration document. The format, YAML or TOML, is
// chosen by the extension of name. Unknown keys are rejected.
func Parse(name string, data []byte) (Settings, error) {
	s := Default()
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(&s); err != nil && err != io.EOF {
			return s, errors.Wrapf(err, "parsing %s", name)
		}
	case ".toml":
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		if err := d.Decode(&s); err != nil {
			return s, errors.Wrapf(err, "parsing %s", name)
		}
	default:
		return s, errors.Errorf("unsupported settings format %q", ext)
	}
	return s, s.Validate()
}

// Load reads the configuration file at path.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrap(err, "reading settings")
	}
	return Parse(path, data)
}

// Validate checks the field values.
func (s Settings) Validate() error {
	switch s.Backend {
	case Auto, Native, Builtin:
	default:
		return errors.Errorf("unknown backend %q", s.Backend)
	}
	if s.Backend == Builtin && s.LibraryPath != "" {
		return errors.New("library_path requires the native backend")
	}
	return nil
}

// Library opens the configured backend. With Auto, a missing or unusable
// native library falls back to the built-in decoders.
func (s Settings) Library(logger *log.Logger) (codec.Library, error) {
	if logger == nil {
		logger = log.Default()
	}
	if s.Backend == Builtin {
		return builtin.New(builtin.WithPassword(s.Password)), nil
	}
	opts := []native.Option{native.WithLogger(logger)}
	if s.BaseDir != "" {
		opts = append(opts, native.WithBaseDir(s.BaseDir))
	}
	lib, err := native.Load(s.LibraryPath, opts...)
	switch {
	case err == nil:
		return lib, nil
	case s.Backend == Auto && (errors.Is(err, codec.ErrLibraryNotFound) || errors.Is(err, codec.ErrLibraryInvalid)):
		logger.Printf("native codecs unavailable, using built-in decoders: %v", err)
		return builtin.New(builtin.WithPassword(s.Password)), nil
	default:
		return nil, err
	}
}

// ReaderOptions returns the archive reader options the settings imply.
func (s Settings) ReaderOptions() []archive.Option {
	var opts []archive.Option
	if s.ScanWindow != 0 {
		opts = append(opts, archive.WithScanWindow(s.ScanWindow))
	}
	if s.SniffExecutables != nil && !*s.SniffExecutables {
		opts = append(opts, archive.WithCatalog(archive.NewCatalog(archive.WithoutExecutables())))
	}
	return opts
}
