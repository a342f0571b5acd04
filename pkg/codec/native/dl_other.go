// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build !((linux || darwin || freebsd || windows) && (amd64 || arm64))

package native

import (
	"runtime"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

var errPlatform = errors.Errorf("native codecs are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)

func loadModule(string) (uintptr, error) { return 0, errPlatform }
func lookupSymbol(uintptr, string) (uintptr, error) { return 0, errPlatform }
func freeModule(uintptr) error { return nil }
func (*Library) newDecoder(codec.Key) (codec.Decoder, error) {
	return nil, errors.Wrap(codec.ErrUnsupportedFormat, errPlatform.Error())
}
