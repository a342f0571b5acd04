// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package native

import (
	"time"
	"unicode/utf16"
	"unsafe"

	"github.com/files-community/Files-sub019/pkg/codec"
)

// Variant type tags of the PROPVARIANT values archive handlers return.
const (
	vtEmpty    = 0
	vtI4       = 3
	vtBSTR     = 8
	vtBool     = 11
	vtUI1      = 17
	vtUI2      = 18
	vtUI4      = 19
	vtI8       = 20
	vtUI8      = 21
	vtFiletime = 64
)

// propVariant mirrors the 24 byte PROPVARIANT of 64-bit targets.
type propVariant struct {
	vt  uint16
	_   [3]uint16
	val uint64
	_   uint64
}

// filetimeEpoch is 1970-01-01 in 100ns ticks since 1601-01-01.
const filetimeEpoch = 116444736000000000

// filetime converts a FILETIME to UTC. Zero means unset.
func filetime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	d := int64(ft - filetimeEpoch)
	return time.Unix(d/1e7, d%1e7*100).UTC()
}

// bstrString decodes the BSTR at p. The length prefix four bytes before p
// counts bytes; characters are wchar bytes wide.
func bstrString(p uintptr, wchar int) string {
	if p == 0 {
		return ""
	}
	n := int(*(*uint32)(unsafe.Pointer(p - 4))) / wchar
	if wchar == 2 {
		return string(utf16.Decode(unsafe.Slice((*uint16)(unsafe.Pointer(p)), n)))
	}
	return string(unsafe.Slice((*rune)(unsafe.Pointer(p)), n))
}

// value converts pv into a codec.Value. It does not free pv.
func (pv *propVariant) value(wchar int) codec.Value {
	switch pv.vt {
	case vtBool:
		return codec.BoolValue(int16(pv.val) != 0)
	case vtUI1:
		return codec.Uint32Value(uint32(uint8(pv.val)))
	case vtUI2:
		return codec.Uint32Value(uint32(uint16(pv.val)))
	case vtUI4:
		return codec.Uint32Value(uint32(pv.val))
	case vtI4:
		if n := int32(pv.val); n >= 0 {
			return codec.Uint32Value(uint32(n))
		}
	case vtUI8:
		return codec.Uint64Value(pv.val)
	case vtI8:
		if n := int64(pv.val); n >= 0 {
			return codec.Uint64Value(uint64(n))
		}
	case vtBSTR:
		return codec.StringValue(bstrString(uintptr(pv.val), wchar))
	case vtFiletime:
		return codec.TimeValue(filetime(pv.val))
	}
	return codec.Empty()
}
