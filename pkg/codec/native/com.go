// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin || freebsd || windows) && (amd64 || arm64)

package native

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/files-community/Files-sub019/pkg/codec"
)

// hresult is a COM status code.
type hresult int32

const (
	sOK          hresult = 0
	sFalse       hresult = 1
	eNotImpl     hresult = -0x7FFFBFFF // 0x80004001
	eNoInterface hresult = -0x7FFFBFFE // 0x80004002
	eAbort       hresult = -0x7FFFBFFC // 0x80004004
	eFail        hresult = -0x7FFFBFFB // 0x80004005
)

func (h hresult) Error() string {
	switch h {
	case eNotImpl:
		return "not implemented"
	case eNoInterface:
		return "no such interface"
	case eAbort:
		return "aborted"
	case eFail:
		return "unspecified failure"
	}
	return fmt.Sprintf("hresult 0x%08X", uint32(h))
}

// ret encodes h as a callback return value.
func (h hresult) ret() uintptr { return uintptr(uint32(h)) }

// iid returns the 7-Zip interface id {23170F69-40C1-278A-0000-000GG0XX0000}.
func iid(group, id byte) codec.Key {
	return codec.NewKey(0x23170F69, 0x40C1, 0x278A, [8]byte{0, 0, 0, group, 0, id, 0, 0})
}

var (
	iidUnknown                = codec.NewKey(0, 0, 0, [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46})
	iidSequentialInStream     = iid(3, 0x01)
	iidSequentialOutStream    = iid(3, 0x02)
	iidInStream               = iid(3, 0x03)
	iidOutStream              = iid(3, 0x04)
	iidProgress               = iid(0, 0x05)
	iidArchiveOpenCallback    = iid(6, 0x10)
	iidArchiveExtractCallback = iid(6, 0x20)
	iidInArchive              = iid(6, 0x60)
)

// IUnknown slots. Methods of derived interfaces follow the destructor
// slots that non-Windows builds of the library place after Release.
const (
	methodQueryInterface = 0
	methodAddRef         = 1
	methodRelease        = 2
)

func method(n int) int { return 3 + destructorSlots + n }

// IInArchive methods.
var (
	methodOpen             = method(0)
	methodClose            = method(1)
	methodGetNumberOfItems = method(2)
	methodGetProperty      = method(3)
	methodExtract          = method(4)
)

// invoke calls method n of the interface at obj.
//
//go:uintptrescapes
func invoke(obj uintptr, n int, args ...uintptr) hresult {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(n)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := purego.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return hresult(int32(uint32(r)))
}

func release(obj uintptr) {
	invoke(obj, methodRelease)
}

func store32(p uintptr, v uint32) {
	if p != 0 {
		*(*uint32)(unsafe.Pointer(p)) = v
	}
}

func store64(p uintptr, v uint64) {
	if p != 0 {
		*(*uint64)(unsafe.Pointer(p)) = v
	}
}

func storePtr(p uintptr, v uintptr) {
	if p != 0 {
		*(*uintptr)(unsafe.Pointer(p)) = v
	}
}

func load64(p uintptr) (uint64, bool) {
	if p == 0 {
		return 0, false
	}
	return *(*uint64)(unsafe.Pointer(p)), true
}
