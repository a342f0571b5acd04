// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin || freebsd) && (amd64 || arm64)

package native

import (
	"sync"

	"github.com/ebitengine/purego"
)

// The Itanium C++ ABI puts two destructor entries after Release in the
// vtable of IUnknown, which the library declares with a virtual destructor.
const destructorSlots = 2

// wchar_t is UTF-32 outside Windows.
const wcharSize = 4

func loadModule(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func lookupSymbol(h uintptr, name string) (uintptr, error) {
	return purego.Dlsym(h, name)
}

func freeModule(h uintptr) error {
	return purego.Dlclose(h)
}

var libcFree = sync.OnceValue(func() uintptr {
	fn, err := purego.Dlsym(purego.RTLD_DEFAULT, "free")
	if err != nil {
		return 0
	}
	return fn
})

// freeBSTR releases a string the library allocated with malloc, length
// prefix included.
func freeBSTR(p uintptr) {
	if fn := libcFree(); fn != 0 {
		purego.SyscallN(fn, p-4)
	}
}
