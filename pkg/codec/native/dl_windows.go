// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build windows && (amd64 || arm64)

package native

import (
	"golang.org/x/sys/windows"
)

const destructorSlots = 0

const wcharSize = 2

var procSysFreeString = windows.NewLazySystemDLL("oleaut32.dll").NewProc("SysFreeString")

func loadModule(path string) (uintptr, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	return uintptr(h), err
}

func lookupSymbol(h uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(h), name)
}

func freeModule(h uintptr) error {
	return windows.FreeLibrary(windows.Handle(h))
}

func freeBSTR(p uintptr) {
	procSysFreeString.Call(p)
}
