// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package native

import (
	"os"
	"path/filepath"
)

func libraryName(goos string) string {
	if goos == "windows" {
		return "7z.dll"
	}
	return "7z.so"
}

// archDir names the per-architecture subdirectory 7-Zip distributions use.
func archDir(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

func systemDirs(goos string) []string {
	if goos == "windows" {
		var dirs []string
		for _, env := range []string{"ProgramFiles", "ProgramW6432", "ProgramFiles(x86)"} {
			if dir := os.Getenv(env); dir != "" {
				dirs = append(dirs, filepath.Join(dir, "7-Zip"))
			}
		}
		return dirs
	}
	return []string{
		"/usr/lib/7zip",
		"/usr/lib/p7zip",
		"/usr/lib64/p7zip",
		"/usr/local/lib/p7zip",
		"/usr/libexec/p7zip",
	}
}

// candidates lists the paths searched for the library, in order.
func candidates(base, name, goarch string, system []string) []string {
	arch := archDir(goarch)
	paths := []string{
		filepath.Join(base, name),
		filepath.Join(base, "bin", name),
		filepath.Join(base, "bin", arch, name),
		filepath.Join(base, arch, name),
	}
	for _, dir := range system {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}

func locate(paths []string, exists func(string) bool) (string, bool) {
	for _, p := range paths {
		if exists(p) {
			return p, true
		}
	}
	return "", false
}
