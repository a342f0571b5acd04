// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package glob matches archive entry paths against path.Match patterns
// extended with '**'.
package glob

import (
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Match extends path.Match to support the '**' glob pattern.
//   - '**' matches zero or more path segments
//   - '**' may appear any number of times but only as a whole segment
//   - backslashes in name are treated as separators
func Match(pattern, name string) (bool, error) {
	if err := validate(pattern); err != nil {
		return false, err
	}
	return matchSegments(split(pattern), split(normalize(name))), nil
}

// normalize converts an entry path to slash form without leading or
// trailing separators.
func normalize(name string) string {
	return strings.Trim(strings.ReplaceAll(name, `\`, "/"), "/")
}

func split(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func validate(pattern string) error {
	for _, seg := range strings.Split(pattern, "/") {
		if seg != "**" && strings.Contains(seg, "**") {
			return errors.Errorf("invalid pattern %q: '**' must be a whole path segment", pattern)
		}
		if _, err := path.Match(seg, ""); err != nil {
			return errors.Wrapf(err, "invalid pattern %q", pattern)
		}
	}
	return nil
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			// Collapse runs of '**'.
			for len(pattern) > 0 && pattern[0] == "**" {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := range len(name) + 1 {
				if matchSegments(pattern, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], name[0]); !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// Filter selects entry paths by include and exclude patterns. Patterns
// without a separator are matched against the last path segment.
type Filter struct {
	include, exclude []string
}

// NewFilter validates the patterns and returns a Filter. With no include
// patterns every path not excluded is selected.
func NewFilter(include, exclude []string) (*Filter, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Selects reports whether name passes the filter.
func (f *Filter) Selects(name string) bool {
	name = normalize(name)
	for _, p := range f.exclude {
		if matches(p, name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, p := range f.include {
		if matches(p, name) {
			return true
		}
	}
	return false
}

func matches(pattern, name string) bool {
	if !strings.Contains(pattern, "/") && pattern != "**" {
		ok, _ := path.Match(pattern, path.Base(name))
		return ok
	}
	return matchSegments(split(pattern), split(name))
}
