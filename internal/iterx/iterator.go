// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package iterx adapts Next()-style readers to range-over-func iterators.
package iterx

import (
	"errors"
	"io"
	"iter"
)

type iterish[T any] interface {
	Next() (T, error)
}

// ToSeq2 converts a Next()-style iterator into an iter.Seq2. Iteration ends
// cleanly when Next returns sentinel and after yielding any other error.
func ToSeq2[T any](it iterish[T], sentinel error) iter.Seq2[T, error] {
	return Func(it.Next, sentinel)
}

// Func is ToSeq2 for a bare next function.
func Func[T any](next func() (T, error), sentinel error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			val, err := next()
			if errors.Is(err, sentinel) {
				return
			}
			if !yield(val, err) || err != nil {
				return
			}
		}
	}
}

// Headers iterates an archive header reader such as tar.Reader until io.EOF.
func Headers[T any](it iterish[T]) iter.Seq2[T, error] {
	return ToSeq2(it, io.EOF)
}
