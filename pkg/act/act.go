// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package act separates what a command does from how it is invoked.
//
// An Action takes a validated Input and a dependency container and returns
// an output. Transports, such as the cobra adapter in package cli, own flag
// parsing and IO wiring.
package act

import "context"

// Input is a validated input type.
type Input interface {
	Validate() error
}

// Deps is a marker type for dependency containers.
type Deps any

// InitDeps initializes dependencies from context.
type InitDeps[D Deps] func(context.Context) (D, error)

// Action is a transport-agnostic operation.
type Action[I Input, O any, D Deps] func(context.Context, I, D) (*O, error)

// NoOutput is a zero-value output for actions that only produce side effects.
type NoOutput struct{}
