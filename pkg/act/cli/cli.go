// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/files-community/Files-sub019/pkg/act"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Deps is implemented by dependency containers that receive the command's
// IO streams.
type Deps interface {
	SetIO(IO)
}

// ParseArgs populates an Input from positional arguments.
type ParseArgs[I act.Input] func(in *I, args []string) error

// AllArgs returns a ParseArgs that hands every argument to set.
func AllArgs[I act.Input](set func(in *I, args []string)) ParseArgs[I] {
	return func(in *I, args []string) error {
		set(in, args)
		return nil
	}
}

// ExactArgs returns a ParseArgs that requires n arguments and hands them to
// set.
func ExactArgs[I act.Input](n int, set func(in *I, args []string)) ParseArgs[I] {
	return func(in *I, args []string) error {
		if len(args) != n {
			return errors.Errorf("expected %d arguments, got %d", n, len(args))
		}
		set(in, args)
		return nil
	}
}

// RunE adapts an action into a cobra.Command.RunE.
//
// Arguments are parsed and validated before dependencies are built. The
// action's context is cancelled on interrupt so long extractions stop at the
// next entry boundary.
func RunE[I act.Input, O any, D Deps](
	cfg *I,
	parseArgs ParseArgs[I],
	initDeps act.InitDeps[D],
	action act.Action[I, O, D],
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := parseArgs(cfg, args); err != nil {
			return err
		}
		if err := (*cfg).Validate(); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		deps, err := initDeps(ctx)
		if err != nil {
			return errors.Wrap(err, "initializing dependencies")
		}
		deps.SetIO(IO{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
		_, err = action(ctx, *cfg, deps)
		return err
	}
}
