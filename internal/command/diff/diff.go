// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/files-community/Files-sub019/internal/command"
	"github.com/files-community/Files-sub019/pkg/act"
	"github.com/files-community/Files-sub019/pkg/act/cli"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrDifferent is returned when the archives do not hold the same files.
var ErrDifferent = errors.New("archives differ")

// Config holds all configuration for the diff command.
type Config struct {
	command.Backend
	Left, Right string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Left == "" || c.Right == "" {
		return errors.New("two archives are required")
	}
	return c.Backend.Validate()
}

// Deps holds dependencies for the command.
type Deps struct {
	IO cli.IO
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(context.Context) (*Deps, error) {
	return &Deps{}, nil
}

var (
	removed = color.New(color.FgRed).SprintFunc()
	added   = color.New(color.FgGreen).SprintFunc()
	changed = color.New(color.FgYellow).SprintFunc()
)

func summarize(ctx context.Context, b command.Backend, path string) (*archive.ContentSummary, error) {
	a, err := b.Open(path, nil)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	cs, err := archive.Summarize(ctx, a.Reader)
	return cs, errors.Wrapf(err, "summarizing %s", path)
}

// Render writes the differences in a diff-like form.
func Render(w io.Writer, leftOnly, diffs, rightOnly []string) {
	for _, p := range leftOnly {
		fmt.Fprintln(w, removed("- "+p))
	}
	for _, p := range diffs {
		fmt.Fprintln(w, changed("~ "+p))
	}
	for _, p := range rightOnly {
		fmt.Fprintln(w, added("+ "+p))
	}
}

// Handler compares the file contents of two archives. Folders and
// metadata are ignored.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	left, err := summarize(ctx, cfg.Backend, cfg.Left)
	if err != nil {
		return nil, err
	}
	right, err := summarize(ctx, cfg.Backend, cfg.Right)
	if err != nil {
		return nil, err
	}
	leftOnly, diffs, rightOnly := left.Diff(right)
	if len(leftOnly)+len(diffs)+len(rightOnly) == 0 {
		fmt.Fprintf(deps.IO.Out, "%d files identical\n", len(left.Files))
		return &act.NoOutput{}, nil
	}
	Render(deps.IO.Out, leftOnly, diffs, rightOnly)
	return nil, errors.Wrapf(ErrDifferent, "%d removed, %d changed, %d added", len(leftOnly), len(diffs), len(rightOnly))
}

// Command creates a new diff command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "diff <archive-a> <archive-b> [-config C] [-backend auto|native|builtin]",
		Short: "Compare the file contents of two archives",
		Args:  cobra.ExactArgs(2),
		RunE: cli.RunE(
			&cfg,
			cli.ExactArgs(2, func(cfg *Config, args []string) { cfg.Left, cfg.Right = args[0], args[1] }),
			InitDeps,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.RegisterFlags(set)
	return set
}
