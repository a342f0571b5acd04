// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package list

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/files-community/Files-sub019/internal/command"
	"github.com/files-community/Files-sub019/pkg/act"
	"github.com/files-community/Files-sub019/pkg/act/cli"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the list command.
type Config struct {
	command.Backend
	Path    string
	Verbose bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("archive path is required")
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
	folder    = color.New(color.FgBlue, color.Bold).SprintFunc()
	encrypted = color.New(color.FgYellow).SprintFunc()
)

func modified(e *archive.Entry) string {
	if e.Modified.IsZero() {
		return "-"
	}
	return e.Modified.UTC().Format(time.DateTime)
}

func crc(e *archive.Entry) string {
	if !e.HasCRC {
		return "-"
	}
	return fmt.Sprintf("%08X", e.CRC)
}

func flags(e *archive.Entry) string {
	b := []byte("--")
	if e.IsFolder {
		b[0] = 'D'
	}
	if e.Encrypted {
		b[1] = '+'
	}
	return string(b)
}

// Print writes one line per entry.
func Print(w io.Writer, entries []*archive.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Index\tAttr\tSize\tPacked\tModified\tCRC\t")
	var size, packed uint64
	for _, e := range entries {
		path := e.Path
		switch {
		case e.IsFolder:
			path = folder(path)
		case e.Encrypted:
			path = encrypted(path)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t  %s\n", e.Index, flags(e), e.Size, e.PackedSize, modified(e), crc(e), path)
		size += e.Size
		packed += e.PackedSize
	}
	fmt.Fprintf(tw, "\t\t%d\t%d\t\t\t  %d entries\n", size, packed, len(entries))
	return tw.Flush()
}

// Handler lists the entries of an archive.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	var logger *log.Logger
	if cfg.Verbose {
		logger = log.New(deps.IO.Err, "", log.LstdFlags)
	}
	a, err := cfg.Open(cfg.Path, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	entries, err := a.Entries()
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", cfg.Path)
	}
	fmt.Fprintf(deps.IO.Out, "%s: %s archive\n", cfg.Path, a.Format())
	if err := Print(deps.IO.Out, entries); err != nil {
		return nil, err
	}
	return &act.NoOutput{}, nil
}

// Command creates a new list command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "list <archive> [-format F] [-config C] [-backend auto|native|builtin] [-library P]",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: cli.RunE(
			&cfg,
			cli.ExactArgs(1, func(cfg *Config, args []string) { cfg.Path = args[0] }),
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
	set.BoolVar(&cfg.Verbose, "v", false, "log backend activity to stderr")
	return set
}
