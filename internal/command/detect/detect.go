// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package detect

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/files-community/Files-sub019/pkg/act"
	"github.com/files-community/Files-sub019/pkg/act/cli"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the detect command.
type Config struct {
	Paths         []string
	NoExecutables bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if len(c.Paths) == 0 {
		return errors.New("at least one file is required")
	}
	return nil
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

func resolve(c *archive.Catalog, path string) (archive.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return archive.UnknownFormat, err
	}
	defer f.Close()
	return c.ResolveForPath(path, f)
}

// Handler prints the format of each file. Unrecognized files are reported
// as unknown; only unreadable files fail the command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	catalog := archive.DefaultCatalog
	if cfg.NoExecutables {
		catalog = archive.NewCatalog(archive.WithoutExecutables())
	}
	var failed int
	for _, path := range cfg.Paths {
		format, err := resolve(catalog, path)
		switch {
		case err == nil:
			fmt.Fprintf(deps.IO.Out, "%s\t%s\n", path, format)
		case errors.Is(err, archive.ErrUnknownFormat):
			fmt.Fprintf(deps.IO.Out, "%s\tunknown\n", path)
		default:
			fmt.Fprintf(deps.IO.Err, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return nil, errors.Errorf("%d of %d files could not be read", failed, len(cfg.Paths))
	}
	return &act.NoOutput{}, nil
}

// Command creates a new detect command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "detect <file>... [-no-executables]",
		Short: "Print the archive format of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: cli.RunE(
			&cfg,
			cli.AllArgs(func(cfg *Config, args []string) { cfg.Paths = args }),
			InitDeps,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.BoolVar(&cfg.NoExecutables, "no-executables", false, "do not treat PE executables as archives")
	return set
}
