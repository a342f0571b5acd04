// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cheggaaa/pb"
	"github.com/fatih/color"
	"github.com/files-community/Files-sub019/internal/command"
	"github.com/files-community/Files-sub019/internal/glob"
	"github.com/files-community/Files-sub019/pkg/act"
	"github.com/files-community/Files-sub019/pkg/act/cli"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// patterns is a repeatable string flag.
type patterns []string

func (p *patterns) String() string { return strings.Join(*p, ",") }

func (p *patterns) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// Config holds all configuration for the extract command.
type Config struct {
	command.Backend
	Path     string
	Out      string
	Include  []string
	Exclude  []string
	Progress bool
	Verbose  bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("archive path is required")
	}
	if c.Out == "" {
		return errors.New("out is required")
	}
	if _, err := glob.NewFilter(c.Include, c.Exclude); err != nil {
		return err
	}
	return c.Backend.Validate()
}

// Deps holds dependencies for the command.
type Deps struct {
	IO cli.IO
	// FS is the destination filesystem. It defaults to the host filesystem
	// rooted at Config.Out.
	FS billy.Filesystem
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(context.Context) (*Deps, error) {
	return &Deps{}, nil
}

var failure = color.New(color.FgRed).SprintFunc()

// progressBar adapts reader progress to a byte progress bar.
type progressBar struct {
	once sync.Once
	bar  *pb.ProgressBar
}

func (p *progressBar) update(completed, total uint64) {
	p.once.Do(func() {
		p.bar.SetTotal64(int64(total))
		p.bar.Start()
	})
	p.bar.Set64(int64(completed))
}

// Handler extracts the selected entries of an archive. It fails when any
// entry failed to extract, after extracting the rest.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	filter, err := glob.NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	logger := log.New(deps.IO.Err, "", 0)
	if !cfg.Verbose {
		logger = nil
	}
	var opts []archive.Option
	var bar *progressBar
	if cfg.Progress {
		b := pb.New64(0)
		b.Output = deps.IO.Err
		b.SetUnits(pb.U_BYTES)
		b.ShowTimeLeft = true
		bar = &progressBar{bar: b}
		opts = append(opts, archive.WithProgress(bar.update))
	}
	a, err := cfg.Open(cfg.Path, logger, opts...)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	fs := deps.FS
	if fs == nil {
		fs = osfs.New(cfg.Out)
	}
	res, err := a.ExtractToFolder(ctx, fs, "", func(e *archive.Entry) bool {
		return filter.Selects(e.Path)
	})
	if bar != nil {
		bar.bar.Finish()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "extracting %s", cfg.Path)
	}
	fmt.Fprintf(deps.IO.Out, "%d files, %d folders extracted, %d skipped\n", res.Extracted, res.Folders, res.Skipped)
	for _, f := range res.Failed {
		fmt.Fprintf(deps.IO.Out, "%s %s: %s\n", failure("failed"), f.Entry.Path, f.Result)
	}
	if len(res.Failed) > 0 {
		return nil, errors.Wrapf(res.Err(), "%d entries failed", len(res.Failed))
	}
	return &act.NoOutput{}, nil
}

// Command creates a new extract command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "extract <archive> -out <dir> [-include GLOB]... [-exclude GLOB]... [-progress]",
		Short: "Extract an archive into a folder",
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
	set.StringVar(&cfg.Out, "out", "", "the destination folder")
	set.Var((*patterns)(&cfg.Include), "include", "extract only entries matching this glob (repeatable)")
	set.Var((*patterns)(&cfg.Exclude), "exclude", "skip entries matching this glob (repeatable)")
	set.BoolVar(&cfg.Progress, "progress", false, "show a progress bar on stderr")
	set.BoolVar(&cfg.Verbose, "v", false, "log backend activity and entry failures to stderr")
	return set
}
