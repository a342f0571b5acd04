// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// unpack inspects and extracts archives using the 7-Zip codec library when
// one is installed and the built-in decoders otherwise.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/files-community/Files-sub019/internal/command/detect"
	"github.com/files-community/Files-sub019/internal/command/diff"
	"github.com/files-community/Files-sub019/internal/command/extract"
	"github.com/files-community/Files-sub019/internal/command/list"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "unpack",
	Short:         "A multi-format archive reader",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(detect.Command())
	rootCmd.AddCommand(list.Command())
	rootCmd.AddCommand(extract.Command())
	rootCmd.AddCommand(diff.Command())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
