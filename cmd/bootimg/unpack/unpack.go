// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package unpack

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/ntherning/bootimg/bootimg"
)

// Unpack holds the flags of the unpack subcommand.
type Unpack struct {
	BootImg    string
	Out        string
	ErrorLevel int
}

// New returns the unpack subcommand.
func New() *cobra.Command {
	opts := &Unpack{}

	cmd := &cobra.Command{
		Use:   "unpack --boot-img FILE --out DIR",
		Short: "Unpack a boot image into a work directory",
		Long: heredoc.Doc(`
			Split a boot image into its parts and extract the ramdisk file tree
			into DIR/ramdisk.extracted.  The metadata needed to reassemble the
			image is written to DIR/info.json.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.Run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BootImg, "boot-img", "", "Boot image file to unpack")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output directory where files will be unpacked")
	cmd.Flags().IntVar(&opts.ErrorLevel, "error-level", 0, "Extraction strictness (0 logs failures, 1 aborts on I/O failures, 2 also aborts on metadata failures)")
	cmd.MarkFlagRequired("boot-img")
	cmd.MarkFlagRequired("out")

	return cmd
}

func (opts *Unpack) Run(cmd *cobra.Command) error {
	img, err := filepath.Abs(opts.BootImg)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(opts.Out)
	if err != nil {
		return err
	}

	_, err = bootimg.Unpack(cmd.Context(), img, out,
		bootimg.WithErrorLevel(opts.ErrorLevel),
	)
	return err
}
