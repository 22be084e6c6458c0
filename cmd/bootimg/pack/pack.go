// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package pack

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/ntherning/bootimg/bootimg"
)

// Pack holds the flags of the pack subcommand.
type Pack struct {
	BootImg    string
	WorkDir    string
	ExtraAttrs string
}

// New returns the pack subcommand.
func New() *cobra.Command {
	opts := &Pack{}

	cmd := &cobra.Command{
		Use:   "pack --boot-img FILE --work-dir DIR",
		Short: "Pack a work directory back into a boot image",
		Long: heredoc.Doc(`
			Rebuild a boot image from a work directory previously filled by
			unpack.  The ramdisk tree is re-archived with its original
			compression and the image is padded back to its original size.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.Run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BootImg, "boot-img", "", "Boot image file to write")
	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", "", "Directory where files have previously been unpacked")
	cmd.Flags().StringVar(&opts.ExtraAttrs, "extra-attrs", "", "JSON file with ramdisk attribute overrides")
	cmd.MarkFlagRequired("boot-img")
	cmd.MarkFlagRequired("work-dir")

	return cmd
}

func (opts *Pack) Run(cmd *cobra.Command) error {
	img, err := filepath.Abs(opts.BootImg)
	if err != nil {
		return err
	}
	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return err
	}

	var extra map[string]bootimg.FileAttr
	if opts.ExtraAttrs != "" {
		if extra, err = bootimg.LoadFileAttrs(opts.ExtraAttrs); err != nil {
			return err
		}
	}

	return bootimg.Pack(cmd.Context(), img, workDir, extra)
}
