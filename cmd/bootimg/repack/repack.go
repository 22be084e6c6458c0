// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package repack

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/ntherning/bootimg/bootimg"
)

// Repack holds the flags of the repack subcommand.
type Repack struct {
	BootImg string
	OutImg  string
	ModsDir string
	WorkDir string
}

// New returns the repack subcommand.
func New() *cobra.Command {
	opts := &Repack{}

	cmd := &cobra.Command{
		Use:   "repack --boot-img FILE --out-img FILE --mods-dir DIR",
		Short: "Apply modifications to a boot image in one step",
		Long: heredoc.Doc(`
			Unpack a boot image, apply the modifications found in the
			modifications directory and pack the result as a new image.

			The modifications directory may contain *.patch files, applied to
			the extracted ramdisk tree in lexical order, a files/ tree overlaid
			onto the ramdisk, and an extra_ramdisk_files.json with attribute
			overrides for the added or changed files.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.Run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BootImg, "boot-img", "", "Boot image file to modify")
	cmd.Flags().StringVar(&opts.OutImg, "out-img", "", "File to write the modified image to")
	cmd.Flags().StringVar(&opts.ModsDir, "mods-dir", "", "Directory containing patches and files to apply")
	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", "", "Directory where intermediary files will be written")
	cmd.MarkFlagRequired("boot-img")
	cmd.MarkFlagRequired("out-img")
	cmd.MarkFlagRequired("mods-dir")

	return cmd
}

func (opts *Repack) Run(cmd *cobra.Command) error {
	img, err := filepath.Abs(opts.BootImg)
	if err != nil {
		return err
	}
	outImg, err := filepath.Abs(opts.OutImg)
	if err != nil {
		return err
	}
	modsDir, err := filepath.Abs(opts.ModsDir)
	if err != nil {
		return err
	}
	workDir := opts.WorkDir
	if workDir != "" {
		if workDir, err = filepath.Abs(workDir); err != nil {
			return err
		}
	}

	return bootimg.Repack(cmd.Context(), img, outImg, modsDir, workDir)
}
