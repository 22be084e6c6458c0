// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntherning/bootimg/cmd/bootimg/pack"
	"github.com/ntherning/bootimg/cmd/bootimg/repack"
	"github.com/ntherning/bootimg/cmd/bootimg/unpack"
	"github.com/ntherning/bootimg/cmd/bootimg/version"
	"github.com/ntherning/bootimg/log"
)

func main() {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "bootimg COMMAND",
		Short: "Unpack, modify and repack boot images",
		Long: heredoc.Doc(`
			Unpack, modify and repack Android and Rockchip KRNL boot images.

			A boot image is split into its parts inside a work directory, the
			ramdisk archive is extracted into a plain file tree, and the metadata
			needed to reassemble a byte-faithful image is persisted as info.json.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, ok := log.Levels()[logLevel]
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger := logrus.New()
			logger.SetOutput(os.Stderr)
			logger.SetLevel(level)
			cmd.SetContext(log.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Set the logging verbosity level")

	cmd.AddCommand(
		unpack.New(),
		pack.New(),
		repack.New(),
		version.New(),
	)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.L.Error(err)
		os.Exit(1)
	}
}
