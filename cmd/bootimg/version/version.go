// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ntherning/bootimg/internal/version"
)

// New returns the version subcommand.
func New() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show bootimg version information",
		Aliases: []string{"v"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "bootimg %s", version.String())
			return nil
		},
	}
}
