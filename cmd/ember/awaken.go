// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
)

func newAwakenCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "awaken",
		Short: "Load the stored identity or generate and persist a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out, err := a.Discover(ctx)
			if err != nil {
				return err
			}
			return renderOutcome(cmd.OutOrStdout(), out, flags.JSON)
		},
	}
}
