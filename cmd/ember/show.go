// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jllopis/ember/pkg/app"
)

// show never generates, so it only needs the store and skips source checks.
func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted identity without generating one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			st, err := app.NewStore(cfg.Store)
			if err != nil {
				return err
			}
			if closer, ok := st.(io.Closer); ok {
				defer closer.Close()
			}

			id, err := app.LoadCurrent(ctx, st, cfg.Store)
			if err != nil {
				return err
			}
			return renderIdentity(cmd.OutOrStdout(), id, flags.JSON)
		},
	}
}
