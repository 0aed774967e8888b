// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type versionResult struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ember version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if flags.JSON {
				return json.NewEncoder(out).Encode(versionResult{Version: Version, GoVersion: runtime.Version()})
			}
			_, err := fmt.Fprintf(out, "ember %s (%s)\n", Version, runtime.Version())
			return err
		},
	}
}
