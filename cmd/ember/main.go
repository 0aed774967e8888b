// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the ember CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jllopis/ember/pkg/app"
	"github.com/jllopis/ember/pkg/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

type globalFlags struct {
	ConfigPath string
	Profile    string
	Sets       []string
	JSON       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := &globalFlags{}
	root := newRootCmd(flags, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		toCLIError(err, flags.ConfigPath).PrintError(os.Stderr, flags.JSON)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ember",
		Short:         "Discover or load a persistent agent identity",
		Long:          `ember synthesizes an agent identity from a seed text once and returns the stored identity on every later run.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.Profile, "profile", "", "profile overlay (config.<profile>.yaml)")
	pf.StringArrayVar(&flags.Sets, "set", nil, "override a config key (key=value), repeatable")
	pf.BoolVar(&flags.JSON, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newAwakenCmd(flags),
		newShowCmd(flags),
		newMCPCmd(flags),
		newVersionCmd(flags),
	)
	return root
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(flags.ConfigPath, flags.Profile, flags.Sets)
	if err != nil {
		return nil, NewConfigError(err, flags.ConfigPath)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*app.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.WithVersion(Version), app.WithLogOutput(cmd.ErrOrStderr()))
}
