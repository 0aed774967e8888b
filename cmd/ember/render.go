// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/jllopis/ember/pkg/identity"
)

type outcomeResult struct {
	State    identity.State     `json:"state"`
	Identity *identity.Identity `json:"identity"`
}

func renderOutcome(w io.Writer, out *identity.Outcome, asJSON bool) error {
	if asJSON {
		return writeJSON(w, outcomeResult{State: out.State, Identity: out.Identity})
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	if out.Created() {
		fmt.Fprintf(w, "%s\n\n", green("Identity created"))
	} else {
		fmt.Fprintf(w, "%s\n\n", cyan("Identity loaded"))
	}
	return renderIdentity(w, out.Identity, false)
}

func renderIdentity(w io.Writer, id *identity.Identity, asJSON bool) error {
	if asJSON {
		return writeJSON(w, id)
	}
	label := color.New(color.FgYellow).SprintFunc()
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	rows := []struct {
		name  string
		value string
	}{
		{"Name", id.Name},
		{"ID", id.ID},
		{"Persona", id.PersonaSummary},
		{"Values", strings.Join(id.CoreValues, "; ")},
		{"Style", id.CommunicationStyle},
		{"Purpose", id.PrimaryPurpose},
		{"Interests", strings.Join(id.Interests, ", ")},
		{"Created", id.CreatedAt.Format(time.RFC3339)},
		{"Source", id.GenesisSourceType},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", label(row.name+":"), row.value)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
