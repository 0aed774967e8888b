// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity discovers or loads the persistent identity of an agent.
//
// On first run the Orchestrator synthesizes an Identity from a seed text by
// way of a single reasoning call and persists it; every later run returns the
// stored Identity unchanged. The Orchestrator talks to the outside world only
// through the Source, Reasoner and Store contracts.
package identity

import "time"

// Identity is the structured, persisted description of an agent's persona.
// ID, CreatedAt and GenesisSourceType are owned by the Orchestrator.
type Identity struct {
	ID                 string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name               string    `json:"name,omitempty" yaml:"name,omitempty"`
	PersonaSummary     string    `json:"persona_summary,omitempty" yaml:"persona_summary,omitempty"`
	CoreValues         []string  `json:"core_values,omitempty" yaml:"core_values,omitempty"`
	CommunicationStyle string    `json:"communication_style,omitempty" yaml:"communication_style,omitempty"`
	PrimaryPurpose     string    `json:"primary_purpose,omitempty" yaml:"primary_purpose,omitempty"`
	Interests          []string  `json:"interests,omitempty" yaml:"interests,omitempty"`
	CreatedAt          time.Time `json:"created_at" yaml:"created_at"`
	GenesisSourceType  string    `json:"genesis_source_type,omitempty" yaml:"genesis_source_type,omitempty"`
}

// Clone returns a deep copy of the identity.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	out := *id
	if id.CoreValues != nil {
		out.CoreValues = append([]string(nil), id.CoreValues...)
	}
	if id.Interests != nil {
		out.Interests = append([]string(nil), id.Interests...)
	}
	return &out
}

// State names the terminal state of a successful discovery run.
type State string

const (
	// StateReturnExisting means the identity was loaded from the store.
	StateReturnExisting State = "return_existing"
	// StateReturnNew means the identity was generated and persisted by this run.
	StateReturnNew State = "return_new"
)

// Outcome is the result of a successful discovery run.
type Outcome struct {
	Identity *Identity
	State    State
}

// Created reports whether this run minted the identity.
func (o *Outcome) Created() bool {
	return o != nil && o.State == StateReturnNew
}
