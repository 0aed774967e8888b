// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import "context"

// Source supplies the raw seed text an identity is synthesized from.
type Source interface {
	// Fetch returns the complete seed content. An empty string means no
	// content is available and is not an error at this layer.
	Fetch(ctx context.Context) (string, error)
	// Type returns the provenance tag recorded as genesis_source_type.
	Type() string
}

// Reasoner executes a single text-generation request.
type Reasoner interface {
	// Generate returns the raw model output. An empty string signals that
	// generation failed.
	Generate(ctx context.Context, systemInstruction, payload string) (string, error)
}

// Store checks for, loads and persists the single identity record.
//
// If Exists reports true, Load must return a non-nil identity. Save reports
// ordinary persistence failure by returning false; errors are reserved for
// faults below the contract.
type Store interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*Identity, error)
	Save(ctx context.Context, id *Identity) (bool, error)
}
