// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package source

import "context"

// TypeStatic is the genesis_source_type recorded for Static.
const TypeStatic = "static"

// Static returns a fixed seed text.
type Static struct {
	text string
}

// NewStatic creates a source that always returns text.
func NewStatic(text string) *Static {
	return &Static{text: text}
}

// Fetch returns the configured text.
func (s *Static) Fetch(context.Context) (string, error) {
	return s.text, nil
}

// Type implements identity.Source.
func (s *Static) Type() string { return TypeStatic }
