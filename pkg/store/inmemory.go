// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package store provides identity stores.
//
// Every store holds a single identity slot. Save into an occupied slot is
// rejected (false, nil), so two racing creators cannot both persist.
package store

import (
	"context"
	"sync"

	"github.com/jllopis/ember/pkg/identity"
)

// InMemory keeps the identity in process memory. Its state belongs to the
// instance and is lost when the process exits.
type InMemory struct {
	mu   sync.RWMutex
	slot *identity.Identity
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Exists reports whether an identity has been saved.
func (m *InMemory) Exists(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot != nil, nil
}

// Load returns a copy of the saved identity, or nil if the slot is empty.
func (m *InMemory) Load(_ context.Context) (*identity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot.Clone(), nil
}

// Save stores a copy of id if the slot is empty.
func (m *InMemory) Save(_ context.Context, id *identity.Identity) (bool, error) {
	if id == nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot != nil {
		return false, nil
	}
	m.slot = id.Clone()
	return true, nil
}
