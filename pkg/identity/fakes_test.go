// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"sync"
)

type fakeSource struct {
	text  string
	err   error
	calls int
}

func (s *fakeSource) Fetch(context.Context) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *fakeSource) Type() string { return "fake" }

type fakeReasoner struct {
	response string
	err      error
	calls    int
	system   string
	payload  string
}

func (r *fakeReasoner) Generate(_ context.Context, system, payload string) (string, error) {
	r.calls++
	r.system = system
	r.payload = payload
	return r.response, r.err
}

// fakeStore answers from fixed values and records every call.
type fakeStore struct {
	exists     bool
	existsErr  error
	loaded     *Identity
	loadErr    error
	saveResult bool
	saveErr    error

	existsCalls int
	loadCalls   int
	saved       []*Identity
}

func (s *fakeStore) Exists(context.Context) (bool, error) {
	s.existsCalls++
	return s.exists, s.existsErr
}

func (s *fakeStore) Load(context.Context) (*Identity, error) {
	s.loadCalls++
	return s.loaded, s.loadErr
}

func (s *fakeStore) Save(_ context.Context, id *Identity) (bool, error) {
	s.saved = append(s.saved, id.Clone())
	return s.saveResult, s.saveErr
}

// slotStore keeps the saved identity across calls.
type slotStore struct {
	mu    sync.Mutex
	slot  *Identity
	saves int
}

func (s *slotStore) Exists(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot != nil, nil
}

func (s *slotStore) Load(context.Context) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.Clone(), nil
}

func (s *slotStore) Save(_ context.Context, id *Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.slot != nil {
		return false, nil
	}
	s.slot = id.Clone()
	return true, nil
}
