// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/identity"
)

// Format is the on-disk encoding of a FileStore.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FileStore persists the identity as a single JSON or YAML document.
type FileStore struct {
	path   string
	format Format
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFormat forces the document encoding.
func WithFormat(format Format) FileOption {
	return func(f *FileStore) {
		if format != "" {
			f.format = format
		}
	}
}

// NewFileStore creates a file-backed identity store. The format defaults to
// YAML for .yaml/.yml paths and JSON otherwise.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, format: FormatJSON}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f.format = FormatYAML
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Exists reports whether the identity file is present.
func (f *FileStore) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.New(errors.CodeStoreError, "stat identity file", err).
		WithContext("path", f.path)
}

// Load decodes the identity file. It returns nil if the file does not exist.
func (f *FileStore) Load(_ context.Context) (*identity.Identity, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.New(errors.CodeStoreError, "read identity file", err).
			WithContext("path", f.path)
	}
	var id identity.Identity
	if err := f.unmarshal(data, &id); err != nil {
		return nil, errors.New(errors.CodeStoreError, "decode identity file", err).
			WithContext("path", f.path)
	}
	return &id, nil
}

// Save writes id to a temporary file and links it into place. The link fails
// if the identity file already exists, in which case Save returns false.
func (f *FileStore) Save(_ context.Context, id *identity.Identity) (bool, error) {
	if id == nil {
		return false, nil
	}
	data, err := f.marshal(id)
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "encode identity", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, errors.New(errors.CodeStoreError, "create identity directory", err).
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".identity-*")
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "create temp file", err).
			WithContext("path", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, errors.New(errors.CodeStoreError, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, errors.New(errors.CodeStoreError, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return false, errors.New(errors.CodeStoreError, "close temp file", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return false, errors.New(errors.CodeStoreError, "chmod temp file", err)
	}

	if err := os.Link(tmpName, f.path); err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, errors.New(errors.CodeStoreError, "link identity file", err).
			WithContext("path", f.path)
	}
	return true, nil
}

// Path returns the identity file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) marshal(id *identity.Identity) ([]byte, error) {
	if f.format == FormatYAML {
		return yaml.Marshal(id)
	}
	return json.MarshalIndent(id, "", "  ")
}

func (f *FileStore) unmarshal(data []byte, id *identity.Identity) error {
	if f.format == FormatYAML {
		return yaml.Unmarshal(data, id)
	}
	return json.Unmarshal(data, id)
}
