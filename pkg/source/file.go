// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package source provides seed sources for identity discovery.
package source

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/jllopis/ember/pkg/errors"
)

// TypeFile is the genesis_source_type recorded for File.
const TypeFile = "file"

// File reads the seed from a local text file.
type File struct {
	path string
}

// NewFile creates a file source. It fails if path does not exist or is a
// directory.
func NewFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.New(errors.CodeNotFound, "seed file not found", err).
				WithContext("path", path)
		}
		return nil, errors.New(errors.CodeInvalidInput, "seed file is not readable", err).
			WithContext("path", path)
	}
	if info.IsDir() {
		return nil, errors.New(errors.CodeInvalidInput, "seed path is a directory", nil).
			WithContext("path", path)
	}
	return &File{path: path}, nil
}

// Fetch returns the whole file content.
func (f *File) Fetch(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Type implements identity.Source.
func (f *File) Type() string { return TypeFile }

// Path returns the file path.
func (f *File) Path() string { return f.path }
