// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"path/filepath"

	"github.com/viant/afs"
	afsurl "github.com/viant/afs/url"

	// register cloud storage schemes (s3://, gs://)
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

// TypeURL is the genesis_source_type recorded for URL.
const TypeURL = "url"

// URL reads the seed from any location afs can download: file://, mem://,
// http(s)://, s3:// or gs://. Paths without a scheme are read from disk.
type URL struct {
	url string
	fs  afs.Service
}

// URLOption configures a URL source.
type URLOption func(*URL)

// WithFileSystem sets the afs service used to download the seed.
func WithFileSystem(fs afs.Service) URLOption {
	return func(u *URL) {
		if fs != nil {
			u.fs = fs
		}
	}
}

// NewURL creates a URL source.
func NewURL(location string, opts ...URLOption) *URL {
	if afsurl.Scheme(location, "") == "" {
		if abs, err := filepath.Abs(location); err == nil {
			location = abs
		}
		location = "file://" + filepath.ToSlash(location)
	}
	u := &URL{url: location}
	for _, opt := range opts {
		opt(u)
	}
	if u.fs == nil {
		u.fs = afs.New()
	}
	return u
}

// Fetch downloads the seed content.
func (u *URL) Fetch(ctx context.Context) (string, error) {
	data, err := u.fs.DownloadWithURL(ctx, u.url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Type implements identity.Source.
func (u *URL) Type() string { return TypeURL }

// Location returns the normalized URL.
func (u *URL) Location() string { return u.url }
