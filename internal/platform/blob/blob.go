// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores uploaded files behind an opaque, URL-addressable interface.

Keys are slash separated relative paths generated by [NewKey]
(e.g. "images/2026/10/0191d6a0-....jpg"). Writes are not transactional with
database rows: a crash between the two may leave an orphaned file.
*/
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// Store is the contract every blob backend fulfils.
type Store interface {
	// Put writes data under key, replacing any previous content.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for key. A missing key is apperr.NotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL under which key is served.
	URL(key string) string
}

// ErrNotFound is returned by [Store.Open] for unknown keys.
var ErrNotFound = apperr.NotFound("File")

// NewKey builds a unique, date-partitioned key such as "images/2026/10/<uuid>.jpg".
func NewKey(prefix, extension string, now time.Time) string {
	extension = strings.TrimPrefix(extension, ".")
	return path.Join(prefix, now.UTC().Format("2006/01"), uuid.New()+"."+extension)
}

// ReadAll opens key and returns its full content.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	reader, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", key, err)
	}
	return data, nil
}

// cleanKey rejects keys that would escape the storage root.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "..") {
		return "", apperr.ValidationError(fmt.Sprintf("Invalid blob key %q", key))
	}
	return cleaned, nil
}
