// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem under a root directory.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
//
// # Parameters
//   - root: Filesystem directory holding the files.
//   - baseURL: Public URL prefix the files are served under (e.g. "/media").
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the file atomically through a temporary sibling.
func (store *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	target := store.path(cleaned)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("blob: create dir for %s: %w", key, err)
	}

	temporary := target + ".tmp"
	if err := os.WriteFile(temporary, data, 0o644); err != nil {
		return fmt.Errorf("blob: write %s: %w", key, err)
	}
	if err := os.Rename(temporary, target); err != nil {
		_ = os.Remove(temporary)
		return fmt.Errorf("blob: commit %s: %w", key, err)
	}
	return nil
}

// Open returns the file for reading.
func (store *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(store.path(cleaned))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: open %s: %w", key, err)
	}
	return file, nil
}

// Delete removes the file; a missing file is ignored.
func (store *LocalStore) Delete(_ context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(store.path(cleaned)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

// URL joins the base URL and the key.
func (store *LocalStore) URL(key string) string {
	return store.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// Handler serves the stored files. Mount it under the base URL with the
// prefix stripped. Directory listings are disabled.
func (store *LocalStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(store.root))
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if strings.HasSuffix(request.URL.Path, "/") {
			http.NotFound(writer, request)
			return
		}
		writer.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(writer, request)
	})
}

func (store *LocalStore) path(key string) string {
	return filepath.Join(store.root, filepath.FromSlash(key))
}
