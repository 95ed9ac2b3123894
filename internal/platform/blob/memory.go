// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
)

// MemoryStore is an in-process [Store] used by tests and the seed command's
// dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (store *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.objects[cleaned] = append([]byte(nil), data...)
	return nil
}

func (store *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	data, ok := store.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.objects, key)
	return nil
}

func (store *MemoryStore) URL(key string) string { return "/media/" + key }

// Keys lists the stored keys in order.
func (store *MemoryStore) Keys() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	keys := make([]string, 0, len(store.objects))
	for key := range store.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
