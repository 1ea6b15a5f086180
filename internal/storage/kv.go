// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// KEYS
// =============================================================================

// Fixed keys of the persisted state layout.
const (
	KeyAccessToken      = "access_token"
	KeyUser             = "user"
	KeyLastRecoID       = "last_reco_id"
	KeyLastTranscriptID = "last_transcript_id"
	KeyUploadedDocs     = "uploaded_docs"
	KeyTokenSalt        = "token_salt"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("store is closed")

// =============================================================================
// KV INTERFACE
// =============================================================================

// KV is a string key-value store.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// GetJSON decodes the value stored under key into v. It reports false when
// the key is absent.
func GetJSON(kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key.
func SetJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(key, string(data))
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a KV held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
