// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"fmt"
	"sync"

	"github.com/edusphere/edusphere-tui/internal/storage"
)

// Store holds at most one bearer token. It is safe for concurrent use; a
// token cleared between Get and its use is simply absent on the next Get.
type Store struct {
	mu     sync.RWMutex
	token  string
	has    bool
	kv     storage.KV
	sealer *Sealer
}

// Option configures a Store.
type Option func(*Store)

// WithSealer encrypts the persisted token.
func WithSealer(s *Sealer) Option {
	return func(st *Store) {
		st.sealer = s
	}
}

// NewStore creates a store backed by kv and loads any persisted token. A nil
// kv keeps the token in memory only.
func NewStore(kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore creates a store that never persists.
func NewMemoryStore() *Store {
	return &Store{}
}

func (s *Store) load() error {
	if s.kv == nil {
		return nil
	}
	raw, ok, err := s.kv.Get(storage.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	token := raw
	switch {
	case IsSealed(raw) && s.sealer == nil:
		return fmt.Errorf("%w: token is encrypted but no passphrase was provided", ErrSealed)
	case IsSealed(raw):
		token, err = s.sealer.Open(raw)
		if err != nil {
			return err
		}
	}

	s.token = token
	s.has = true
	return nil
}

// Set stores token, replacing any previous one. The token is not validated,
// but an empty token is no session: Set("") behaves like Clear, so the
// in-memory view agrees with what a reload finds.
func (s *Store) Set(token string) error {
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv != nil {
		value := token
		if s.sealer != nil {
			sealed, err := s.sealer.Seal(token)
			if err != nil {
				return err
			}
			value = sealed
		}
		if err := s.kv.Set(storage.KeyAccessToken, value); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}

	s.token = token
	s.has = true
	return nil
}

// Get returns the current token.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.has
}

// Clear removes the token. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.has = false
	if s.kv != nil {
		if err := s.kv.Delete(storage.KeyAccessToken); err != nil {
			return fmt.Errorf("remove token: %w", err)
		}
	}
	return nil
}

// HasSession reports whether a token is present.
func (s *Store) HasSession() bool {
	_, ok := s.Get()
	return ok
}
