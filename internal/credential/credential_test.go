// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere-tui/internal/storage"
)

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_SetGetClear(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get()
	assert.False(t, ok, "new store must be empty")

	require.NoError(t, s.Set("first"))
	require.NoError(t, s.Set("second"))
	tok, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", tok)
	assert.True(t, s.HasSession())

	require.NoError(t, s.Clear())
	_, ok = s.Get()
	assert.False(t, ok)
	require.NoError(t, s.Clear(), "Clear must be idempotent")
}

func TestStore_EmptyTokenClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := storage.Open(path)
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)
	require.NoError(t, s.Set("tok"))
	require.NoError(t, s.Set(""))
	assert.False(t, s.HasSession(), "empty token must not count as a session")
	require.NoError(t, db.Close())

	db, err = storage.Open(path)
	require.NoError(t, err)
	defer db.Close()
	_, ok, err := db.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "empty token must not be persisted")

	reopened, err := NewStore(db)
	require.NoError(t, err)
	assert.False(t, reopened.HasSession())
}

func TestStore_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := storage.Open(path)
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)
	require.NoError(t, s.Set("persisted-token"))
	require.NoError(t, db.Close())

	db, err = storage.Open(path)
	require.NoError(t, err)
	defer db.Close()

	restored, err := NewStore(db)
	require.NoError(t, err)
	tok, ok := restored.Get()
	assert.True(t, ok)
	assert.Equal(t, "persisted-token", tok)

	require.NoError(t, restored.Clear())
	_, present, err := db.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, present, "Clear must remove the persisted token")
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					_ = s.Set("tok")
				} else {
					_ = s.Clear()
				}
				_, _ = s.Get()
			}
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// SEALER TESTS
// =============================================================================

func testSealer(t *testing.T, passphrase string) *Sealer {
	t.Helper()
	s, err := newSealer(passphrase, make([]byte, saltSize), 1000)
	require.NoError(t, err)
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := testSealer(t, "correct horse")

	sealed, err := s.Seal("secret-token")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "secret-token")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", plain)
}

func TestSealer_WrongPassphrase(t *testing.T) {
	sealed, err := testSealer(t, "right").Seal("secret-token")
	require.NoError(t, err)

	_, err = testSealer(t, "wrong").Open(sealed)
	assert.ErrorIs(t, err, ErrSealed)
}

func TestSealer_Corrupt(t *testing.T) {
	s := testSealer(t, "p")
	for _, v := range []string{"plain", "ENC:!!!", "ENC:" + base64.StdEncoding.EncodeToString([]byte("short"))} {
		_, err := s.Open(v)
		assert.ErrorIs(t, err, ErrSealed, v)
	}
}

func TestStore_SealedPersistence(t *testing.T) {
	kv := storage.NewMemoryStore()
	sealer := testSealer(t, "pass")

	s, err := NewStore(kv, WithSealer(sealer))
	require.NoError(t, err)
	require.NoError(t, s.Set("tok-123"))

	raw, _, _ := kv.Get(storage.KeyAccessToken)
	assert.True(t, strings.HasPrefix(raw, SealedPrefix))

	restored, err := NewStore(kv, WithSealer(sealer))
	require.NoError(t, err)
	tok, _ := restored.Get()
	assert.Equal(t, "tok-123", tok)

	_, err = NewStore(kv)
	assert.ErrorIs(t, err, ErrSealed, "sealed token without a sealer")
}

func TestLoadSalt_GeneratesOnce(t *testing.T) {
	kv := storage.NewMemoryStore()
	first, err := loadSalt(kv)
	require.NoError(t, err)
	second, err := loadSalt(kv)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, saltSize)
}

func TestNewSealer_EmptyPassphrase(t *testing.T) {
	_, err := NewSealer("", storage.NewMemoryStore())
	assert.Error(t, err)
}
