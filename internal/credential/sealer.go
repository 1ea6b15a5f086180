// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/edusphere/edusphere-tui/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SealedPrefix marks a sealed value (format: ENC:base64(nonce|ciphertext|tag)).
const SealedPrefix = "ENC:"

const (
	keySize  = 32
	saltSize = 32

	// pbkdf2Iterations follows the OWASP 2023 guidance for PBKDF2-SHA-256.
	pbkdf2Iterations = 600000
)

// ErrSealed is returned when a sealed token cannot be opened.
var ErrSealed = errors.New("cannot unseal stored token")

// =============================================================================
// SEALER
// =============================================================================

// Sealer encrypts tokens with AES-256-GCM under a passphrase-derived key.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from passphrase. The salt is read from
// kv, or generated and saved on first use.
func NewSealer(passphrase string, kv storage.KV) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	salt, err := loadSalt(kv)
	if err != nil {
		return nil, err
	}
	return newSealer(passphrase, salt, pbkdf2Iterations)
}

func newSealer(passphrase string, salt []byte, iterations int) (*Sealer, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

func loadSalt(kv storage.KV) ([]byte, error) {
	encoded, ok, err := kv.Get(storage.KeyTokenSalt)
	if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(salt) != saltSize {
			return nil, fmt.Errorf("%w: corrupt salt", ErrSealed)
		}
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := kv.Set(storage.KeyTokenSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("save salt: %w", err)
	}
	return salt, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", fmt.Errorf("%w: missing %s prefix", ErrSealed, SealedPrefix)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealed, err)
	}
	n := s.aead.NonceSize()
	if len(data) < n+s.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrSealed)
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: wrong passphrase or tampered data", ErrSealed)
	}
	return string(plain), nil
}

// IsSealed reports whether v carries the sealed prefix.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, SealedPrefix)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
