// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the client's persisted key-value state.
//
// It holds what a browser would keep in local storage: the access token,
// the signed-in user's profile, and continuity values such as the last
// recommendation and the uploaded documents. Values survive restarts until
// they are explicitly deleted.
//
// # Key Types
//
//   - KV: the get/set/delete contract consumed by credential, auth and api
//   - LocalStore: SQLite-backed KV at ~/.edusphere/state.db
//   - MemoryStore: in-process KV for tests and --ephemeral runs
//
// # Usage
//
//	store, err := storage.Open(path)
//	defer store.Close()
//	_ = store.Set(storage.KeyLastRecoID, "42")
//	id, ok, err := store.Get(storage.KeyLastRecoID)
package storage
