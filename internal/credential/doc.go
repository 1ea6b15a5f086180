// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential holds the bearer token of the active session.
//
// A Store is created once per client session and handed to the transport
// client and the auth manager; there is no package-level token. The token is
// cached in memory and persisted through a storage.KV under the
// "access_token" key so a restarted client resumes the session. When a
// Sealer is configured the persisted value is AES-256-GCM encrypted with a
// passphrase-derived key.
package credential
