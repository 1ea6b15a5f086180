// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport performs authenticated exchanges with the advising API.
//
// Every request passes through one Client, which injects the bearer token
// from a credential.Store and classifies the outcome:
//
//  1. 401 on a path outside the download exemption ends the session: the
//     credential is cleared, subscribers are notified and the caller gets a
//     *SessionInvalidatedError.
//  2. A deadline overrun becomes a *TimeoutError.
//  3. Anything else is returned as is (*NetworkError, *HTTPError or the
//     response).
//
// # Key Types
//
//   - Client: Send, Stream and Download over one policy
//   - Envelope: method, path, body and extra headers of a request
//   - Policy: the pure classification decision, see Classify
//
// # Security
//
// The Authorization header and request bodies are never logged.
package transport
