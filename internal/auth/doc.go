// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements login, registration and logout against the
// advising service.
//
// A successful login stores the access token in the credential store and
// the user profile under the "user" key, so Restore can resume the session
// after a restart. Registration may or may not return a token; without one
// the user has to log in explicitly.
package auth
