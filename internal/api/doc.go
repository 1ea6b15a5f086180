// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api wraps the advising service endpoints: transcript upload,
// course recommendations, scholarships, and summary PDFs.
//
// Every call goes through transport.Client, so the bearer token, the
// deadline, and session invalidation apply uniformly. The client also keeps
// the small amount of local state the chat relies on (the last
// recommendation and transcript IDs, and the uploaded document history).
package api
