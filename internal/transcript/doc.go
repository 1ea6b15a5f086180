// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript builds the streamed assistant reply.
//
// Each delta is normalized on its own (see Normalize) and joined to the open
// message with a single space. Because normalized text is trimmed and the
// joining space blocks every repair rule at the seam, the incremental result
// is identical to renormalizing the whole message after every delta, without
// the quadratic cost.
package transcript
