// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat endpoint's server-sent event body into
// frames.
//
// The body is newline-delimited UTF-8 text. Lines of the form "data: <payload>"
// carry text deltas and the payload "[DONE]" ends the stream. Physical reads
// may split a line, or a multi-byte character, anywhere; the Decoder carries
// the incomplete remainder over to the next Feed so the emitted frames depend
// only on the bytes, never on how they were chunked.
//
// A Decoder is single-use: create one per response body.
package stream
