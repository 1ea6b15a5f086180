// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// WIRE CONSTANTS
// =============================================================================

const (
	// DataPrefix marks a data-bearing line.
	DataPrefix = "data: "

	// Sentinel is the payload that terminates the stream.
	Sentinel = "[DONE]"

	// dataMarker is DataPrefix without its separating space.
	dataMarker = "data:"
)

// =============================================================================
// FRAME TYPES
// =============================================================================

// Kind distinguishes the two frame variants.
type Kind int

const (
	KindDelta Kind = iota
	KindTerminator
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDelta:
		return "delta"
	case KindTerminator:
		return "terminator"
	default:
		return "unknown"
	}
}

// Frame is one decoded event. Text is set only for KindDelta.
type Frame struct {
	Kind Kind
	Text string
}

// Delta returns a text delta frame.
func Delta(text string) Frame {
	return Frame{Kind: KindDelta, Text: text}
}

// Terminator returns the end-of-stream frame.
func Terminator() Frame {
	return Frame{Kind: KindTerminator}
}

// IsTerminator reports whether f ends the stream.
func (f Frame) IsTerminator() bool {
	return f.Kind == KindTerminator
}

// Anomaly describes a malformed line that was skipped.
type Anomaly struct {
	Line   string
	Reason string
}

// Texts splits frames into their delta texts and whether a terminator was
// among them.
func Texts(frames []Frame) (deltas []string, terminated bool) {
	for _, f := range frames {
		if f.IsTerminator() {
			terminated = true
			continue
		}
		deltas = append(deltas, f.Text)
	}
	return deltas, terminated
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder turns raw body chunks into frames.
type Decoder struct {
	// OnAnomaly is called for every skipped malformed line. It defaults to
	// logging the line; set it to nil to drop anomalies silently.
	OnAnomaly func(Anomaly)

	utf8      transform.Transformer
	pending   []byte // incomplete trailing UTF-8 sequence
	carry     string // incomplete trailing line
	done      bool
	anomalies int
}

// NewDecoder creates a decoder for one stream.
func NewDecoder() *Decoder {
	return &Decoder{
		OnAnomaly: logAnomaly,
		utf8:      unicode.UTF8.NewDecoder(),
	}
}

// Feed decodes the next chunk and returns the frames completed by it, in
// order. After a terminator has been emitted every further call returns nil.
func (d *Decoder) Feed(chunk []byte) []Frame {
	if d.done || len(chunk) == 0 {
		return nil
	}
	d.carry += d.decode(chunk)
	return d.drain()
}

// Finish ends the stream and returns the incomplete trailing line that was
// discarded, if any. A partial line is never emitted as a frame.
func (d *Decoder) Finish() string {
	discarded := d.carry
	if len(d.pending) > 0 {
		discarded += string(utf8.RuneError)
	}
	d.carry = ""
	d.pending = nil
	d.done = true
	return discarded
}

// Done reports whether the terminator was seen or Finish was called.
func (d *Decoder) Done() bool {
	return d.done
}

// Anomalies returns the number of malformed lines skipped so far.
func (d *Decoder) Anomalies() int {
	return d.anomalies
}

// decode converts chunk, prefixed by any pending partial sequence, to text.
// A trailing incomplete sequence is held back for the next call; invalid
// bytes become U+FFFD.
func (d *Decoder) decode(chunk []byte) string {
	src := make([]byte, 0, len(d.pending)+len(chunk))
	src = append(append(src, d.pending...), chunk...)
	d.pending = nil

	dst := make([]byte, len(src)*3+utf8.UTFMax)
	var out strings.Builder
	for {
		nDst, nSrc, err := d.utf8.Transform(dst, src, false)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch err {
		case transform.ErrShortDst:
			dst = make([]byte, len(dst)*2)
			continue
		case transform.ErrShortSrc:
			d.pending = append([]byte(nil), src...)
		}
		return out.String()
	}
}

// drain emits a frame for every complete line in the carry-over buffer.
func (d *Decoder) drain() []Frame {
	var frames []Frame
	for !d.done {
		i := strings.IndexByte(d.carry, '\n')
		if i < 0 {
			break
		}
		line := d.carry[:i]
		d.carry = d.carry[i+1:]

		f, ok := d.parseLine(line)
		if !ok {
			continue
		}
		frames = append(frames, f)
		if f.IsTerminator() {
			d.done = true
			d.carry = ""
			d.pending = nil
		}
	}
	return frames
}

func (d *Decoder) parseLine(line string) (Frame, bool) {
	if !strings.HasPrefix(line, DataPrefix) {
		if strings.HasPrefix(line, dataMarker) {
			d.anomaly(line, "data marker without separating space")
		}
		// Blank separators, comments and other fields carry nothing.
		return Frame{}, false
	}

	payload := strings.TrimSpace(line[len(DataPrefix):])
	switch payload {
	case Sentinel:
		return Terminator(), true
	case "":
		return Frame{}, false
	}
	return Delta(payload), true
}

func (d *Decoder) anomaly(line, reason string) {
	d.anomalies++
	if d.OnAnomaly != nil {
		d.OnAnomaly(Anomaly{Line: line, Reason: reason})
	}
}

func logAnomaly(a Anomaly) {
	log.Printf("Stream: skipping malformed line (%s): %q", a.Reason, util.TruncateRunes(a.Line, 80))
}
