// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"math/rand"
	"reflect"
	"testing"
)

// feedAll runs chunks through a fresh decoder and collects every frame.
func feedAll(chunks ...[]byte) ([]Frame, *Decoder) {
	d := NewDecoder()
	d.OnAnomaly = nil
	var frames []Frame
	for _, c := range chunks {
		frames = append(frames, d.Feed(c)...)
	}
	return frames, d
}

func TestDecoder_SplitLines(t *testing.T) {
	frames, d := feedAll(
		[]byte("data: Hel"),
		[]byte("lo\ndata: Wor"),
		[]byte("ld\ndata: [DONE]\n"),
	)

	want := []Frame{Delta("Hello"), Delta("World"), Terminator()}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("Got %v, want %v", frames, want)
	}
	if !d.Done() {
		t.Error("decoder should be done after the terminator")
	}
}

// mixedStream exercises comments, blank lines, a malformed line, multi-byte
// text and frames after the terminator.
var mixedStream = []byte("data: Hél\n" +
	": keep-alive\n" +
	"\n" +
	"data: lo 日本\r\n" +
	"data:bad\n" +
	"event: message\n" +
	"data:    \n" +
	"data: 🎓 done\n" +
	"data: [DONE]\n" +
	"data: after\n")

var mixedWant = []Frame{
	Delta("Hél"),
	Delta("lo 日本"),
	Delta("🎓 done"),
	Terminator(),
}

func TestDecoder_ChunkBoundaryIndependence(t *testing.T) {
	whole, _ := feedAll(mixedStream)
	if !reflect.DeepEqual(whole, mixedWant) {
		t.Fatalf("single chunk: got %v, want %v", whole, mixedWant)
	}

	for i := 0; i <= len(mixedStream); i++ {
		got, _ := feedAll(mixedStream[:i], mixedStream[i:])
		if !reflect.DeepEqual(got, mixedWant) {
			t.Fatalf("split at %d: got %v, want %v", i, got, mixedWant)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	chunks := make([][]byte, len(mixedStream))
	for i := range mixedStream {
		chunks[i] = mixedStream[i : i+1]
	}
	got, _ := feedAll(chunks...)
	if !reflect.DeepEqual(got, mixedWant) {
		t.Errorf("Got %v, want %v", got, mixedWant)
	}
}

func TestDecoder_RandomChunkings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		var chunks [][]byte
		rest := mixedStream
		for len(rest) > 0 {
			n := 1 + rng.Intn(7)
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		got, _ := feedAll(chunks...)
		if !reflect.DeepEqual(got, mixedWant) {
			t.Fatalf("iteration %d: got %v, want %v", iter, got, mixedWant)
		}
	}
}

func TestDecoder_SplitInsideRune(t *testing.T) {
	b := []byte("data: 日本\n")
	// "日" starts at offset 6 and is three bytes long.
	frames, _ := feedAll(b[:7], b[7:8], b[8:])
	want := []Frame{Delta("日本")}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("Got %v, want %v", frames, want)
	}
}

func TestDecoder_InvalidUTF8Replaced(t *testing.T) {
	frames, _ := feedAll([]byte("data: a\xffb\n"))
	want := []Frame{Delta("a�b")}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("Got %v, want %v", frames, want)
	}
}

func TestDecoder_AnomalyReported(t *testing.T) {
	var seen []Anomaly
	d := NewDecoder()
	d.OnAnomaly = func(a Anomaly) { seen = append(seen, a) }

	frames := d.Feed([]byte("data:oops\ndata: fine\n"))

	if want := []Frame{Delta("fine")}; !reflect.DeepEqual(frames, want) {
		t.Errorf("Got %v, want %v", frames, want)
	}
	if d.Anomalies() != 1 || len(seen) != 1 {
		t.Fatalf("anomalies = %d (hook saw %d), want 1", d.Anomalies(), len(seen))
	}
	if seen[0].Line != "data:oops" {
		t.Errorf("anomaly line = %q", seen[0].Line)
	}
}

func TestDecoder_NothingAfterTerminator(t *testing.T) {
	d := NewDecoder()
	_ = d.Feed([]byte("data: [DONE]\ndata: ignored\n"))
	if got := d.Feed([]byte("data: late\n")); got != nil {
		t.Errorf("Feed after terminator returned %v", got)
	}
}

func TestDecoder_FinishDiscardsPartialLine(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("data: one\ndata: tw"))
	if want := []Frame{Delta("one")}; !reflect.DeepEqual(frames, want) {
		t.Errorf("Got %v, want %v", frames, want)
	}

	if got := d.Finish(); got != "data: tw" {
		t.Errorf("Finish discarded %q, want %q", got, "data: tw")
	}
	if !d.Done() {
		t.Error("decoder should be done after Finish")
	}
	if got := d.Feed([]byte("o\n")); got != nil {
		t.Errorf("Feed after Finish returned %v", got)
	}
}

func TestDecoder_FinishWithPendingRune(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("data: \xe6\x97"))
	if got := d.Finish(); got != "data: �" {
		t.Errorf("Finish discarded %q", got)
	}
}

func TestTexts(t *testing.T) {
	deltas, done := Texts([]Frame{Delta("a"), Delta("b"), Terminator()})
	if !reflect.DeepEqual(deltas, []string{"a", "b"}) || !done {
		t.Errorf("Texts = %v, %v", deltas, done)
	}
	if _, done := Texts([]Frame{Delta("a")}); done {
		t.Error("no terminator expected")
	}
}

func TestKindString(t *testing.T) {
	if KindDelta.String() != "delta" || KindTerminator.String() != "terminator" {
		t.Error("unexpected kind names")
	}
}
