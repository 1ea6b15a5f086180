// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere-tui/internal/model"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"escaped newline", `one\ntwo`, "one two"},
		{"escaped tab", `a\tb`, "a b"},
		{"whitespace run", "  a \t\n  b  ", "a b"},
		{"triple asterisk", "***bold***", "**bold**"},
		{"long asterisk run", "a*****b", "a**b"},
		{"case boundary", "moreTextHere", "more Text Here"},
		{"unicode case boundary", "écoleÉté", "école Été"},
		{"acronym untouched", "HTML and CSS", "HTML and CSS"},
		{"digit then upper untouched", "CS101A", "CS101A"},
		{"only whitespace", " \\n ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a", Join("", "a"))
	assert.Equal(t, "a", Join("a", ""))
	assert.Equal(t, "a b", Join("a", "b"))
	assert.Equal(t, "", Join("", ""))
}

func TestBuilder_BoldAndCaseRepair(t *testing.T) {
	conv := model.NewConversation()
	b := NewBuilder(conv)

	_, err := b.Open()
	require.NoError(t, err)
	b.Apply("Hi***bold***")
	b.Apply("moreTextHere")
	require.True(t, b.Close())

	last, ok := conv.Last()
	require.True(t, ok)
	assert.Equal(t, "Hi**bold** more Text Here", last.Content)
	assert.False(t, last.Open)
}

func TestBuilder_ApplyAllMatchesApply(t *testing.T) {
	deltas := []string{"Your", "next\\nterm", "", "  ", "***Data***Science", "fitsWell"}

	one := model.NewConversation()
	b1 := NewBuilder(one)
	_, _ = b1.Open()
	for _, d := range deltas {
		b1.Apply(d)
	}

	all := model.NewConversation()
	b2 := NewBuilder(all)
	_, _ = b2.Open()
	b2.ApplyAll(deltas)

	l1, _ := one.Last()
	l2, _ := all.Last()
	assert.Equal(t, l1.Content, l2.Content)
	assert.Equal(t, "Your next term **Data**Science fits Well", l2.Content)
}

// The join must give the same text as renormalizing the full concatenation.
func TestBuilder_IncrementalEqualsCumulative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pieces := []string{"a", "B", "*", "**", " ", `\n`, `\t`, "é", "Ü", "x", "\t", "\n", "1"}

	for iter := 0; iter < 300; iter++ {
		conv := model.NewConversation()
		b := NewBuilder(conv)
		_, _ = b.Open()

		cumulative := ""
		for n := rng.Intn(8); n >= 0; n-- {
			var sb strings.Builder
			for k := rng.Intn(6); k >= 0; k-- {
				sb.WriteString(pieces[rng.Intn(len(pieces))])
			}
			delta := sb.String()
			b.Apply(delta)
			cumulative = Join(cumulative, Normalize(delta))
			cumulative = Normalize(cumulative)
		}
		b.Close()

		last, _ := conv.Last()
		content := last.Content
		if content != strings.TrimSpace(content) {
			t.Fatalf("iteration %d: untrimmed content %q", iter, content)
		}
		if strings.Contains(content, "***") {
			t.Fatalf("iteration %d: triple asterisk in %q", iter, content)
		}
		if content != cumulative {
			t.Fatalf("iteration %d: incremental %q != cumulative %q", iter, content, cumulative)
		}
	}
}

func TestBuilder_ApplyWithoutOpenPanics(t *testing.T) {
	b := NewBuilder(model.NewConversation())
	assert.Panics(t, func() { b.Apply("x") })
}

func TestBuilder_ApplyAfterClosePanics(t *testing.T) {
	b := NewBuilder(model.NewConversation())
	_, _ = b.Open()
	b.Apply("x")
	b.Close()
	assert.False(t, b.Building())
	assert.Panics(t, func() { b.Apply("y") })
}

func TestBuilder_OpenTwice(t *testing.T) {
	b := NewBuilder(model.NewConversation())
	_, err := b.Open()
	require.NoError(t, err)
	_, err = b.Open()
	assert.ErrorIs(t, err, model.ErrMessageOpen)
}
