package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.MaxChars() != DefaultMaxChars {
			t.Errorf("expected maxChars %d, got %d", DefaultMaxChars, s.MaxChars())
		}
		if s.Overlap() != DefaultOverlapChars {
			t.Errorf("expected overlap %d, got %d", DefaultOverlapChars, s.Overlap())
		}
	})

	t.Run("custom options", func(t *testing.T) {
		s := New(WithMaxChars(500), WithOverlap(50))
		if s.MaxChars() != 500 || s.Overlap() != 50 {
			t.Errorf("options not applied: %d/%d", s.MaxChars(), s.Overlap())
		}
	})

	t.Run("overlap not below chunk size", func(t *testing.T) {
		s := New(WithMaxChars(100), WithOverlap(150))
		if s.Overlap() >= s.MaxChars() {
			t.Error("overlap should be reduced when it reaches chunk size")
		}
	})

	t.Run("non-positive values ignored", func(t *testing.T) {
		s := New(WithMaxChars(0), WithOverlap(-1))
		if s.MaxChars() != DefaultMaxChars || s.Overlap() != DefaultOverlapChars {
			t.Errorf("expected defaults, got %d/%d", s.MaxChars(), s.Overlap())
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	s := New()
	if got := s.Split(""); len(got) != 0 {
		t.Errorf("expected no segments for empty input, got %d", len(got))
	}
	if got := s.Split("   \n\n  "); len(got) != 0 {
		t.Errorf("expected no segments for whitespace input, got %d", len(got))
	}
}

func TestSplit_Small(t *testing.T) {
	s := New(WithMaxChars(100), WithOverlap(20))
	segs := s.Split("This is a small piece of content.")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "This is a small piece of content." {
		t.Errorf("unexpected text %q", segs[0].Text)
	}
	if segs[0].Start != 0 {
		t.Errorf("expected start 0, got %d", segs[0].Start)
	}
}

func TestSplit_ParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 80) + "\n\n" + strings.Repeat("b", 80)
	s := New(WithMaxChars(100), WithOverlap(10))

	segs := s.Split(text)
	if len(segs) < 2 {
		t.Fatalf("expected at least 2 segments, got %d", len(segs))
	}
	// The first segment should end at the paragraph break, not at the
	// raw 100-char boundary.
	if !strings.HasSuffix(segs[0].Text, "a") || strings.Contains(segs[0].Text, "b") {
		t.Errorf("first segment crossed the paragraph boundary: %q", segs[0].Text)
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	text := "First sentence here. Second sentence follows. " + strings.Repeat("x", 60)
	s := New(WithMaxChars(50), WithOverlap(5))

	segs := s.Split(text)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	if !strings.HasSuffix(segs[0].Text, ".") {
		t.Errorf("expected first segment to end at sentence boundary, got %q", segs[0].Text)
	}
}

func TestSplit_Overlap(t *testing.T) {
	// "AAAA BBBB CCCC DDDD" with max 9 / overlap 4 splits on spaces.
	segs := New(WithMaxChars(9), WithOverlap(4)).Split("AAAA BBBB CCCC DDDD")

	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	for _, seg := range segs {
		if len(seg.Text) > 9 {
			t.Errorf("segment %q exceeds max size", seg.Text)
		}
	}
	// Consecutive segments must overlap or abut: no gaps beyond the
	// designed overlap.
	for i := 1; i < len(segs); i++ {
		if segs[i].Start > segs[i-1].End {
			t.Errorf("gap between segment %d (end %d) and %d (start %d)",
				i-1, segs[i-1].End, i, segs[i].Start)
		}
	}
}

func TestSplit_SizeBound(t *testing.T) {
	text := strings.Repeat("word ", 400)
	s := New(WithMaxChars(64), WithOverlap(16))

	for _, seg := range s.Split(text) {
		if len(seg.Text) > 64 {
			t.Errorf("segment length %d exceeds max 64", len(seg.Text))
		}
	}
}

func TestSplit_LongTokenEmittedWhole(t *testing.T) {
	token := strings.Repeat("x", 300)
	s := New(WithMaxChars(100), WithOverlap(10))

	segs := s.Split(token)
	if len(segs) == 0 {
		t.Fatal("expected at least one segment")
	}
	if segs[0].Text != token {
		t.Errorf("expected the indivisible token emitted whole, got length %d", len(segs[0].Text))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "Some text. More text follows here! And a question? " + strings.Repeat("tail ", 50)
	s := New(WithMaxChars(40), WithOverlap(8))

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic segment count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs between runs", i)
		}
	}
}

func TestSplit_Coverage(t *testing.T) {
	// Concatenating spans in index order must cover the text: each
	// segment starts at or before the previous segment's end.
	text := "Para one.\n\nPara two is a bit longer than the first one. " +
		strings.Repeat("filler sentence goes here. ", 30)
	s := New(WithMaxChars(120), WithOverlap(30))

	segs := s.Split(text)
	if len(segs) < 3 {
		t.Fatalf("expected several segments, got %d", len(segs))
	}
	if segs[0].Start != 0 {
		t.Errorf("coverage must start at 0, got %d", segs[0].Start)
	}
	if segs[len(segs)-1].End != len(text) {
		t.Errorf("coverage must reach end %d, got %d", len(text), segs[len(segs)-1].End)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start > segs[i-1].End {
			t.Errorf("dropped span between segments %d and %d", i-1, i)
		}
	}
}

func TestSplit_RechunkIsNoop(t *testing.T) {
	s := New(WithMaxChars(100), WithOverlap(20))
	text := "One sentence. Another sentence follows. " + strings.Repeat("more text here. ", 20)

	for _, seg := range s.Split(text) {
		if len(seg.Text) > s.MaxChars() {
			continue // indivisible token case
		}
		again := s.Split(seg.Text)
		if len(again) != 1 {
			t.Errorf("re-chunking a below-threshold segment split it into %d", len(again))
		}
	}
}

func TestSegments_Restartable(t *testing.T) {
	s := New(WithMaxChars(30), WithOverlap(5))
	seq := s.Segments("Some input text that will produce a few segments in a row.")

	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first == 0 || first != second {
		t.Errorf("iterator not restartable: %d vs %d", first, second)
	}
}

func TestSplit_MultiByteHardSplit(t *testing.T) {
	// A run of accented characters with no separator in the look-back
	// window forces the hard-split path; the boundary must never land
	// inside a rune.
	text := "word " + strings.Repeat("é", 40)
	s := New(WithMaxChars(20), WithOverlap(5))

	segs := s.Split(text)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	for i, seg := range segs {
		if !utf8.ValidString(seg.Text) {
			t.Errorf("segment %d is not valid UTF-8: %q", i, seg.Text)
		}
	}
	if segs[len(segs)-1].End != len(text) {
		t.Errorf("coverage must reach end %d, got %d", len(text), segs[len(segs)-1].End)
	}
}

func TestSplit_MultiByteText(t *testing.T) {
	text := strings.Repeat("Élément précédé d'un caractère accentué. ", 20)
	s := New(WithMaxChars(35), WithOverlap(10))

	for i, seg := range s.Split(text) {
		if !utf8.ValidString(seg.Text) {
			t.Errorf("segment %d is not valid UTF-8: %q", i, seg.Text)
		}
	}
}

func TestApproxTokenCount(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 100), 25},
	}
	for _, tc := range cases {
		if got := ApproxTokenCount(tc.text); got != tc.want {
			t.Errorf("ApproxTokenCount(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
