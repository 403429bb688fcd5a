// Package chunker splits document text into bounded, overlapping,
// boundary-aware segments for embedding and retrieval.
package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the default number of characters per segment.
const DefaultMaxChars = 1000

// DefaultOverlapChars is the default number of overlapping characters.
const DefaultOverlapChars = 200

// separators is the boundary preference order: paragraph, line,
// sentence, clause, word. A segment prefers to end just after the first
// separator found searching backward from the size boundary.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// lookbackFactor bounds the backward separator search to
// len(separator) * lookbackFactor characters before the boundary.
const lookbackFactor = 10

// Segment is one emitted chunk of text with its position in the source.
type Segment struct {
	// Text is the trimmed segment content.
	Text string

	// Start and End are byte offsets of the untrimmed span in the
	// original text (End exclusive).
	Start int
	End   int

	// TokenCount approximates the token count of Text.
	TokenCount int
}

// Splitter chunks text with a fixed size and overlap.
// The zero value is not usable; construct with New.
type Splitter struct {
	maxChars int
	overlap  int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxChars sets the maximum segment size in characters.
func WithMaxChars(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between consecutive segments in characters.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// New creates a Splitter. An overlap that is not strictly smaller than
// the segment size is reduced to a quarter of it.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlapChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.maxChars {
		s.overlap = s.maxChars / 4
	}
	return s
}

// MaxChars returns the configured segment size.
func (s *Splitter) MaxChars() int { return s.maxChars }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split chunks text into ordered segments. Empty input yields an empty
// slice. Whitespace-only spans are dropped, so returned segments are
// dense over the survivors.
func (s *Splitter) Split(text string) []Segment {
	var segments []Segment
	for seg := range s.Segments(text) {
		segments = append(segments, seg)
	}
	return segments
}

// Segments returns a restartable iterator over the segments of text.
// Iteration is lazy: each segment is computed on demand.
func (s *Splitter) Segments(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		n := len(text)
		start := 0

		for start < n {
			end := start + s.maxChars
			if end >= n {
				end = n
			} else if pos, ok := breakPoint(text, start, end); ok {
				end = pos
			} else if !strings.ContainsAny(text[start:end], " \t\n\r") {
				// The span is a single indivisible token. Emit it whole
				// even though it exceeds the nominal size cap.
				end = endOfToken(text, end)
			} else {
				// Hard split: the size boundary may sit inside a
				// multi-byte rune. Back up so both halves stay valid.
				end = runeStart(text, end)
				if end <= start {
					_, size := utf8.DecodeRuneInString(text[start:])
					end = start + size
				}
			}

			trimmed := strings.TrimSpace(text[start:end])
			if trimmed != "" {
				seg := Segment{
					Text:       trimmed,
					Start:      start,
					End:        end,
					TokenCount: ApproxTokenCount(trimmed),
				}
				if !yield(seg) {
					return
				}
			}

			if end >= n {
				return
			}

			// The rune-size floor guarantees forward progress even when
			// the overlap would otherwise stall the cursor. The overlap
			// cursor is snapped to a rune start, never mid-rune.
			next := end - s.overlap
			if next > start {
				next = runeStart(text, next)
			}
			if next <= start {
				_, size := utf8.DecodeRuneInString(text[start:])
				next = start + size
			}
			start = next
		}
	}
}

// breakPoint searches backward from the size boundary for the first
// separator in preference order, within a bounded look-back window.
// The separator is retained with the preceding text. Returns false if
// no separator level matched, in which case the caller falls back to
// the raw boundary.
func breakPoint(text string, start, end int) (int, bool) {
	for _, sep := range separators {
		windowStart := end - len(sep)*lookbackFactor
		if windowStart < start {
			windowStart = start
		}

		idx := strings.LastIndex(text[windowStart:end], sep)
		if idx < 0 {
			continue
		}
		pos := windowStart + idx
		if pos > start {
			return pos + len(sep), true
		}
	}
	return end, false
}

// runeStart backs pos up to the start of the rune containing it. pos
// must index into text.
func runeStart(text string, pos int) int {
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// endOfToken extends pos to the end of the current whitespace-free run.
func endOfToken(text string, pos int) int {
	for pos < len(text) && !isSpace(text[pos]) {
		pos++
	}
	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ApproxTokenCount estimates tokens as ceil(len/4), floored at 1 for
// non-empty text. A crude stand-in for a real tokenizer; the context
// budget downstream is sized to tolerate its error.
func ApproxTokenCount(text string) int {
	if text == "" {
		return 0
	}
	count := (len(text) + 3) / 4
	if count < 1 {
		count = 1
	}
	return count
}
