package chatbox

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// DefaultNames are the proper names emphasised in assistant replies.
var DefaultNames = []string{"Can Whardana Saragih", "Feronicha Charly"}

const boldDelimiter = "**"

var boldSpan = regexp.MustCompile(`\*\*.*?\*\*`)

// Highlighter wraps whole-word, case-insensitive occurrences of a fixed list of names in bold markup.
// It is safe for concurrent use.
type Highlighter struct {
	re *regexp.Regexp
}

// Segment is a run of reply text that is rendered either plain or bold.
type Segment struct {
	Text string
	Bold bool
}

// NewHighlighter creates a Highlighter for the given names. Blank names are ignored; with no names left
// the Highlighter returns its input unchanged.
func NewHighlighter(names ...string) Highlighter {
	var alts []string
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		alts = append(alts, n)
	}
	if len(alts) == 0 {
		return Highlighter{}
	}

	// RE2 alternation is leftmost-first, so ordering the alternatives longest-first makes the longest
	// name win at any position. A single pass also means a match is never wrapped twice.
	slices.SortStableFunc(alts, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	for i := range alts {
		alts[i] = regexp.QuoteMeta(alts[i])
	}

	return Highlighter{
		re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`),
	}
}

// Highlight returns text with every configured name wrapped in "**". The matched bytes are kept as they
// appear in text; everything else is left untouched.
func (h Highlighter) Highlight(text string) string {
	if h.re == nil {
		return text
	}
	return h.re.ReplaceAllString(text, boldDelimiter+"${0}"+boldDelimiter)
}

// Segments splits highlighted text on "**…**" spans. Plain and bold segments alternate, starting and
// ending with a plain segment that may be empty, and the delimiters are dropped from bold segments.
// Concatenating the segments' Text gives back the input minus the delimiters.
func Segments(text string) []Segment {
	locs := boldSpan.FindAllStringIndex(text, -1)
	segments := make([]Segment, 0, 2*len(locs)+1)

	prev := 0
	for _, loc := range locs {
		segments = append(segments,
			Segment{Text: text[prev:loc[0]]},
			Segment{Text: text[loc[0]+len(boldDelimiter) : loc[1]-len(boldDelimiter)], Bold: true},
		)
		prev = loc[1]
	}
	return append(segments, Segment{Text: text[prev:]})
}
