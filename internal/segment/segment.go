// Package segment splits page content into position-tracked sentence spans.
package segment

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// DefaultMinLength drops spans shorter than this many characters. Very short
// candidates are usually headers, labels, or list bullets rather than prose.
const DefaultMinLength = 10

// SentenceSpan is one retained sentence. Start and End are offsets into the
// whitespace-normalized text, not the raw input.
type SentenceSpan struct {
	Text  string
	Start int
	End   int
	Index int
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

// punktTokenizer returns the shared English Punkt tokenizer. Building it
// parses embedded training data, so it is done once per process.
func punktTokenizer() *sentences.DefaultSentenceTokenizer {
	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			panic("segment: load english tokenizer: " + err.Error())
		}
		tokenizer = t
	})
	return tokenizer
}

// Segment splits text into sentences with position tracking. Whitespace runs
// are collapsed to single spaces before segmentation, so offsets refer to the
// normalized string. Candidates shorter than minLength are dropped without
// consuming an index. A minLength of zero or less uses DefaultMinLength.
func Segment(text string, minLength int) []SentenceSpan {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	// Length thresholds count characters, not bytes, so multibyte text is
	// filtered the same as ASCII.
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minLength {
		return nil
	}

	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	var spans []SentenceSpan
	cursor := 0
	for _, s := range punktTokenizer().Tokenize(cleaned) {
		candidate := strings.TrimSpace(s.Text)
		if candidate == "" {
			continue
		}

		// Leftmost match at or after the previous sentence's end. Falling
		// back to the cursor keeps offsets sane if the tokenizer rewrote
		// anything.
		start := cursor
		if idx := strings.Index(cleaned[cursor:], candidate); idx >= 0 {
			start = cursor + idx
		}
		end := start + len(candidate)

		if utf8.RuneCountInString(candidate) >= minLength {
			spans = append(spans, SentenceSpan{
				Text:  candidate,
				Start: start,
				End:   end,
				Index: len(spans),
			})
		}
		cursor = end
	}

	return spans
}
