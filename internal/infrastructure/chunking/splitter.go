package chunking

import (
	"strings"
	"unicode"
)

const defaultMaxRunes = 800

// Splitter breaks text into sentences and packs them into passages of
// bounded rune length.
type Splitter struct {
	MaxRunes int
}

func NewSplitter(maxRunes int) *Splitter {
	if maxRunes <= 0 {
		maxRunes = defaultMaxRunes
	}
	return &Splitter{MaxRunes: maxRunes}
}

func (s *Splitter) Split(text string) []string {
	parts := splitSentences(text)
	if len(parts) == 0 {
		return nil
	}

	out := make([]string, 0, len(parts))
	buf := make([]string, 0, 8)
	total := 0
	for _, p := range parts {
		size := len([]rune(p)) + 1
		if total+size > s.MaxRunes && len(buf) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(buf, " ")))
			buf, total = buf[:0], 0
		}
		buf = append(buf, p)
		total += size
	}
	if len(buf) > 0 {
		out = append(out, strings.TrimSpace(strings.Join(buf, " ")))
	}
	return out
}

// splitSentences cuts after sentence punctuation followed by whitespace and
// at every line break.
func splitSentences(text string) []string {
	var parts []string
	var b strings.Builder
	flush := func() {
		if p := strings.TrimSpace(b.String()); p != "" {
			parts = append(parts, p)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		b.WriteRune(r)
		if isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()
	return parts
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}
