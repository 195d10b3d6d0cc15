package chunking

import (
	"strings"
	"testing"
)

func TestSplitterPacksSentences(t *testing.T) {
	s := NewSplitter(40)
	text := "Первое предложение. Второе предложение! Третье предложение?\nЧетвёртая строка"

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if n := len([]rune(c)); n > 40 {
			t.Fatalf("chunk exceeds limit: %d runes in %q", n, c)
		}
	}
	if !strings.HasPrefix(chunks[0], "Первое предложение.") {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
}

func TestSplitterKeepsOversizedSentenceWhole(t *testing.T) {
	s := NewSplitter(10)
	chunks := s.Split("Очень длинное предложение без точки")
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
}

func TestSplitterEmpty(t *testing.T) {
	if got := NewSplitter(0).Split("  \n "); len(got) != 0 {
		t.Fatalf("expected no chunks, got %q", got)
	}
}

func TestSplitterDoesNotBreakDecimals(t *testing.T) {
	chunks := NewSplitter(800).Split("Стоимость 1.5 млн. Срок 2 года.")
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0] != "Стоимость 1.5 млн. Срок 2 года." {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}
