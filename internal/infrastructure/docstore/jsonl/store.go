package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/storage/localfs"
)

const FileName = "docs.jsonl"

const maxLineBytes = 4 << 20

// Store is an immutable in-memory view of docs.jsonl. Line order defines
// document positions.
type Store struct {
	docs  []domain.Document
	facts map[string]int
}

func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "open document store", err)
	}
	defer f.Close()

	store := &Store{facts: make(map[string]int)}
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var doc domain.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, domain.WrapError(domain.ErrArtifact, "decode document store", fmt.Errorf("line %d: %w", line, err))
		}
		if doc.ID == "" {
			return nil, domain.WrapError(domain.ErrArtifact, "decode document store", fmt.Errorf("line %d: empty id", line))
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, domain.WrapError(domain.ErrArtifact, "decode document store", fmt.Errorf("line %d: duplicate id %q", line, doc.ID))
		}
		seen[doc.ID] = struct{}{}

		if doc.Meta.Section == domain.SectionFacts && doc.Meta.ProgramTitle != "" {
			key := domain.ProgramKey(doc.Meta.ProgramTitle)
			if _, ok := store.facts[key]; !ok {
				store.facts[key] = len(store.docs)
			}
		}
		store.docs = append(store.docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "read document store", err)
	}
	if len(store.docs) == 0 {
		return nil, domain.WrapError(domain.ErrArtifact, "read document store", errors.New("no documents"))
	}
	return store, nil
}

func (s *Store) All() []domain.Document {
	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Store) Len() int {
	return len(s.docs)
}

func (s *Store) ByPosition(position int) (domain.Document, bool) {
	if position < 0 || position >= len(s.docs) {
		return domain.Document{}, false
	}
	return s.docs[position], true
}

// Facts looks the facts document up by program title, ignoring case and
// whitespace differences.
func (s *Store) Facts(programTitle string) (domain.Document, bool) {
	pos, ok := s.facts[domain.ProgramKey(programTitle)]
	if !ok {
		return domain.Document{}, false
	}
	return s.docs[pos], true
}

// Writer persists documents as docs.jsonl inside an index directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Write(_ context.Context, docs []domain.Document, _ [][]float32, _ string) error {
	return WriteFile(filepath.Join(w.dir, FileName), docs)
}

func WriteFile(path string, docs []domain.Document) error {
	return localfs.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, d := range docs {
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("encode document %s: %w", d.ID, err)
			}
		}
		return nil
	})
}
