package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

type CorpusBuilder struct {
	chunker ports.Chunker
}

func NewCorpusBuilder(chunker ports.Chunker) *CorpusBuilder {
	return &CorpusBuilder{chunker: chunker}
}

// BuildDocuments turns catalog programs into indexable documents: description
// passages, one facts line, one document per course and a contacts line.
func (b *CorpusBuilder) BuildDocuments(programs []domain.Program) []domain.Document {
	docs := make([]domain.Document, 0, len(programs)*16)
	for _, p := range programs {
		docs = append(docs, b.programDocuments(p)...)
	}
	return docs
}

func (b *CorpusBuilder) programDocuments(p domain.Program) []domain.Document {
	meta := func(section domain.Section) domain.DocumentMeta {
		return domain.DocumentMeta{
			ProgramTitle: p.Title,
			ProgramURL:   p.URL,
			ProgramCode:  p.Code,
			Section:      section,
		}
	}

	var out []domain.Document
	for i, chunk := range b.chunker.Split(p.Description) {
		out = append(out, domain.Document{
			ID:   fmt.Sprintf("%s:desc:%d", p.Title, i),
			Text: chunk,
			Meta: meta(domain.SectionDescription),
		})
	}

	if facts := factsLine(p); facts != "" {
		out = append(out, domain.Document{
			ID:   FactsDocumentID(p.Title),
			Text: facts,
			Meta: meta(domain.SectionFacts),
		})
	}

	seen := make(map[string]struct{}, len(p.Curriculum))
	for _, c := range p.Curriculum {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, domain.Document{
			ID:   fmt.Sprintf("%s:course:%s", p.Title, name),
			Text: courseLine(name, c),
			Meta: meta(domain.SectionCourse),
		})
	}

	if len(p.Contacts) > 0 {
		out = append(out, domain.Document{
			ID:   fmt.Sprintf("%s:contacts", p.Title),
			Text: contactsLine(p.Contacts),
			Meta: meta(domain.SectionContacts),
		})
	}
	return out
}

func FactsDocumentID(programTitle string) string {
	return programTitle + ":facts"
}

func factsLine(p domain.Program) string {
	var facts []string
	if p.Tuition != "" {
		facts = append(facts, "Стоимость: "+p.Tuition)
	}
	if p.Duration != "" {
		facts = append(facts, "Срок обучения: "+p.Duration)
	}
	if p.Language != "" {
		facts = append(facts, "Язык обучения: "+p.Language)
	}
	if p.Faculty != "" {
		facts = append(facts, "Факультет: "+p.Faculty)
	}
	return strings.Join(facts, "; ")
}

func courseLine(name string, c domain.CourseEntry) string {
	line := name
	if c.Type != "" {
		line += " | тип: " + c.Type
	}
	if c.Semester != "" {
		line += " | семестр: " + c.Semester
	}
	return line
}

func contactsLine(contacts map[string]string) string {
	keys := make([]string, 0, len(contacts))
	for k := range contacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+contacts[k])
	}
	return strings.Join(pairs, "; ")
}
