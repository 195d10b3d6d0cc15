package catalog

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

const minPlanLineRunes = 4

var pageFurniture = []string{"страница", "page", "итмо", "университет", "семестр:"}

// PlanImporter reads course names from academic plan files. Rows for which
// skip returns true are dropped.
type PlanImporter struct {
	skip func(string) bool
}

func NewPlanImporter(skip func(string) bool) *PlanImporter {
	if skip == nil {
		skip = func(string) bool { return false }
	}
	return &PlanImporter{skip: skip}
}

// Import dispatches on the file extension (.xlsx or .pdf).
func (p *PlanImporter) Import(path string) ([]domain.CourseEntry, error) {
	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		names, err = p.xlsxNames(path)
	case ".pdf":
		names, err = p.pdfNames(path)
	default:
		err = fmt.Errorf("unsupported academic plan format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("import plan %s: %w", path, err)
	}

	entries := make([]domain.CourseEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, domain.CourseEntry{Name: n})
	}
	return entries, nil
}

// Enrich fills empty curricula from academic plan files. Relative plan
// paths resolve against baseDir. Import failures are logged and skipped.
func (p *PlanImporter) Enrich(programs []domain.Program, baseDir string) []domain.Program {
	out := make([]domain.Program, len(programs))
	copy(out, programs)
	for i := range out {
		prog := &out[i]
		if len(prog.Curriculum) > 0 || strings.TrimSpace(prog.AcademicPlan) == "" {
			continue
		}
		path := prog.AcademicPlan
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		entries, err := p.Import(path)
		if err != nil {
			slog.Warn("academic_plan_import_failed", "program", prog.Title, "path", path, "error", err)
			continue
		}
		prog.Curriculum = entries
		slog.Info("academic_plan_imported", "program", prog.Title, "courses", len(entries))
	}
	return out
}

func (p *PlanImporter) xlsxNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := normalizeSpace(row[0])
		if name == "" || isHeaderCell(name) || p.skip(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func (p *PlanImporter) pdfNames(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, err
	}

	var names []string
	for _, line := range PlanLines(buf.String()) {
		if !p.skip(line) {
			names = append(names, line)
		}
	}
	return names, nil
}

// PlanLines keeps lines of extracted plan text that look like course names:
// long enough, not page furniture, starting with a letter and containing a
// lowercase letter.
func PlanLines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := normalizeSpace(raw)
		if utf8.RuneCountInString(line) < minPlanLineRunes {
			continue
		}
		lower := strings.ToLower(line)
		furniture := false
		for _, f := range pageFurniture {
			if strings.Contains(lower, f) {
				furniture = true
				break
			}
		}
		if furniture {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		if !unicode.IsLetter(first) || !strings.ContainsFunc(line, unicode.IsLower) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isHeaderCell(name string) bool {
	lower := strings.ToLower(name)
	return lower == "№" || strings.HasPrefix(lower, "наименование") || lower == "дисциплина" || lower == "name"
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
