package usecase

import (
	"sort"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/fuzzy"
)

const (
	DefaultRecommendTopK = 7
	DefaultCompareTopK   = 5
	DefaultCompareLimit  = 2
	DefaultPlanLimit     = 30

	longHeadingRunes = 80
	// maxBackgroundRunes bounds the part of a background scored against
	// each course; the rest is ignored.
	maxBackgroundRunes = 600
)

var headingKeywords = []string{
	"учебный план",
	"наименование модулей",
	"блок",
	"обязательн",
	"пул выборных",
	"аттестац",
	"практик",
	"индивидуальная профессиональная подготовка",
}

// IsHeading reports whether a curriculum line is a section title rather
// than a course.
func IsHeading(name string) bool {
	nl := strings.ToLower(strings.TrimSpace(name))
	if nl == "" {
		return true
	}
	if containsAny(nl, headingKeywords) {
		return true
	}
	if strings.HasSuffix(nl, "семестр") || strings.Contains(nl, " семестр") {
		return true
	}
	// long lines without parentheses or commas are section titles
	if len([]rune(nl)) > longHeadingRunes && !strings.ContainsAny(nl, "(,") {
		return true
	}
	return false
}

type Recommender struct {
	score fuzzy.Scorer
}

func NewRecommender() *Recommender {
	return &Recommender{score: fuzzy.MaxOf(fuzzy.PartialRatio, fuzzy.TokenSetRatio)}
}

// RecommendElectives ranks non-heading curriculum entries by fuzzy overlap
// with the background. Equal scores keep curriculum order.
func (r *Recommender) RecommendElectives(background string, program domain.Program, topK int) []domain.Elective {
	names := courseNames(program)
	if len(names) == 0 {
		return nil
	}

	query := backgroundQuery(background)
	scored := make([]domain.Elective, 0, len(names))
	for _, name := range names {
		scored = append(scored, domain.Elective{
			Name:  name,
			Score: clampUnit(r.score(query, strings.ToLower(name)) / 100),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func backgroundQuery(background string) string {
	query := []rune(strings.ToLower(strings.TrimSpace(background)))
	if len(query) > maxBackgroundRunes {
		query = query[:maxBackgroundRunes]
	}
	return strings.TrimSpace(string(query))
}

// ScoreProgram averages the top electives. A program without courses scores 0.
func (r *Recommender) ScoreProgram(background string, program domain.Program, topK int) (float64, []domain.Elective) {
	recs := r.RecommendElectives(background, program, topK)
	if len(recs) == 0 {
		return 0, nil
	}
	var sum float64
	for _, e := range recs {
		sum += e.Score
	}
	return sum / float64(len(recs)), recs
}

func (r *Recommender) ComparePrograms(background string, programs []domain.Program, topK, limit int) []domain.ProgramFit {
	if limit <= 0 {
		limit = DefaultCompareLimit
	}
	fits := make([]domain.ProgramFit, 0, len(programs))
	for _, p := range programs {
		score, recs := r.ScoreProgram(background, p, topK)
		fits = append(fits, domain.ProgramFit{
			Title:     p.Title,
			URL:       p.URL,
			Score:     score,
			Electives: recs,
		})
	}

	sort.SliceStable(fits, func(i, j int) bool {
		if fits[i].Score != fits[j].Score {
			return fits[i].Score > fits[j].Score
		}
		return fits[i].Title < fits[j].Title
	})
	if len(fits) > limit {
		fits = fits[:limit]
	}
	return fits
}

// StudyPlan returns the first named curriculum entries of a program.
func StudyPlan(program domain.Program, limit int) domain.StudyPlan {
	if limit <= 0 {
		limit = DefaultPlanLimit
	}
	window := program.Curriculum
	truncated := len(window) > limit
	if truncated {
		window = window[:limit]
	}

	entries := make([]domain.CourseEntry, 0, len(window))
	for _, c := range window {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		entries = append(entries, c)
	}
	return domain.StudyPlan{
		Title:     program.Title,
		URL:       program.URL,
		Entries:   entries,
		Truncated: truncated,
	}
}

func courseNames(program domain.Program) []string {
	names := make([]string, 0, len(program.Curriculum))
	for _, c := range program.Curriculum {
		name := strings.TrimSpace(c.Name)
		if IsHeading(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
