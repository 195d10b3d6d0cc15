package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

const (
	noCandidatesAnswer = "К сожалению, я не нашёл ответа в материалах программ. Уточните вопрос."
	noMaterialAnswer   = "Не удалось сформировать ответ по материалам. Уточните вопрос."
	noStaffListAnswer  = "В открытых материалах программы нет фиксированного списка преподавателей — он может меняться по семестрам."

	maxListedCourses = 5
	maxGenericPieces = 2
)

type programIdentity struct {
	title string
	url   string
}

// answerInput is what every synthesis rule sees.
type answerInput struct {
	question string
	ranked   []domain.ScoredDocument
	docs     []domain.Document
	program  programIdentity
}

// answerRule is one intent in the synthesis chain. A rule that returns
// false lets the next one try.
type answerRule struct {
	intent  domain.Intent
	applies func(question string) bool
	build   func(in answerInput) (string, bool)
}

var answerRules = []answerRule{
	{intent: domain.IntentCost, applies: looksLikeCostQuestion, build: costAnswer},
	{intent: domain.IntentStaffing, applies: looksLikeStaffingQuestion, build: staffingAnswer},
	{intent: domain.IntentCourseList, build: courseListingAnswer},
	{intent: domain.IntentGeneric, build: genericAnswer},
}

// BuildAnswer composes a grounded answer from ranked documents. It never
// returns an empty string.
func BuildAnswer(question string, ranked []domain.ScoredDocument) string {
	text, _ := synthesize(question, ranked)
	return text
}

func synthesize(question string, ranked []domain.ScoredDocument) (string, domain.Intent) {
	if len(ranked) == 0 {
		return noCandidatesAnswer, domain.IntentGeneric
	}

	docs := make([]domain.Document, 0, len(ranked))
	for _, d := range ranked {
		if d.Document.Text != "" {
			docs = append(docs, d.Document)
		}
	}
	in := answerInput{
		question: question,
		ranked:   ranked,
		docs:     docs,
		program:  extractProgramIdentity(docs),
	}

	for _, rule := range answerRules {
		if rule.applies != nil && !rule.applies(question) {
			continue
		}
		if text, ok := rule.build(in); ok {
			return text, rule.intent
		}
	}
	return noMaterialAnswer, domain.IntentGeneric
}

func extractProgramIdentity(docs []domain.Document) programIdentity {
	for _, d := range docs {
		if d.Meta.ProgramTitle != "" || d.Meta.ProgramURL != "" {
			return programIdentity{title: d.Meta.ProgramTitle, url: d.Meta.ProgramURL}
		}
	}
	return programIdentity{}
}

func costAnswer(in answerInput) (string, bool) {
	var factLine string
	for _, d := range in.docs {
		if d.Meta.Section != domain.SectionFacts {
			continue
		}
		if containsAny(strings.ToLower(d.Text), monetaryCues) {
			factLine = d.Text
			break
		}
	}
	if factLine == "" {
		return "", false
	}

	value, _, _ := strings.Cut(factLine, ";")
	value = strings.TrimSpace(strings.ReplaceAll(value, "Стоимость:", ""))

	switch {
	case in.program.title != "" && in.program.url != "":
		return fmt.Sprintf("Стоимость обучения по программе «%s»: %s. Подробнее — %s.", in.program.title, value, in.program.url), true
	case in.program.title != "":
		return fmt.Sprintf("Стоимость обучения по программе «%s»: %s.", in.program.title, value), true
	default:
		return factLine, true
	}
}

func staffingAnswer(in answerInput) (string, bool) {
	for _, d := range in.docs {
		if containsAny(strings.ToLower(d.Text), staffTerms) {
			return "", false
		}
	}

	switch {
	case in.program.title != "" && in.program.url != "":
		return fmt.Sprintf("%s Актуальную информацию обычно публикуют на странице программы «%s»: %s.", noStaffListAnswer, in.program.title, in.program.url), true
	case in.program.title != "":
		return fmt.Sprintf("%s Попробуйте уточнить у учебного офиса программы «%s».", noStaffListAnswer, in.program.title), true
	default:
		return noStaffListAnswer + " Посмотрите страницу программы или уточните вопрос.", true
	}
}

func courseListingAnswer(in answerInput) (string, bool) {
	names := collectCourseNames(in.docs, maxListedCourses)
	if len(names) == 0 {
		return "", false
	}
	listed := strings.Join(names, ", ")

	switch {
	case in.program.title != "" && in.program.url != "":
		return fmt.Sprintf("По учебному плану программы «%s» вам могут быть полезны дисциплины: %s. Полный список и описание — на странице программы: %s.", in.program.title, listed, in.program.url), true
	case in.program.title != "":
		return fmt.Sprintf("В учебном плане «%s» встречаются курсы: %s.", in.program.title, listed), true
	default:
		return fmt.Sprintf("Среди подходящих курсов: %s.", listed), true
	}
}

// collectCourseNames returns distinct non-heading course names in ranked order.
func collectCourseNames(docs []domain.Document, limit int) []string {
	names := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, d := range docs {
		if d.Meta.Section != domain.SectionCourse {
			continue
		}
		name := courseName(d.Text)
		if len([]rune(name)) < 2 || IsHeading(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) >= limit {
			break
		}
	}
	return names
}

// courseName strips the "| тип: … | семестр: …" tail of a course document.
func courseName(text string) string {
	name, _, _ := strings.Cut(text, " | ")
	return strings.TrimSpace(name)
}

func genericAnswer(in answerInput) (string, bool) {
	pieces := make([]string, 0, maxGenericPieces)
	seen := make(map[string]struct{}, maxGenericPieces)
	for _, d := range in.ranked {
		snippet := strings.TrimSpace(d.Document.Text)
		if snippet == "" {
			continue
		}
		if _, dup := seen[snippet]; dup {
			continue
		}
		seen[snippet] = struct{}{}
		pieces = append(pieces, snippet)
		if len(pieces) == maxGenericPieces {
			break
		}
	}
	if len(pieces) == 0 {
		return "", false
	}

	body := strings.Join(pieces, " ")
	switch {
	case in.program.title != "" && in.program.url != "":
		return fmt.Sprintf("По материалам программы «%s»: %s. Подробнее — %s.", in.program.title, trimSentenceEnd(body), in.program.url), true
	case in.program.title != "":
		return fmt.Sprintf("По материалам «%s»: %s.", in.program.title, trimSentenceEnd(body)), true
	default:
		return body, true
	}
}

func trimSentenceEnd(s string) string {
	return strings.TrimRight(s, " .!?…;")
}
