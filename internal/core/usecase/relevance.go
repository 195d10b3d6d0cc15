package usecase

import (
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/fuzzy"
)

const (
	aliasMatchThreshold      = 70.0
	relevanceSimilarityFloor = 0.15
)

var relevanceKeywords = []string{
	"магистратура", "учебный план", "дисциплины", "курсы", "семестр", "предметы",
	"профиль", "поступление", "программа", "ai", "ии", "ai product", "аспирантура",
	"стоимость", "язык обучения", "контакты", "факультет", "срок обучения", "цена",
	"стоит", "стоимост",
}

var programAliases = []string{
	"ИИ", "искусственный интеллект", "AI", "AI Product", "проектирование AI-продуктов",
}

var joinedAliases = strings.ToLower(strings.Join(programAliases, " "))

// IsRelevant reports whether a question is in scope: it mentions a domain
// keyword, fuzzily names a program, or retrieval found a close enough match.
func IsRelevant(question string, docs []domain.ScoredDocument) bool {
	q := strings.ToLower(question)
	if containsAny(q, relevanceKeywords) {
		return true
	}
	if fuzzy.PartialRatio(joinedAliases, q) > aliasMatchThreshold {
		return true
	}
	for _, d := range docs {
		if d.Similarity > relevanceSimilarityFloor {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
