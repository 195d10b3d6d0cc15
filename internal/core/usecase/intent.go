package usecase

import (
	"strings"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

var (
	costMarkers = []string{
		"сколько стоит", "стоимост", "цена", "сколько в год", "платн", "руб", "₽",
	}
	staffingMarkers = []string{
		"кто вед", "кто препода", "преподавател", "лектор", "преподы", "кто читает",
	}
	preferenceMarkers = []string{
		"лучшие предметы", "самые лучшие", "самые интересные", "что выбрать", "какие предметы лучше",
	}
	monetaryCues = []string{"стоимость", "цена", "руб", "₽"}
	staffTerms   = []string{"препода", "лектор"}
)

func looksLikeCostQuestion(question string) bool {
	return containsAny(strings.ToLower(question), costMarkers)
}

func looksLikeStaffingQuestion(question string) bool {
	return containsAny(strings.ToLower(question), staffingMarkers)
}

func looksLikePreferenceQuestion(question string) bool {
	return containsAny(strings.ToLower(question), preferenceMarkers)
}

// classifyQuestion labels a question by its wording alone.
func classifyQuestion(question string) domain.Intent {
	switch {
	case looksLikeCostQuestion(question):
		return domain.IntentCost
	case looksLikeStaffingQuestion(question):
		return domain.IntentStaffing
	default:
		return domain.IntentGeneric
	}
}
