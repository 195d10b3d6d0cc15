package domain

import "time"

type Intent string

const (
	IntentCost       Intent = "cost"
	IntentStaffing   Intent = "staffing"
	IntentCourseList Intent = "course_listing"
	IntentGeneric    Intent = "generic"
)

type AnswerSource string

const (
	SourceGate          AnswerSource = "gate"
	SourceShortcut      AnswerSource = "shortcut"
	SourceGenerative    AnswerSource = "generative"
	SourceDeterministic AnswerSource = "deterministic"
)

type AskRequest struct {
	Question string `json:"question" validate:"required"`
	Program  string `json:"program,omitempty"`
}

type Answer struct {
	Text           string           `json:"text"`
	Intent         Intent           `json:"intent,omitempty"`
	Source         AnswerSource     `json:"source"`
	Relevant       bool             `json:"relevant"`
	Documents      []ScoredDocument `json:"documents,omitempty"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
}

type GenerationStatus string

const (
	GenerationOK          GenerationStatus = "ok"
	GenerationNoAnswer    GenerationStatus = "no_answer"
	GenerationUnavailable GenerationStatus = "unavailable"
)

// Generation is the tagged outcome of the generative fallback.
type Generation struct {
	Status GenerationStatus `json:"status"`
	Text   string           `json:"text,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (g Generation) OK() bool {
	return g.Status == GenerationOK && g.Text != ""
}

type GenerationOptions struct {
	MaxNewTokens      int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
}

type Interaction struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Program   string       `json:"program,omitempty"`
	Intent    Intent       `json:"intent,omitempty"`
	Source    AnswerSource `json:"source"`
	Relevant  bool         `json:"relevant"`
	CreatedAt time.Time    `json:"created_at"`
}
