package domain

type Section string

const (
	SectionDescription Section = "description"
	SectionFacts       Section = "facts"
	SectionCourse      Section = "course"
	SectionContacts    Section = "contacts"
)

type DocumentMeta struct {
	ProgramTitle string  `json:"program_title,omitempty"`
	ProgramURL   string  `json:"program_url,omitempty"`
	ProgramCode  string  `json:"program_code,omitempty"`
	Section      Section `json:"section"`
}

// Document is a single indexed passage. Position in the document store
// matches the row of its vector in the index.
type Document struct {
	ID   string       `json:"id"`
	Text string       `json:"text"`
	Meta DocumentMeta `json:"meta"`
}

type ScoredDocument struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
}

// VectorHit is a raw nearest-neighbour match by document position.
type VectorHit struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}
