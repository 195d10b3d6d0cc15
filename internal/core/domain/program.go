package domain

import "strings"

type CourseEntry struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Semester string `json:"semester,omitempty" yaml:"semester,omitempty"`
}

type Program struct {
	Title        string            `json:"title" yaml:"title"`
	URL          string            `json:"url" yaml:"url"`
	Code         string            `json:"code,omitempty" yaml:"code,omitempty"`
	Degree       string            `json:"degree,omitempty" yaml:"degree,omitempty"`
	Language     string            `json:"language,omitempty" yaml:"language,omitempty"`
	Duration     string            `json:"duration,omitempty" yaml:"duration,omitempty"`
	Faculty      string            `json:"faculty,omitempty" yaml:"faculty,omitempty"`
	Tuition      string            `json:"tuition,omitempty" yaml:"tuition,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Curriculum   []CourseEntry     `json:"curriculum" yaml:"curriculum"`
	Contacts     map[string]string `json:"contacts,omitempty" yaml:"contacts,omitempty"`
	AcademicPlan string            `json:"academic_plan,omitempty" yaml:"academic_plan,omitempty"`
}

type Elective struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type ProgramFit struct {
	Title     string     `json:"title"`
	URL       string     `json:"url,omitempty"`
	Score     float64    `json:"score"`
	Electives []Elective `json:"electives"`
}

type StudyPlan struct {
	Title     string        `json:"title"`
	URL       string        `json:"url,omitempty"`
	Entries   []CourseEntry `json:"entries"`
	Truncated bool          `json:"truncated"`
}

// ProgramKey normalizes a program title for comparison: case-insensitive,
// surrounding and repeated whitespace ignored.
func ProgramKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
