package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType is the closed set of question kinds the generator produces.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFillInBlank    QuestionType = "fill_in_blank"
	QuestionTypeMatching       QuestionType = "matching"
	QuestionTypeCategorization QuestionType = "categorization"
	QuestionTypeMultipleAnswer QuestionType = "multiple_answer"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

// DisplayText extracts the human-readable prompt from raw question data.
// Unknown types yield an empty string so callers can skip them.
func (t QuestionType) DisplayText(data map[string]any) string {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeFillInBlank, QuestionTypeMatching,
		QuestionTypeCategorization, QuestionTypeMultipleAnswer, QuestionTypeTrueFalse:
		if s, ok := data["question_text"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// ModuleInfo is the per-module metadata stored on a quiz.
type ModuleInfo struct {
	Name string `json:"name"`
}

// ContentPage is one titled unit of extracted text within a module.
type ContentPage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PageList accepts either a single page object or an array of pages, the two
// shapes content extraction has produced historically.
type PageList []ContentPage

func (p *PageList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single ContentPage
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*p = PageList{single}
		return nil
	}
	var pages []ContentPage
	if err := json.Unmarshal(trimmed, &pages); err != nil {
		return err
	}
	*p = pages
	return nil
}

// Quiz holds the slice of quiz state the coverage engine reads: which modules
// were selected and what content was extracted for them.
type Quiz struct {
	ID               uuid.UUID
	Title            string
	SelectedModules  map[string]ModuleInfo
	ExtractedContent map[string]PageList
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Question is one generated question with its raw type-specific payload.
type Question struct {
	ID        uuid.UUID
	QuizID    uuid.UUID
	ModuleID  string
	Type      QuestionType
	Data      map[string]any
	CreatedAt time.Time
}

// Text returns the question's display text, empty if the payload has none.
func (q Question) Text() string {
	return q.Type.DisplayText(q.Data)
}
