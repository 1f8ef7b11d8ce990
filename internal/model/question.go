package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuestionKind is the answer type of a question. Only TrueFalse questions
// may be given children through the editor.
type QuestionKind string

const (
	QuestionKindShortAnswer QuestionKind = "ShortAnswer"
	QuestionKindTrueFalse   QuestionKind = "TrueFalse"
)

// Labels written by the original browser editor into local storage.
const (
	legacyShortAnswer = "Short Answer"
	legacyTrueFalse   = "True/False"
)

// ParseQuestionKind accepts both the canonical and the legacy spelling.
func ParseQuestionKind(s string) (QuestionKind, error) {
	switch s {
	case string(QuestionKindShortAnswer), legacyShortAnswer:
		return QuestionKindShortAnswer, nil
	case string(QuestionKindTrueFalse), legacyTrueFalse:
		return QuestionKindTrueFalse, nil
	}
	return "", fmt.Errorf("unknown question kind %q", s)
}

// UnmarshalText lets JSON decoding normalize legacy kind labels.
func (k *QuestionKind) UnmarshalText(b []byte) error {
	parsed, err := ParseQuestionKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Label is the human-readable name shown in selectors.
func (k QuestionKind) Label() string {
	switch k {
	case QuestionKindTrueFalse:
		return legacyTrueFalse
	default:
		return legacyShortAnswer
	}
}

// Question is one node of the form tree.
type Question struct {
	ID       int64        `json:"id"`
	Text     string       `json:"text"`
	Kind     QuestionKind `json:"type"`
	Children []Question   `json:"children"`
	ParentID *int64       `json:"parentId"`
}

// Forest is the ordered list of top-level questions.
type Forest []Question

// Submission is a frozen copy of the forest taken when the form is submitted.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Questions   Forest    `json:"questions"`
}

// UpdateQuestionRequest replaces text and, when present, the kind. The
// form tags serve the HTML editor, which always posts both fields.
type UpdateQuestionRequest struct {
	Text string  `json:"text" form:"text" binding:"max=2000"`
	Kind *string `json:"type" form:"type" binding:"omitempty,question_kind"`
}

// SetTextRequest is the payload for editing question text only.
type SetTextRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

// SetKindRequest is the payload for changing the question kind only.
type SetKindRequest struct {
	Kind string `json:"type" binding:"required,question_kind"`
}

// MoveQuestionRequest reorders a top-level question.
type MoveQuestionRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

// ImportFormRequest replaces the whole form.
type ImportFormRequest struct {
	Questions Forest `json:"questions" binding:"required"`
}
