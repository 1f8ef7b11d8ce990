// Package render turns a forest into numbered views. Numbers are derived from
// sibling position every time a view is built and are never stored.
package render

import (
	"fmt"
	"strings"

	"github.com/stemsi/formbuilder/internal/model"
)

// Number returns the label of the index-th sibling (0-based) under a parent
// labelled parent. An empty parent means top level.
func Number(parent string, index int) string {
	if parent == "" {
		return fmt.Sprintf("Q%d", index+1)
	}
	return fmt.Sprintf("%s.%d", parent, index+1)
}

// Row is one question of a flattened, numbered forest.
type Row struct {
	Number   string         `json:"number"`
	Depth    int            `json:"depth"`
	Index    int            `json:"index"`
	Question model.Question `json:"question"`
}

// Draggable reports whether the row can be reordered by drag-and-drop.
// Only top-level rows are.
func (r Row) Draggable() bool { return r.Depth == 0 }

// CanAddChild reports whether the editor offers the add-child action.
func (r Row) CanAddChild() bool { return r.Question.Kind == model.QuestionKindTrueFalse }

// Indent is the left margin of the row in the editor, in pixels.
func (r Row) Indent() int { return r.Depth * 20 }

// Flatten walks the forest depth-first and numbers every question.
func Flatten(f model.Forest) []Row {
	rows := make([]Row, 0, len(f))
	return flatten(rows, f, "", 0)
}

func flatten(rows []Row, nodes []model.Question, parent string, depth int) []Row {
	for i, q := range nodes {
		num := Number(parent, i)
		rows = append(rows, Row{Number: num, Depth: depth, Index: i, Question: q})
		rows = flatten(rows, q.Children, num, depth+1)
	}
	return rows
}

// Summary renders the read-only submission view as plain text, one question
// per line, indented two spaces per level:
//
//	Q1: Favorite color? (ShortAnswer)
//	Q2: Is water wet? (TrueFalse)
//	  Q2.1: Explain (ShortAnswer)
func Summary(f model.Forest) string {
	var b strings.Builder
	for _, r := range Flatten(f) {
		b.WriteString(strings.Repeat("  ", r.Depth))
		b.WriteString(SummaryLine(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// SummaryLine formats a single row of the summary view.
func SummaryLine(r Row) string {
	return fmt.Sprintf("%s: %s (%s)", r.Number, r.Question.Text, r.Question.Kind)
}
