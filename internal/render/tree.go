package render

import (
	"embed"
	"html/template"

	"github.com/stemsi/formbuilder/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Node is a numbered question with its numbered children, used by the
// recursive HTML templates.
type Node struct {
	Row
	Children []Node
}

// Tree numbers the forest while keeping its nesting.
func Tree(f model.Forest) []Node {
	return tree(f, "", 0)
}

func tree(nodes []model.Question, parent string, depth int) []Node {
	out := make([]Node, 0, len(nodes))
	for i, q := range nodes {
		num := Number(parent, i)
		out = append(out, Node{
			Row:      Row{Number: num, Depth: depth, Index: i, Question: q},
			Children: tree(q.Children, num, depth+1),
		})
	}
	return out
}

// Page is the data bound to the editor template.
type Page struct {
	Title      string
	Questions  []Node
	Submission *SubmissionView
	DragURL    string
}

// SubmissionView is the read-only summary shown after submit.
type SubmissionView struct {
	ID          string
	SubmittedAt string
	Questions   []Node
}

// NewPage builds the editor page for the current forest and, optionally,
// the last submission.
func NewPage(current model.Forest, sub *model.Submission) Page {
	p := Page{
		Title:     "Dynamic Form with Nested Questions",
		Questions: Tree(current),
		DragURL:   "/ws/v1/form/drag",
	}
	if sub != nil {
		p.Submission = &SubmissionView{
			ID:          sub.ID.String(),
			SubmittedAt: sub.SubmittedAt.Format("2006-01-02 15:04:05 MST"),
			Questions:   Tree(sub.Questions),
		}
	}
	return p
}

// Templates parses the embedded HTML templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
