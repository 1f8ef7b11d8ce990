package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/stemsi/formbuilder/internal/model"
)

var (
	numberStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	idStyle     = lipgloss.NewStyle().Faint(true)
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

// Terminal renders the editable view for a terminal: number, text, kind and
// the id needed to address the question from the command line.
func Terminal(f model.Forest) string {
	rows := Flatten(f)
	if len(rows) == 0 {
		return emptyStyle.Render("(no questions)") + "\n"
	}

	var b strings.Builder
	for _, r := range rows {
		text := r.Question.Text
		if text == "" {
			text = emptyStyle.Render("<empty>")
		}
		b.WriteString(strings.Repeat("  ", r.Depth))
		b.WriteString(numberStyle.Render(r.Number))
		b.WriteString(" ")
		b.WriteString(text)
		b.WriteString(" ")
		b.WriteString(kindStyle.Render("[" + r.Question.Kind.Label() + "]"))
		b.WriteString(" ")
		b.WriteString(idStyle.Render("#" + strconv.FormatInt(r.Question.ID, 10)))
		b.WriteByte('\n')
	}
	return b.String()
}
