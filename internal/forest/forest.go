// Package forest implements the question tree as a set of pure rewrite
// functions. None of them mutate their input; each returns a new forest that
// may share untouched subtrees with the old one.
package forest

import (
	"errors"

	"github.com/stemsi/formbuilder/internal/model"
)

var (
	ErrNotFound        = errors.New("question not found")
	ErrNotTrueFalse    = errors.New("question is not a true/false question")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDuplicateID     = errors.New("duplicate question id")
	ErrBrokenParent    = errors.New("child question has a wrong parent id")
)

// NewQuestion builds an empty ShortAnswer node.
func NewQuestion(id int64, parentID *int64) model.Question {
	q := model.Question{
		ID:       id,
		Kind:     model.QuestionKindShortAnswer,
		Children: []model.Question{},
	}
	if parentID != nil {
		pid := *parentID
		q.ParentID = &pid
	}
	return q
}

// AddTopLevel appends a new empty question at the end of the top level.
func AddTopLevel(f model.Forest, id int64) model.Forest {
	out := make(model.Forest, 0, len(f)+1)
	out = append(out, f...)
	return append(out, NewQuestion(id, nil))
}

// AddChild appends a new child under the TrueFalse question parentID,
// wherever it sits in the tree.
func AddChild(f model.Forest, parentID, id int64) (model.Forest, error) {
	parent, ok := Find(f, parentID)
	if !ok {
		return f, ErrNotFound
	}
	if parent.Kind != model.QuestionKindTrueFalse {
		return f, ErrNotTrueFalse
	}
	out, _ := rewrite(f, parentID, func(q model.Question) model.Question {
		children := make([]model.Question, 0, len(q.Children)+1)
		children = append(children, q.Children...)
		q.Children = append(children, NewQuestion(id, &parentID))
		return q
	})
	return out, nil
}

// Update replaces the text of a question and, when kind is non-nil, its kind.
func Update(f model.Forest, id int64, text string, kind *model.QuestionKind) (model.Forest, error) {
	return rewrite(f, id, func(q model.Question) model.Question {
		q.Text = text
		if kind != nil {
			q.Kind = *kind
		}
		return q
	})
}

// SetText replaces only the text of a question.
func SetText(f model.Forest, id int64, text string) (model.Forest, error) {
	return rewrite(f, id, func(q model.Question) model.Question {
		q.Text = text
		return q
	})
}

// SetKind replaces only the kind of a question. Existing children are kept
// even when the new kind is ShortAnswer.
func SetKind(f model.Forest, id int64, kind model.QuestionKind) (model.Forest, error) {
	return rewrite(f, id, func(q model.Question) model.Question {
		q.Kind = kind
		return q
	})
}

// Delete removes the question and its whole subtree.
func Delete(f model.Forest, id int64) (model.Forest, error) {
	out, found := remove(f, id)
	if !found {
		return f, ErrNotFound
	}
	return out, nil
}

// Move takes the top-level question at from and reinserts it at to.
// Children are never reordered.
func Move(f model.Forest, from, to int) (model.Forest, error) {
	if from < 0 || from >= len(f) || to < 0 || to >= len(f) {
		return f, ErrIndexOutOfRange
	}
	out := make(model.Forest, 0, len(f))
	out = append(out, f[:from]...)
	out = append(out, f[from+1:]...)
	out = append(out[:to], append(model.Forest{f[from]}, out[to:]...)...)
	return out, nil
}

// rewrite replaces the node with the given id by fn(node). The search is
// depth-first over every level.
func rewrite(f model.Forest, id int64, fn func(model.Question) model.Question) (model.Forest, error) {
	out, found := rewriteNodes(f, id, fn)
	if !found {
		return f, ErrNotFound
	}
	return model.Forest(out), nil
}

func rewriteNodes(nodes []model.Question, id int64, fn func(model.Question) model.Question) ([]model.Question, bool) {
	for i, q := range nodes {
		if q.ID == id {
			out := make([]model.Question, len(nodes))
			copy(out, nodes)
			out[i] = fn(q)
			return out, true
		}
		if children, ok := rewriteNodes(q.Children, id, fn); ok {
			out := make([]model.Question, len(nodes))
			copy(out, nodes)
			q.Children = children
			out[i] = q
			return out, true
		}
	}
	return nodes, false
}

func remove(nodes []model.Question, id int64) ([]model.Question, bool) {
	for i, q := range nodes {
		if q.ID == id {
			out := make([]model.Question, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if children, ok := remove(q.Children, id); ok {
			out := make([]model.Question, len(nodes))
			copy(out, nodes)
			q.Children = children
			out[i] = q
			return out, true
		}
	}
	return nodes, false
}
