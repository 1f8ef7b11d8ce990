package forest

import (
	"fmt"

	"github.com/stemsi/formbuilder/internal/model"
)

// Find returns the question with the given id from any level.
func Find(nodes []model.Question, id int64) (model.Question, bool) {
	for _, q := range nodes {
		if q.ID == id {
			return q, true
		}
		if found, ok := Find(q.Children, id); ok {
			return found, true
		}
	}
	return model.Question{}, false
}

// Count returns the total number of questions, children included.
func Count(nodes []model.Question) int {
	n := 0
	for _, q := range nodes {
		n += 1 + Count(q.Children)
	}
	return n
}

// SubtreeSize counts the question with the given id plus all descendants.
// It is zero when the id is absent.
func SubtreeSize(nodes []model.Question, id int64) int {
	q, ok := Find(nodes, id)
	if !ok {
		return 0
	}
	return 1 + Count(q.Children)
}

// MaxID returns the largest id in the tree, or 0 for an empty tree.
func MaxID(nodes []model.Question) int64 {
	var max int64
	for _, q := range nodes {
		if q.ID > max {
			max = q.ID
		}
		if c := MaxID(q.Children); c > max {
			max = c
		}
	}
	return max
}

// IDs lists every id in depth-first order.
func IDs(nodes []model.Question) []int64 {
	var ids []int64
	for _, q := range nodes {
		ids = append(ids, q.ID)
		ids = append(ids, IDs(q.Children)...)
	}
	return ids
}

// Clone deep-copies a forest so the result shares no slices with f.
func Clone(f model.Forest) model.Forest {
	return model.Forest(cloneNodes(f))
}

func cloneNodes(nodes []model.Question) []model.Question {
	out := make([]model.Question, len(nodes))
	for i, q := range nodes {
		if q.ParentID != nil {
			pid := *q.ParentID
			q.ParentID = &pid
		}
		q.Children = cloneNodes(q.Children)
		out[i] = q
	}
	return out
}

// CheckIDs verifies that every id in the tree is unique, that each child
// points back at its parent and that top-level questions have no parent.
func CheckIDs(f model.Forest) error {
	seen := make(map[int64]struct{})
	return checkNodes(f, nil, seen)
}

func checkNodes(nodes []model.Question, parent *int64, seen map[int64]struct{}) error {
	for _, q := range nodes {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, q.ID)
		}
		seen[q.ID] = struct{}{}
		if parent == nil && q.ParentID != nil {
			return fmt.Errorf("%w: top-level %d points at %d", ErrBrokenParent, q.ID, *q.ParentID)
		}
		if parent != nil && (q.ParentID == nil || *q.ParentID != *parent) {
			return fmt.Errorf("%w: %d is not linked to parent %d", ErrBrokenParent, q.ID, *parent)
		}
		id := q.ID
		if err := checkNodes(q.Children, &id, seen); err != nil {
			return err
		}
	}
	return nil
}
