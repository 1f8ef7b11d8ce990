package forest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stemsi/formbuilder/internal/model"
)

// Encode serializes a forest into the nested JSON array stored under the
// form key.
func Encode(f model.Forest) ([]byte, error) {
	if f == nil {
		f = model.Forest{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	return b, nil
}

// Decode parses a stored forest. Empty input and a JSON null both decode to
// an empty forest.
func Decode(b []byte) (model.Forest, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return model.Forest{}, nil
	}

	var f model.Forest
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if f == nil {
		f = model.Forest{}
	}
	Normalize(f)
	return f, nil
}

// Normalize fills defaults missing from older or hand-written payloads:
// an empty kind becomes ShortAnswer and nil children become empty.
func Normalize(nodes []model.Question) {
	for i := range nodes {
		if nodes[i].Kind == "" {
			nodes[i].Kind = model.QuestionKindShortAnswer
		}
		if nodes[i].Children == nil {
			nodes[i].Children = []model.Question{}
		}
		Normalize(nodes[i].Children)
	}
}
