package forest

import (
	"sort"
	"testing"

	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id int64) *int64 { return &id }

// sample builds A, B(TrueFalse){X, Y}, C.
func sample() model.Forest {
	return model.Forest{
		{ID: 1, Text: "A", Kind: model.QuestionKindShortAnswer, Children: []model.Question{}},
		{ID: 2, Text: "B", Kind: model.QuestionKindTrueFalse, Children: []model.Question{
			{ID: 21, Text: "X", Kind: model.QuestionKindShortAnswer, Children: []model.Question{}, ParentID: ptr(2)},
			{ID: 22, Text: "Y", Kind: model.QuestionKindTrueFalse, Children: []model.Question{
				{ID: 221, Text: "Z", Kind: model.QuestionKindShortAnswer, Children: []model.Question{}, ParentID: ptr(22)},
			}, ParentID: ptr(2)},
		}},
		{ID: 3, Text: "C", Kind: model.QuestionKindShortAnswer, Children: []model.Question{}},
	}
}

func TestAddTopLevel(t *testing.T) {
	f := sample()
	before := Clone(f)

	out := AddTopLevel(f, 99)

	require.Len(t, out, len(f)+1)
	added := out[len(out)-1]
	assert.Equal(t, int64(99), added.ID)
	assert.Empty(t, added.Text)
	assert.Equal(t, model.QuestionKindShortAnswer, added.Kind)
	assert.Empty(t, added.Children)
	assert.Nil(t, added.ParentID)
	assert.Equal(t, before, f, "input must not be mutated")
}

func TestAddTopLevel_Empty(t *testing.T) {
	out := AddTopLevel(nil, 7)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].ID)
}

func TestAddChild(t *testing.T) {
	t.Run("appends under a TrueFalse parent", func(t *testing.T) {
		f := sample()
		before := Clone(f)

		out, err := AddChild(f, 2, 23)
		require.NoError(t, err)

		parent, ok := Find(out, 2)
		require.True(t, ok)
		require.Len(t, parent.Children, 3)
		child := parent.Children[2]
		assert.Equal(t, int64(23), child.ID)
		assert.Equal(t, model.QuestionKindShortAnswer, child.Kind)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, int64(2), *child.ParentID)

		assert.Equal(t, Count(f)+1, Count(out))
		assert.Equal(t, before, f)
		assert.Equal(t, f[0], out[0])
		assert.Equal(t, f[2], out[2])
	})

	t.Run("finds nested parents", func(t *testing.T) {
		out, err := AddChild(sample(), 22, 300)
		require.NoError(t, err)
		y, _ := Find(out, 22)
		assert.Len(t, y.Children, 2)
	})

	t.Run("short answer parent is a no-op", func(t *testing.T) {
		f := sample()
		out, err := AddChild(f, 1, 300)
		assert.ErrorIs(t, err, ErrNotTrueFalse)
		assert.Equal(t, f, out)
	})

	t.Run("missing parent is a no-op", func(t *testing.T) {
		f := sample()
		out, err := AddChild(f, 404, 300)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, f, out)
	})
}

func TestUpdate(t *testing.T) {
	f := sample()
	kind := model.QuestionKindTrueFalse

	out, err := Update(f, 21, "changed", nil)
	require.NoError(t, err)
	x, _ := Find(out, 21)
	assert.Equal(t, "changed", x.Text)
	assert.Equal(t, model.QuestionKindShortAnswer, x.Kind)

	out, err = Update(out, 21, "again", &kind)
	require.NoError(t, err)
	x, _ = Find(out, 21)
	assert.Equal(t, "again", x.Text)
	assert.Equal(t, model.QuestionKindTrueFalse, x.Kind)

	orig, _ := Find(f, 21)
	assert.Equal(t, "X", orig.Text)
}

func TestSetTextAndKind(t *testing.T) {
	f := sample()

	out, err := SetText(f, 221, "deep")
	require.NoError(t, err)
	z, _ := Find(out, 221)
	assert.Equal(t, "deep", z.Text)

	out, err = SetKind(out, 2, model.QuestionKindShortAnswer)
	require.NoError(t, err)
	b, _ := Find(out, 2)
	assert.Equal(t, model.QuestionKindShortAnswer, b.Kind)
	assert.Len(t, b.Children, 2, "children survive a kind change")
	assert.Equal(t, "B", b.Text)
}

func TestMissingIDIsNoOp(t *testing.T) {
	f := sample()
	kind := model.QuestionKindTrueFalse

	out, err := Update(f, 404, "x", &kind)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, f, out)

	out, err = SetText(f, 404, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, f, out)

	out, err = SetKind(f, 404, kind)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, f, out)

	out, err = Delete(f, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, f, out)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name string
		id   int64
	}{
		{"top level leaf", 1},
		{"top level with subtree", 2},
		{"child with subtree", 22},
		{"grandchild", 221},
		{"last top level", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sample()
			size := SubtreeSize(f, tt.id)
			removed := IDs([]model.Question{mustFind(t, f, tt.id)})

			out, err := Delete(f, tt.id)
			require.NoError(t, err)

			assert.Equal(t, Count(f)-size, Count(out))
			for _, id := range removed {
				_, ok := Find(out, id)
				assert.False(t, ok, "id %d should be gone", id)
			}
			assert.Equal(t, 6, Count(f), "input must not be mutated")
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		from, to int
		want     []int64
	}{
		{0, 2, []int64{2, 3, 1}},
		{2, 0, []int64{3, 1, 2}},
		{1, 1, []int64{1, 2, 3}},
		{0, 1, []int64{2, 1, 3}},
	}
	for _, tt := range tests {
		f := sample()
		out, err := Move(f, tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, topIDs(out))

		gotSorted := topIDs(out)
		sort.Slice(gotSorted, func(i, j int) bool { return gotSorted[i] < gotSorted[j] })
		assert.Equal(t, []int64{1, 2, 3}, gotSorted, "move must be a permutation")
		assert.Equal(t, []int64{1, 2, 3}, topIDs(f))

		b, _ := Find(out, 2)
		assert.Equal(t, int64(21), b.Children[0].ID, "children order is untouched")
	}
}

func TestMove_OutOfRange(t *testing.T) {
	f := sample()
	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		out, err := Move(f, idx[0], idx[1])
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, f, out)
	}

	_, err := Move(model.Forest{}, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestQueries(t *testing.T) {
	f := sample()
	assert.Equal(t, 6, Count(f))
	assert.Equal(t, 4, SubtreeSize(f, 2))
	assert.Equal(t, 0, SubtreeSize(f, 404))
	assert.Equal(t, int64(221), MaxID(f))
	assert.Equal(t, int64(0), MaxID(nil))
	assert.Equal(t, []int64{1, 2, 21, 22, 221, 3}, IDs(f))
}

func TestClone_SharesNothing(t *testing.T) {
	f := sample()
	c := Clone(f)
	require.Equal(t, f, c)

	c[1].Children[0].Text = "mutated"
	*c[1].Children[0].ParentID = 999
	assert.Equal(t, "X", f[1].Children[0].Text)
	assert.Equal(t, int64(2), *f[1].Children[0].ParentID)
}

func mustFind(t *testing.T, f model.Forest, id int64) model.Question {
	t.Helper()
	q, ok := Find(f, id)
	require.True(t, ok)
	return q
}

func topIDs(f model.Forest) []int64 {
	ids := make([]int64, len(f))
	for i, q := range f {
		ids[i] = q.ID
	}
	return ids
}

func TestCheckIDs(t *testing.T) {
	require.NoError(t, CheckIDs(sample()))
	require.NoError(t, CheckIDs(nil))

	dup := sample()
	dup[2].ID = 21
	assert.ErrorIs(t, CheckIDs(dup), ErrDuplicateID)

	broken := Clone(sample())
	broken[1].Children[0].ParentID = ptr(3)
	assert.ErrorIs(t, CheckIDs(broken), ErrBrokenParent)

	orphan := Clone(sample())
	orphan[1].Children[1].ParentID = nil
	assert.ErrorIs(t, CheckIDs(orphan), ErrBrokenParent)

	adopted := Clone(sample())
	adopted[0].ParentID = ptr(77)
	assert.ErrorIs(t, CheckIDs(adopted), ErrBrokenParent)
}
