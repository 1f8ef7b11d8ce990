package forest

import (
	"testing"
	"time"

	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	f := sample()

	b, err := Encode(f)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestEncode_Shape(t *testing.T) {
	f := AddTopLevel(nil, 5)
	b, err := Encode(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":5,"text":"","type":"ShortAnswer","children":[],"parentId":null}]`, string(b))

	b, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestDecode_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		got, err := Decode([]byte(in))
		require.NoError(t, err, in)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"{", `{"id":1}`, `[{"id":"x"}]`, `[{"id":1,"type":"Essay"}]`} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestDecode_LegacyBrowserPayload(t *testing.T) {
	in := `[{"id":1700000000000,"text":"Is water wet?","type":"True/False","children":[
		{"id":1700000000001,"text":"Explain","type":"Short Answer","children":[],"parentId":1700000000000}
	],"parentId":null}]`

	got, err := Decode([]byte(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.QuestionKindTrueFalse, got[0].Kind)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, model.QuestionKindShortAnswer, got[0].Children[0].Kind)
	assert.Equal(t, int64(1700000000000), *got[0].Children[0].ParentID)
}

func TestDecode_FillsMissingFields(t *testing.T) {
	got, err := Decode([]byte(`[{"id":1,"text":"a"}]`))
	require.NoError(t, err)
	assert.Equal(t, model.QuestionKindShortAnswer, got[0].Kind)
	assert.NotNil(t, got[0].Children)
}

func TestIDGenerator(t *testing.T) {
	fixed := time.UnixMilli(1000)
	g := &IDGenerator{now: func() time.Time { return fixed }}

	assert.Equal(t, int64(1000), g.Next())
	assert.Equal(t, int64(1001), g.Next(), "same millisecond still yields a fresh id")

	g.Observe(5000)
	assert.Equal(t, int64(5001), g.Next())

	g.Observe(10)
	assert.Equal(t, int64(5002), g.Next())
}
