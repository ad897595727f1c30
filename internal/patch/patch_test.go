package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panelPatch struct {
	Designation Field[string]         `json:"designation"`
	Notes       Field[string]         `json:"notes"`
	Status      Field[string]         `json:"status"`
	Primary     Field[bool]           `json:"is_primary"`
	Settings    Field[map[string]any] `json:"settings"`
}

func TestFieldUnmarshalStates(t *testing.T) {
	var p panelPatch
	require.NoError(t, json.Unmarshal([]byte(`{"designation":"+R1","notes":null,"is_primary":false,"settings":{"k":1}}`), &p))

	assert.Equal(t, Of("+R1"), p.Designation)
	assert.True(t, p.Notes.Set)
	assert.True(t, p.Notes.Null)
	assert.False(t, p.Status.Set, "absent key must stay unset")
	assert.True(t, p.Primary.HasValue())
	assert.False(t, p.Primary.Value)
	assert.Equal(t, float64(1), p.Settings.Value["k"])
}

func TestFieldUnmarshalTypeError(t *testing.T) {
	var p panelPatch
	err := json.Unmarshal([]byte(`{"is_primary":"yes"}`), &p)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	status := "draft"

	Field[string]{}.Apply(&status)
	assert.Equal(t, "draft", status)

	Null[string]().Apply(&status)
	assert.Equal(t, "draft", status, "null never clears a required value")

	Of("commissioned").Apply(&status)
	assert.Equal(t, "commissioned", status)
}

func TestApplyNullable(t *testing.T) {
	orig := "old"
	notes := &orig

	Field[string]{}.ApplyNullable(&notes)
	require.NotNil(t, notes)
	assert.Equal(t, "old", *notes)

	Of("new").ApplyNullable(&notes)
	require.NotNil(t, notes)
	assert.Equal(t, "new", *notes)
	assert.Equal(t, "old", orig, "source pointer must not be written through")

	Null[string]().ApplyNullable(&notes)
	assert.Nil(t, notes)
}

func TestMarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Field[int] `json:"a"`
		B Field[int] `json:"b"`
		C Field[int] `json:"c"`
	}{A: Of(3), B: Null[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null,"c":null}`, string(out))
}
