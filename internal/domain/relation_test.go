package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Kind
		ok    bool
	}{
		{name: "relates to", input: "RELATES_TO", want: KindRelatesTo, ok: true},
		{name: "influences", input: "INFLUENCES", want: KindInfluences, ok: true},
		{name: "blocks", input: "BLOCKS", want: KindBlocks, ok: true},
		{name: "duplicates", input: "DUPLICATES", want: KindDuplicates, ok: true},
		{name: "lowercase is rejected", input: "relates_to", ok: false},
		{name: "injection attempt", input: "RELATES_TO]->(x) DETACH DELETE x //", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseKind(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				label, valid := got.Label()
				assert.True(t, valid)
				assert.Equal(t, tt.input, label)
			}
		})
	}
}

func TestKind_ZeroValueIsInvalid(t *testing.T) {
	var k Kind
	assert.False(t, k.Valid())

	_, ok := k.Label()
	assert.False(t, ok)
	assert.Equal(t, "Kind(0)", k.String())

	_, err := json.Marshal(k)
	assert.Error(t, err)
}

func TestKind_JSON(t *testing.T) {
	data, err := json.Marshal(Relation{FromID: "a", ToID: "b", Kind: KindBlocks})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"BLOCKS"`)

	var rel Relation
	require.NoError(t, json.Unmarshal([]byte(`{"from_id":"a","to_id":"b","kind":"DUPLICATES"}`), &rel))
	assert.Equal(t, KindDuplicates, rel.Kind)

	err = json.Unmarshal([]byte(`{"kind":"OWNS"}`), &rel)
	assert.Error(t, err)
}

func TestKindLabels_Sorted(t *testing.T) {
	assert.Equal(t, []string{"BLOCKS", "DUPLICATES", "INFLUENCES", "RELATES_TO"}, KindLabels())
}
