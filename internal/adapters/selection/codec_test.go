package selection_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rewind/internal/adapters/selection"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/testutil"
)

func newCodec(t *testing.T) *selection.Codec {
	t.Helper()
	return selection.NewCodec(testutil.AnalyticsSchema(t))
}

func TestCodec_MarshalGolden(t *testing.T) {
	codec := newCodec(t)

	data, err := codec.Marshal(testutil.DatasetSelection())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, json.Indent(&out, data, "", "  "))

	g := goldie.New(t)
	g.Assert(t, "dataset_selection", out.Bytes())
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newCodec(t)

	data, err := codec.Marshal(testutil.DatasetSelection())
	require.NoError(t, err)

	set, err := codec.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, "Dataset", set.TypeName)
	require.Len(t, set.Selections, 4)

	attributes := set.Selections[2]
	assert.Equal(t, "attributes", attributes.Name)
	assert.Equal(t, "Attribute", attributes.Selection.TypeName)
	require.Len(t, attributes.Fragments["Metric"], 1)
	assert.Equal(t, "MetricFields", attributes.Fragments["Metric"][0].Name)
	assert.Equal(t, "aggMethod", attributes.Fragments["Metric"][0].Selections[0].Name)
	assert.Equal(t, "Normal", attributes.Fragments["Normal"][0].TypeName)

	again, err := codec.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestCodec_AliasWireNameAndArgs(t *testing.T) {
	codec := newCodec(t)

	node := &domain.SelectionNode{
		Name:     "displayName",
		WireName: "display_name",
		Alias:    "title",
		Args:     map[string]any{"locale": "en", "limit": 5},
	}
	data, err := codec.Marshal(testutil.Set("Metric", node))
	require.NoError(t, err)

	set, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, set.Selections, 1)

	got := set.Selections[0]
	assert.Equal(t, "title", got.Alias)
	assert.Equal(t, "display_name", got.WireName)
	assert.Equal(t, "title", got.JSONKey())
	assert.Equal(t, map[string]any{"locale": "en", "limit": float64(5)}, got.Args)
}

func TestCodec_StripsTypeExpressions(t *testing.T) {
	codec := newCodec(t)

	sel := testutil.Set("[Dataset!]!", testutil.Field("id"))
	sel.Casts = map[string]*domain.SelectionSet{
		"Chart!": {Selections: []*domain.SelectionNode{testutil.Field("name")}},
	}

	data, err := codec.Marshal(sel)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Dataset", raw["type_name"])

	set, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.Contains(t, set.Casts, "Chart")
	assert.Equal(t, "Chart", set.Casts["Chart"].TypeName)
}

func TestCodec_UnmarshalDropsMetaFields(t *testing.T) {
	codec := newCodec(t)

	set, err := codec.Unmarshal([]byte(`{
		"type_name": "Dataset",
		"selections": [
			{"field_name": "__typename"},
			{"field_name": "id"},
			{"field_name": "owner", "nested_selection_list": {"selections": [{"field_name": "email"}]}}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, set.Selections, 2)
	assert.Equal(t, "id", set.Selections[0].Name)
	assert.Equal(t, "id", set.Selections[0].WireName)

	owner := set.Selections[1]
	assert.Equal(t, "User", owner.Selection.TypeName, "nested type falls back to the field type")
	assert.Equal(t, "email", owner.Selection.Selections[0].Name)
}

func TestCodec_UnmarshalFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{
			name:  "unknown root type",
			input: `{"type_name": "Ghost", "selections": []}`,
			want:  domain.ErrUnknownType,
		},
		{
			name:  "unknown cast type",
			input: `{"type_name": "Dataset", "casts": {"Ghost": {"selections": []}}}`,
			want:  domain.ErrUnknownType,
		},
		{
			name:  "unknown fragment type",
			input: `{"type_name": "Dataset", "fragments": {"Ghost": [{"name": "F", "selections": []}]}}`,
			want:  domain.ErrUnknownType,
		},
		{
			name:  "undeclared field",
			input: `{"type_name": "Dataset", "selections": [{"field_name": "revenue"}]}`,
			want:  domain.ErrUnknownField,
		},
		{
			name:  "malformed json",
			input: `{"type_name": `,
			want:  domain.ErrCodecFailure,
		},
	}

	codec := newCodec(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Unmarshal([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCodecFailure))
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestCodec_UnmarshalAsFallbackType(t *testing.T) {
	codec := newCodec(t)
	input := []byte(`{"type_name": "", "selections": [{"field_name": "id"}, {"field_name": "rowCount"}]}`)

	_, err := codec.Unmarshal(input)
	require.ErrorIs(t, err, domain.ErrUnknownType)

	set, err := codec.UnmarshalAs(input, "Dataset")
	require.NoError(t, err)
	assert.Equal(t, "Dataset", set.TypeName)
	require.Len(t, set.Selections, 2)
	assert.Equal(t, "rowCount", set.Selections[1].Name)

	set, err = codec.UnmarshalAs([]byte(`{"type_name": "User", "selections": []}`), "Dataset")
	require.NoError(t, err)
	assert.Equal(t, "User", set.TypeName, "a stored type name wins over the fallback")
}

func TestCodec_Null(t *testing.T) {
	codec := newCodec(t)

	data, err := codec.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	set, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.Nil(t, set)
}
