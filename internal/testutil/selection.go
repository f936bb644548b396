package testutil

import "go.trai.ch/rewind/internal/core/domain"

// Set builds a selection set over typeName.
func Set(typeName string, nodes ...*domain.SelectionNode) *domain.SelectionSet {
	return &domain.SelectionSet{TypeName: typeName, Selections: nodes}
}

// Field selects a leaf field.
func Field(name string) *domain.SelectionNode {
	return &domain.SelectionNode{Name: name}
}

// Nested selects a composite field with a sub-selection.
func Nested(name string, set *domain.SelectionSet) *domain.SelectionNode {
	return &domain.SelectionNode{Name: name, Selection: set}
}

// Fragment builds a named fragment declared for typeName.
func Fragment(name, typeName string, nodes ...*domain.SelectionNode) *domain.NamedFragment {
	return &domain.NamedFragment{Name: name, TypeName: typeName, Selections: nodes}
}

// DatasetSelection selects a dataset whose attribute list carries one fragment per
// concrete attribute type.
func DatasetSelection() *domain.SelectionSet {
	attributes := Nested("attributes", Set("Attribute", Field("id"), Field("name")))
	attributes.Fragments = map[string][]*domain.NamedFragment{
		"Metric": {Fragment("MetricFields", "Metric", Field("aggMethod"))},
		"Normal": {Fragment("NormalFields", "Normal", Field("dbColumn"))},
	}

	return Set("Dataset",
		Field("id"),
		Field("name"),
		attributes,
		Nested("dimensions", Set("Normal", Field("id"), Field("dbColumn"))),
	)
}

// DatasetPayload is a raw dataset response matching DatasetSelection. The second
// attribute only carries the legacy internal type tag.
func DatasetPayload() map[string]any {
	return map[string]any{
		"id":   "d1",
		"name": "Sales",
		"attributes": []any{
			map[string]any{
				"__typename": "Metric",
				"id":         "a1",
				"name":       "revenue",
				"aggMethod":  "SUM",
				"dbColumn":   "revenue_col",
			},
			map[string]any{
				"type":     "normalAttribute",
				"id":       "a2",
				"name":     "region",
				"dbColumn": "region_col",
			},
		},
		"dimensions": []any{
			map[string]any{"__typename": "Normal", "id": "dim1", "dbColumn": "c1"},
		},
	}
}
