package domain

// TypeKind classifies a schema type.
type TypeKind string

const (
	// KindScalar is a leaf value (ID, String, Int, Float, Boolean and custom scalars).
	KindScalar TypeKind = "scalar"
	// KindEnum is a leaf value restricted to named constants.
	KindEnum TypeKind = "enum"
	// KindObject is a concrete composite type.
	KindObject TypeKind = "object"
	// KindInterface is an abstract type implemented by objects or other interfaces.
	KindInterface TypeKind = "interface"
)

// IsLeaf reports whether values of the kind are stored as raw JSON.
func (k TypeKind) IsLeaf() bool {
	return k == KindScalar || k == KindEnum
}

// TypeDescriptor describes one named schema type.
type TypeDescriptor struct {
	Name       string
	Kind       TypeKind
	Interfaces []string
	Fields     map[string]*FieldDescriptor
}

// FieldDescriptor describes one field of a composite type.
type FieldDescriptor struct {
	Name     string
	WireName string
	// Type is a GraphQL-style type expression, e.g. "[Attribute!]!".
	Type string
}

// Field returns the field declared under name.
func (t *TypeDescriptor) Field(name string) (*FieldDescriptor, bool) {
	f, ok := t.Fields[name]
	return f, ok
}
