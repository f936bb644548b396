package domain

import "strings"

// TypenameField is the wire name of the schema discriminator carried by polymorphic values.
const TypenameField = "__typename"

// SelectionSet is the list of fields requested on a value of TypeName.
//
// Casts are inline fragments: each entry is a type-scoped SelectionSet active only
// when the runtime value is the scoping type or one of its subtypes. Fragments are
// the named fragments attached at this level, grouped by the type they apply to.
type SelectionSet struct {
	TypeName   string
	Selections []*SelectionNode
	Casts      map[string]*SelectionSet
	Fragments  map[string][]*NamedFragment
}

// SelectionNode is one requested field.
type SelectionNode struct {
	Name      string
	WireName  string
	Alias     string
	Args      map[string]any
	Selection *SelectionSet
	Casts     map[string]*SelectionSet
	Fragments map[string][]*NamedFragment
}

// NamedFragment is a reusable group of selections declared for TypeName.
type NamedFragment struct {
	Name       string
	TypeName   string
	Selections []*SelectionNode
}

// Key is the attribute name the field is exposed under on a reconstructed object.
func (n *SelectionNode) Key() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// JSONKey is the key the field's value is found under in the raw payload.
func (n *SelectionNode) JSONKey() string {
	if n.Alias != "" {
		return n.Alias
	}
	if n.WireName != "" {
		return n.WireName
	}
	return n.Name
}

// Nested returns the selection applied to the field's value, with the node-level
// casts and fragments overlaid on the nested set's own.
func (n *SelectionNode) Nested() *SelectionSet {
	if len(n.Casts) == 0 && len(n.Fragments) == 0 {
		return n.Selection
	}

	merged := &SelectionSet{
		Casts:     make(map[string]*SelectionSet),
		Fragments: make(map[string][]*NamedFragment),
	}
	if n.Selection != nil {
		merged.TypeName = n.Selection.TypeName
		merged.Selections = n.Selection.Selections
		for k, v := range n.Selection.Casts {
			merged.Casts[k] = v
		}
		for k, v := range n.Selection.Fragments {
			merged.Fragments[k] = v
		}
	}
	for k, v := range n.Casts {
		merged.Casts[k] = v
	}
	for k, v := range n.Fragments {
		merged.Fragments[k] = append(merged.Fragments[k], v...)
	}
	return merged
}

// IsMetaField reports whether a field is an introspection pseudo-field.
// Such fields carry no cacheable data.
func IsMetaField(name string) bool {
	return strings.HasPrefix(name, "__")
}

// BareTypeName strips list and non-null wrappers from a type expression: "[Foo!]!" -> "Foo".
func BareTypeName(expr string) string {
	return strings.Trim(strings.TrimSpace(expr), "[]!")
}

// IsListType reports whether a type expression denotes a list.
func IsListType(expr string) bool {
	return strings.HasPrefix(strings.TrimSpace(expr), "[")
}

// ElementType strips one list level from a type expression: "[[Foo]!]!" -> "[Foo]!".
// Non-list expressions are returned unchanged.
func ElementType(expr string) string {
	e := strings.TrimSuffix(strings.TrimSpace(expr), "!")
	if !strings.HasPrefix(e, "[") || !strings.HasSuffix(e, "]") {
		return expr
	}
	return e[1 : len(e)-1]
}
