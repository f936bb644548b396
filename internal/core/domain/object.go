package domain

import (
	"encoding/json"
	"sort"
)

// Object is a reconstructed schema-typed value.
//
// It keeps the raw payload and the selection it was built from so that it can be
// cached again, and exposes only the fields that selection (plus any applicable
// fragments) made available.
type Object struct {
	TypeName  string
	Raw       map[string]any
	Selection *SelectionSet

	fields map[string]any
}

// NewObject creates an object of the given concrete type with no exposed fields.
func NewObject(typeName string, raw map[string]any, sel *SelectionSet) *Object {
	return &Object{
		TypeName:  typeName,
		Raw:       raw,
		Selection: sel,
		fields:    make(map[string]any),
	}
}

// Get returns the value exposed under name.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// Has reports whether the object exposes name.
func (o *Object) Has(name string) bool {
	_, ok := o.fields[name]
	return ok
}

// Set exposes value under name.
func (o *Object) Set(name string, value any) {
	o.fields[name] = value
}

// Fields returns the exposed field names in sorted order.
func (o *Object) Fields() []string {
	names := make([]string, 0, len(o.fields))
	for k := range o.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns the exposed string value of name, or "" if absent or not a string.
func (o *Object) String(name string) string {
	s, _ := o.fields[name].(string)
	return s
}

// Object returns the exposed nested object under name, or nil.
func (o *Object) Object(name string) *Object {
	obj, _ := o.fields[name].(*Object)
	return obj
}

// Objects returns the objects of a list-valued field, skipping non-object elements.
func (o *Object) Objects(name string) []*Object {
	list, _ := o.fields[name].([]any)
	out := make([]*Object, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(*Object); ok {
			out = append(out, obj)
		}
	}
	return out
}

// MarshalJSON encodes the exposed fields only.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.fields)
}
