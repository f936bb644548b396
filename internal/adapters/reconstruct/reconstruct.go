// Package reconstruct rebuilds schema-typed object graphs from raw payloads.
package reconstruct

import (
	"sort"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

// Reconstructor binds raw JSON payloads to a selection tree.
type Reconstructor struct {
	schema ports.Schema
	logger ports.Logger
}

// New creates a Reconstructor for schema.
func New(schema ports.Schema, logger ports.Logger) *Reconstructor {
	return &Reconstructor{schema: schema, logger: logger}
}

// Schema returns the schema objects are resolved against.
func (r *Reconstructor) Schema() ports.Schema {
	return r.schema
}

// Build reconstructs raw as a value of typeName exposing the fields sel selects.
//
// raw is modified in place: legacy discriminators are backfilled before any type
// is resolved. Fragments attached above polymorphic fields are then propagated to
// every compatible element. Unresolvable types fail with an error matching
// domain.ErrCodecFailure; a fragment field that cannot be applied is skipped.
func (r *Reconstructor) Build(typeName string, raw map[string]any, sel *domain.SelectionSet) (*domain.Object, error) {
	r.Backfill(raw)

	obj, err := r.buildObject(typeName, raw, sel)
	if err != nil {
		return nil, domain.CodecFailure(err)
	}

	r.propagate(obj, fragmentsOf(sel), nil)
	return obj, nil
}

// Backfill walks v and injects the schema discriminator into every map that only
// carries a known internal type tag.
func (r *Reconstructor) Backfill(v any) {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[domain.TypenameField]; !ok {
			if tag, ok := t[r.schema.DiscriminatorField()].(string); ok {
				if name, ok := r.schema.ResolveDiscriminator(tag); ok {
					t[domain.TypenameField] = name
				}
			}
		}
		for _, child := range t {
			r.Backfill(child)
		}
	case []any:
		for _, child := range t {
			r.Backfill(child)
		}
	}
}

func (r *Reconstructor) buildObject(staticType string, raw map[string]any, sel *domain.SelectionSet) (*domain.Object, error) {
	concrete := domain.BareTypeName(staticType)
	if name, ok := raw[domain.TypenameField].(string); ok && name != "" {
		concrete = name
	}

	desc, err := r.resolve(concrete)
	if err != nil {
		return nil, err
	}

	obj := domain.NewObject(desc.Name, raw, sel)
	for _, node := range r.directNodes(desc.Name, sel) {
		if err := r.assign(obj, desc, node); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// directNodes lists the selections visible on a value of concrete type: the set's
// own fields, matching casts, and fragments declared for the set's static type.
func (r *Reconstructor) directNodes(concrete string, sel *domain.SelectionSet) []*domain.SelectionNode {
	if sel == nil {
		return nil
	}

	nodes := append([]*domain.SelectionNode(nil), sel.Selections...)
	for _, castType := range sortedKeys(sel.Casts) {
		cast := sel.Casts[castType]
		if cast != nil && r.schema.IsSubtype(concrete, castType) {
			nodes = append(nodes, r.directNodes(concrete, cast)...)
		}
	}
	for _, f := range sel.Fragments[domain.BareTypeName(sel.TypeName)] {
		nodes = append(nodes, f.Selections...)
	}
	return nodes
}

func (r *Reconstructor) assign(obj *domain.Object, desc *domain.TypeDescriptor, node *domain.SelectionNode) error {
	if domain.IsMetaField(node.Name) {
		return nil
	}

	field, ok := desc.Field(node.Name)
	if !ok {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownField, "selected field is not declared"),
			"type", desc.Name), "field", node.Name)
	}

	raw, present := obj.Raw[node.JSONKey()]
	if !present {
		return nil
	}

	value, err := r.value(field.Type, raw, node.Nested())
	if err != nil {
		return zerr.With(err, "field", desc.Name+"."+node.Name)
	}
	obj.Set(node.Key(), value)
	return nil
}

// value converts raw according to the type expression typeExpr.
func (r *Reconstructor) value(typeExpr string, raw any, sel *domain.SelectionSet) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if domain.IsListType(typeExpr) {
		list, ok := raw.([]any)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrPayloadShape, "expected a list"), "type", typeExpr)
		}
		elemType := domain.ElementType(typeExpr)
		out := make([]any, len(list))
		for i, item := range list {
			v, err := r.value(elemType, item, sel)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	desc, err := r.resolve(typeExpr)
	if err != nil {
		return nil, err
	}
	if desc.Kind.IsLeaf() {
		return raw, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPayloadShape, "expected an object"), "type", typeExpr)
	}
	return r.buildObject(desc.Name, m, sel)
}

func (r *Reconstructor) resolve(typeName string) (*domain.TypeDescriptor, error) {
	desc, ok := r.schema.Type(domain.BareTypeName(typeName))
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownType, "payload references an unknown type"), "type", typeName)
	}
	return desc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
