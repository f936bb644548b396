package reconstruct

import (
	"fmt"

	"go.trai.ch/rewind/internal/core/domain"
)

// fragmentMap groups named fragments by the type name they are registered under.
type fragmentMap map[string][]*domain.NamedFragment

// merge overlays child on m. Entries in child replace those of m per type name.
func (m fragmentMap) merge(child fragmentMap) fragmentMap {
	if len(child) == 0 {
		return m
	}
	out := make(fragmentMap, len(m)+len(child))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func fragmentsOf(sel *domain.SelectionSet) fragmentMap {
	if sel == nil {
		return nil
	}
	return sel.Fragments
}

// propagate walks obj's exposed fields and, for every object held by an
// interface-typed field, applies the accumulated fragments compatible with the
// object's concrete type. extra lists fragment selections already applied to obj.
func (r *Reconstructor) propagate(obj *domain.Object, acc fragmentMap, extra []*domain.SelectionNode) {
	desc, ok := r.schema.Type(obj.TypeName)
	if !ok {
		return
	}

	nodes := append(r.directNodes(obj.TypeName, obj.Selection), extra...)
	for _, node := range nodes {
		value, ok := obj.Get(node.Key())
		if !ok {
			continue
		}
		field, ok := desc.Field(node.Name)
		if !ok {
			continue
		}

		childAcc := acc.merge(fragmentsOf(node.Nested()))
		polymorphic := r.isPolymorphic(field.Type)

		eachObject(value, func(child *domain.Object) {
			var applied []*domain.SelectionNode
			if polymorphic {
				applied = r.applyFragments(child, childAcc)
			}
			r.propagate(child, childAcc, applied)
		})
	}
}

// applyFragments exposes the fields of every compatible fragment that obj does
// not already expose, reading values from its raw payload.
func (r *Reconstructor) applyFragments(obj *domain.Object, acc fragmentMap) []*domain.SelectionNode {
	desc, ok := r.schema.Type(obj.TypeName)
	if !ok {
		return nil
	}

	var applied []*domain.SelectionNode
	for _, typeName := range sortedKeys(acc) {
		if !r.schema.IsSubtype(obj.TypeName, typeName) {
			continue
		}
		for _, frag := range acc[typeName] {
			if frag.TypeName != "" && !r.schema.IsSubtype(obj.TypeName, frag.TypeName) {
				continue
			}
			for _, node := range frag.Selections {
				if r.applyField(obj, desc, frag, node) {
					applied = append(applied, node)
				}
			}
		}
	}
	return applied
}

func (r *Reconstructor) applyField(obj *domain.Object, desc *domain.TypeDescriptor, frag *domain.NamedFragment, node *domain.SelectionNode) bool {
	key := node.Key()
	if domain.IsMetaField(node.Name) || obj.Has(key) {
		return false
	}

	field, ok := desc.Field(node.Name)
	if !ok {
		r.logger.Debug(fmt.Sprintf("fragment %s: %s has no field %s, skipping", frag.Name, obj.TypeName, node.Name))
		return false
	}

	raw, present := obj.Raw[node.JSONKey()]
	if !present {
		return false
	}

	value, err := r.value(field.Type, raw, node.Nested())
	if err != nil {
		r.logger.Debug(fmt.Sprintf("fragment %s: cannot set %s.%s: %v", frag.Name, obj.TypeName, node.Name, err))
		return false
	}

	obj.Set(key, value)
	return true
}

func (r *Reconstructor) isPolymorphic(typeExpr string) bool {
	desc, ok := r.schema.Type(domain.BareTypeName(typeExpr))
	return ok && desc.Kind == domain.KindInterface
}

func eachObject(v any, fn func(*domain.Object)) {
	switch t := v.(type) {
	case *domain.Object:
		fn(t)
	case []any:
		for _, item := range t {
			eachObject(item, fn)
		}
	}
}
