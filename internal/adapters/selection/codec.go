// Package selection converts selection trees to a self-describing JSON form and back.
package selection

import (
	"encoding/json"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

// Codec serializes selection sets. Decoding resolves every type name against the schema.
type Codec struct {
	schema ports.Schema
}

// NewCodec creates a Codec bound to schema.
func NewCodec(schema ports.Schema) *Codec {
	return &Codec{schema: schema}
}

// Marshal encodes set. Type expressions are stripped to bare names.
func (c *Codec) Marshal(set *domain.SelectionSet) (json.RawMessage, error) {
	if set == nil {
		return json.RawMessage("null"), nil
	}
	data, err := json.Marshal(encodeSet(set))
	if err != nil {
		return nil, domain.CodecFailure(zerr.Wrap(err, "failed to encode selection"))
	}
	return data, nil
}

// Unmarshal decodes a selection set. Introspection fields are dropped.
// Unresolvable types or fields fail with an error matching domain.ErrCodecFailure.
func (c *Codec) Unmarshal(data []byte) (*domain.SelectionSet, error) {
	return c.UnmarshalAs(data, "")
}

// UnmarshalAs decodes a selection set whose root carries no type name as
// fallbackType.
func (c *Codec) UnmarshalAs(data []byte, fallbackType string) (*domain.SelectionSet, error) {
	var dto *setDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, domain.CodecFailure(zerr.Wrap(err, "failed to decode selection"))
	}
	if dto == nil {
		return nil, nil
	}

	set, err := c.decodeSet(dto, fallbackType)
	if err != nil {
		return nil, domain.CodecFailure(err)
	}
	return set, nil
}

func encodeSet(set *domain.SelectionSet) *setDTO {
	if set == nil {
		return nil
	}
	return &setDTO{
		TypeName:   domain.BareTypeName(set.TypeName),
		Selections: encodeNodes(set.Selections),
		Casts:      encodeCasts(set.Casts),
		Fragments:  encodeFragments(set.Fragments),
	}
}

func encodeNodes(nodes []*domain.SelectionNode) []*nodeDTO {
	out := make([]*nodeDTO, 0, len(nodes))
	for _, n := range nodes {
		dto := &nodeDTO{
			FieldName:   n.Name,
			GraphQLName: n.WireName,
			Args:        n.Args,
			Nested:      encodeSet(n.Selection),
			Casts:       encodeCasts(n.Casts),
			Fragments:   encodeFragments(n.Fragments),
		}
		if dto.GraphQLName == "" {
			dto.GraphQLName = n.Name
		}
		if n.Alias != "" {
			alias := n.Alias
			dto.Alias = &alias
		}
		if dto.Args == nil {
			dto.Args = map[string]any{}
		}
		out = append(out, dto)
	}
	return out
}

func encodeCasts(casts map[string]*domain.SelectionSet) map[string]*setDTO {
	out := make(map[string]*setDTO, len(casts))
	for typeName, set := range casts {
		if set == nil {
			continue
		}
		dto := encodeSet(set)
		if dto.TypeName == "" {
			dto.TypeName = domain.BareTypeName(typeName)
		}
		out[domain.BareTypeName(typeName)] = dto
	}
	return out
}

func encodeFragments(fragments map[string][]*domain.NamedFragment) map[string][]*fragmentDTO {
	out := make(map[string][]*fragmentDTO, len(fragments))
	for typeName, list := range fragments {
		dtos := make([]*fragmentDTO, 0, len(list))
		for _, f := range list {
			dtos = append(dtos, &fragmentDTO{
				Name:       f.Name,
				TypeName:   domain.BareTypeName(f.TypeName),
				Selections: encodeNodes(f.Selections),
			})
		}
		out[domain.BareTypeName(typeName)] = dtos
	}
	return out
}

func (c *Codec) decodeSet(dto *setDTO, fallbackType string) (*domain.SelectionSet, error) {
	typeName := domain.BareTypeName(dto.TypeName)
	if typeName == "" {
		typeName = domain.BareTypeName(fallbackType)
	}
	desc, err := c.resolve(typeName)
	if err != nil {
		return nil, err
	}

	nodes, err := c.decodeNodes(dto.Selections, desc)
	if err != nil {
		return nil, err
	}
	casts, err := c.decodeCasts(dto.Casts)
	if err != nil {
		return nil, err
	}
	fragments, err := c.decodeFragments(dto.Fragments)
	if err != nil {
		return nil, err
	}

	return &domain.SelectionSet{
		TypeName:   desc.Name,
		Selections: nodes,
		Casts:      casts,
		Fragments:  fragments,
	}, nil
}

func (c *Codec) decodeNodes(dtos []*nodeDTO, parent *domain.TypeDescriptor) ([]*domain.SelectionNode, error) {
	nodes := make([]*domain.SelectionNode, 0, len(dtos))
	for _, dto := range dtos {
		if dto == nil || domain.IsMetaField(dto.FieldName) {
			continue
		}

		field, ok := parent.Field(dto.FieldName)
		if !ok {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownField, "selected field is not declared"),
				"type", parent.Name), "field", dto.FieldName)
		}

		node := &domain.SelectionNode{
			Name:     dto.FieldName,
			WireName: dto.GraphQLName,
			Args:     dto.Args,
		}
		if node.WireName == "" {
			node.WireName = field.WireName
		}
		if dto.Alias != nil {
			node.Alias = *dto.Alias
		}

		var err error
		if dto.Nested != nil {
			if node.Selection, err = c.decodeSet(dto.Nested, field.Type); err != nil {
				return nil, err
			}
		}
		if node.Casts, err = c.decodeCasts(dto.Casts); err != nil {
			return nil, err
		}
		if node.Fragments, err = c.decodeFragments(dto.Fragments); err != nil {
			return nil, err
		}

		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (c *Codec) decodeCasts(dtos map[string]*setDTO) (map[string]*domain.SelectionSet, error) {
	casts := make(map[string]*domain.SelectionSet, len(dtos))
	for typeName, dto := range dtos {
		if dto == nil {
			continue
		}
		set, err := c.decodeSet(dto, typeName)
		if err != nil {
			return nil, err
		}
		casts[domain.BareTypeName(typeName)] = set
	}
	return casts, nil
}

func (c *Codec) decodeFragments(dtos map[string][]*fragmentDTO) (map[string][]*domain.NamedFragment, error) {
	fragments := make(map[string][]*domain.NamedFragment, len(dtos))
	for typeName, list := range dtos {
		key := domain.BareTypeName(typeName)
		if _, err := c.resolve(key); err != nil {
			return nil, err
		}
		for _, dto := range list {
			if dto == nil {
				continue
			}
			fragType := domain.BareTypeName(dto.TypeName)
			if fragType == "" {
				fragType = key
			}
			desc, err := c.resolve(fragType)
			if err != nil {
				return nil, err
			}
			nodes, err := c.decodeNodes(dto.Selections, desc)
			if err != nil {
				return nil, err
			}
			fragments[key] = append(fragments[key], &domain.NamedFragment{
				Name:       dto.Name,
				TypeName:   desc.Name,
				Selections: nodes,
			})
		}
	}
	return fragments, nil
}

func (c *Codec) resolve(typeName string) (*domain.TypeDescriptor, error) {
	desc, ok := c.schema.Type(typeName)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownType, "selection references an unknown type"), "type", typeName)
	}
	return desc, nil
}
