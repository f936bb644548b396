// Package schema loads the type catalogue typed results are bound to.
package schema

import (
	"os"
	"sort"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultDiscriminatorField is the payload field holding internal type tags.
const DefaultDiscriminatorField = "type"

var builtinScalars = []string{"ID", "String", "Int", "Float", "Boolean"}

var _ ports.Schema = (*Catalog)(nil)

// Catalog implements ports.Schema over a fixed set of declared types.
type Catalog struct {
	name               string
	types              map[string]*domain.TypeDescriptor
	discriminatorField string
	discriminatorNames map[string]string
}

// Empty returns a catalogue that only knows the built-in scalars.
func Empty() *Catalog {
	c, _ := build(&File{})
	return c
}

// Load reads and parses the catalogue file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSchemaReadFailed, err.Error()), "path", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return c, nil
}

// Parse builds a catalogue from YAML.
func Parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(domain.ErrSchemaParseFailed, err.Error())
	}
	return build(&file)
}

func build(file *File) (*Catalog, error) {
	c := &Catalog{
		name:               file.Name,
		types:              make(map[string]*domain.TypeDescriptor, len(file.Types)+len(builtinScalars)),
		discriminatorField: file.Discriminator.Field,
		discriminatorNames: make(map[string]string, len(file.Discriminator.Names)),
	}
	if c.discriminatorField == "" {
		c.discriminatorField = DefaultDiscriminatorField
	}

	for _, name := range builtinScalars {
		c.types[name] = &domain.TypeDescriptor{Name: name, Kind: domain.KindScalar}
	}

	for _, dto := range file.Types {
		desc, err := toDescriptor(dto)
		if err != nil {
			return nil, err
		}
		if _, exists := c.types[desc.Name]; exists {
			return nil, invalid("duplicate type", "type", desc.Name)
		}
		c.types[desc.Name] = desc
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	for internal, typeName := range file.Discriminator.Names {
		desc, ok := c.types[typeName]
		if !ok || desc.Kind != domain.KindObject {
			return nil, invalid("discriminator must map to an object type", "tag", internal)
		}
		c.discriminatorNames[internal] = typeName
	}

	return c, nil
}

func toDescriptor(dto TypeDTO) (*domain.TypeDescriptor, error) {
	if dto.Name == "" {
		return nil, invalid("type without a name", "kind", dto.Kind)
	}

	kind := domain.TypeKind(dto.Kind)
	if kind == "" {
		kind = domain.KindObject
	}
	switch kind {
	case domain.KindScalar, domain.KindEnum, domain.KindObject, domain.KindInterface:
	default:
		return nil, invalid("unknown kind '"+dto.Kind+"'", "type", dto.Name)
	}

	desc := &domain.TypeDescriptor{
		Name:       dto.Name,
		Kind:       kind,
		Interfaces: dto.Implements,
		Fields:     make(map[string]*domain.FieldDescriptor, len(dto.Fields)),
	}
	for _, f := range dto.Fields {
		if f.Name == "" || f.Type == "" {
			return nil, invalid("field requires a name and a type", "type", dto.Name)
		}
		if _, dup := desc.Fields[f.Name]; dup {
			return nil, invalid("duplicate field '"+f.Name+"'", "type", dto.Name)
		}
		wire := f.Wire
		if wire == "" {
			wire = f.Name
		}
		desc.Fields[f.Name] = &domain.FieldDescriptor{Name: f.Name, WireName: wire, Type: f.Type}
	}

	if kind.IsLeaf() && (len(desc.Fields) > 0 || len(desc.Interfaces) > 0) {
		return nil, invalid("leaf types cannot declare fields or interfaces", "type", dto.Name)
	}

	return desc, nil
}

func (c *Catalog) validate() error {
	for _, desc := range c.types {
		for _, iface := range desc.Interfaces {
			target, ok := c.types[iface]
			if !ok || target.Kind != domain.KindInterface {
				return invalid("'"+iface+"' is not a declared interface", "type", desc.Name)
			}
		}
		for _, f := range desc.Fields {
			if _, ok := c.types[domain.BareTypeName(f.Type)]; !ok {
				return invalid("field '"+f.Name+"' references undeclared type '"+f.Type+"'", "type", desc.Name)
			}
		}
	}
	return nil
}

// Name identifies the catalogue in persisted records.
func (c *Catalog) Name() string {
	return c.name
}

// Rename returns a copy of the catalogue identified by name.
func (c *Catalog) Rename(name string) *Catalog {
	cp := *c
	cp.name = name
	return &cp
}

// Type resolves a type name. Type expressions are stripped to their bare name.
func (c *Catalog) Type(name string) (*domain.TypeDescriptor, bool) {
	desc, ok := c.types[domain.BareTypeName(name)]
	return desc, ok
}

// TypeNames returns every declared type name, built-in scalars included, sorted.
func (c *Catalog) TypeNames() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSubtype reports whether concrete is abstract or implements it transitively.
func (c *Catalog) IsSubtype(concrete, abstract string) bool {
	if concrete == abstract {
		return true
	}
	seen := make(map[string]bool)
	stack := []string{concrete}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true

		desc, ok := c.types[name]
		if !ok {
			continue
		}
		for _, iface := range desc.Interfaces {
			if iface == abstract {
				return true
			}
			stack = append(stack, iface)
		}
	}
	return false
}

// DiscriminatorField is the raw payload field holding internal type tags.
func (c *Catalog) DiscriminatorField() string {
	return c.discriminatorField
}

// ResolveDiscriminator maps an internal type tag to a schema type name.
func (c *Catalog) ResolveDiscriminator(internal string) (string, bool) {
	name, ok := c.discriminatorNames[internal]
	return name, ok
}

func invalid(msg, key, value string) error {
	return zerr.With(zerr.Wrap(domain.ErrInvalidSchema, msg), key, value)
}
