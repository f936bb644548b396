package ports

import "go.trai.ch/rewind/internal/core/domain"

// Schema is the catalogue of named types a typed result is bound to.
type Schema interface {
	// Name identifies the schema in persisted records.
	Name() string

	// Type resolves a bare type name.
	Type(name string) (*domain.TypeDescriptor, bool)

	// IsSubtype reports whether concrete is abstract or implements it,
	// directly or through other interfaces.
	IsSubtype(concrete, abstract string) bool

	// DiscriminatorField is the raw payload field holding internal type names.
	DiscriminatorField() string

	// ResolveDiscriminator maps an internal type name to a schema type name.
	ResolveDiscriminator(internal string) (string, bool)
}
