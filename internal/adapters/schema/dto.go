package schema

// File represents the structure of a schema catalogue file.
type File struct {
	Name          string           `yaml:"name"`
	Discriminator DiscriminatorDTO `yaml:"discriminator"`
	Types         []TypeDTO        `yaml:"types"`
}

// DiscriminatorDTO maps internal type tags found in raw payloads to schema type names.
type DiscriminatorDTO struct {
	Field string            `yaml:"field"`
	Names map[string]string `yaml:"names"`
}

// TypeDTO represents one named type in the catalogue.
type TypeDTO struct {
	Name       string     `yaml:"name"`
	Kind       string     `yaml:"kind"`
	Implements []string   `yaml:"implements"`
	Fields     []FieldDTO `yaml:"fields"`
}

// FieldDTO represents one field of a composite type.
type FieldDTO struct {
	Name string `yaml:"name"`
	Wire string `yaml:"wire"`
	Type string `yaml:"type"`
}
