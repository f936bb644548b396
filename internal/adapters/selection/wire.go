package selection

// setDTO is the persisted form of a selection set.
type setDTO struct {
	TypeName   string                    `json:"type_name"`
	Selections []*nodeDTO                `json:"selections"`
	Casts      map[string]*setDTO        `json:"casts"`
	Fragments  map[string][]*fragmentDTO `json:"fragments"`
}

// nodeDTO is the persisted form of one requested field.
type nodeDTO struct {
	FieldName   string                    `json:"field_name"`
	GraphQLName string                    `json:"field_graphql_name"`
	Alias       *string                   `json:"alias"`
	Args        map[string]any            `json:"args"`
	Nested      *setDTO                   `json:"nested_selection_list"`
	Casts       map[string]*setDTO        `json:"selection_casts"`
	Fragments   map[string][]*fragmentDTO `json:"selection_fragments"`
}

// fragmentDTO is the persisted form of a named fragment.
type fragmentDTO struct {
	Name       string     `json:"name"`
	TypeName   string     `json:"type_name"`
	Selections []*nodeDTO `json:"selections"`
}
