package domain

import (
	"sort"
	"strings"
)

// Call identifies one invocation of a schema-typed remote method.
type Call struct {
	// Method is the dotted qualified name, e.g. "client.DatasetService.getDataset".
	Method string
	Args   []any
	Kwargs map[string]any
}

// NewCall creates a Call without keyword arguments.
func NewCall(method string, args ...any) Call {
	return Call{Method: method, Args: args}
}

// WithKwarg returns a copy of the call with the keyword argument set.
func (c Call) WithKwarg(key string, value any) Call {
	kwargs := make(map[string]any, len(c.Kwargs)+1)
	for k, v := range c.Kwargs {
		kwargs[k] = v
	}
	kwargs[key] = value
	c.Kwargs = kwargs
	return c
}

// RegistryEntry is the human-readable form of a call, keyed by fingerprint in the registry.
type RegistryEntry struct {
	Method string            `json:"method"`
	Args   []string          `json:"args"`
	Kwargs map[string]string `json:"kwargs"`
}

// String formats the entry as method(arg, key=value).
func (e RegistryEntry) String() string {
	parts := make([]string, 0, len(e.Args)+len(e.Kwargs))
	parts = append(parts, e.Args...)

	keys := make([]string, 0, len(e.Kwargs))
	for k := range e.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+e.Kwargs[k])
	}

	return e.Method + "(" + strings.Join(parts, ", ") + ")"
}
