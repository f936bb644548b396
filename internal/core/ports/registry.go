package ports

import "go.trai.ch/rewind/internal/core/domain"

// Registry maps fingerprints to the human-readable calls they were derived from.
// It is diagnostic only and never consulted for correctness.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// Load replaces the in-memory entries with the persisted ones.
	// A missing file yields an empty registry.
	Load() error

	// Flush persists the in-memory entries.
	Flush() error

	// Register records entry under fingerprint. It reports whether the key was new.
	Register(fingerprint string, entry domain.RegistryEntry) bool

	// Describe returns the formatted call for fingerprint, or "not found".
	Describe(fingerprint string) string

	// Reset drops every in-memory entry.
	Reset()

	// Len returns the number of entries.
	Len() int
}
