// Package registry persists the fingerprint -> call mapping used for diagnostics.
package registry

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

// NotFound is the description returned for unknown fingerprints.
const NotFound = "not found"

var _ ports.Registry = (*Registry)(nil)

// Registry implements ports.Registry using a single flat JSON file.
//
// Updates are read-modify-write without a file lock; concurrent writers race and
// the last flush wins.
type Registry struct {
	path    string
	mu      sync.RWMutex
	entries map[string]domain.RegistryEntry
}

// New creates a Registry backed by the file at path. It does not read the file; call Load.
func New(path string) *Registry {
	return &Registry{
		path:    filepath.Clean(path),
		entries: make(map[string]domain.RegistryEntry),
	}
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Load replaces the in-memory entries with the persisted ones.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.entries = make(map[string]domain.RegistryEntry)
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrRegistryIO, err.Error()), "path", r.path)
	}

	entries := make(map[string]domain.RegistryEntry)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrRegistryIO, "failed to unmarshal registry: "+err.Error()), "path", r.path)
		}
	}
	r.entries = entries

	return nil
}

// Flush writes every entry to disk.
func (r *Registry) Flush() error {
	r.mu.RLock()
	data, err := json.MarshalIndent(r.entries, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(domain.ErrRegistryIO, "failed to marshal registry: "+err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(r.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryIO, err.Error()), "path", r.path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(r.path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryIO, err.Error()), "path", r.path)
	}

	return nil
}

// Register records entry under fingerprint and reports whether the key was new.
func (r *Registry) Register(fingerprint string, entry domain.RegistryEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[fingerprint]; ok {
		return false
	}
	r.entries[fingerprint] = entry
	return true
}

// Describe returns method(args, kwargs) for fingerprint, or NotFound.
func (r *Registry) Describe(fingerprint string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[fingerprint]
	if !ok {
		return NotFound
	}
	return entry.String()
}

// Reset drops every in-memory entry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]domain.RegistryEntry)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
