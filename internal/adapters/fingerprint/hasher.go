// Package fingerprint derives deterministic cache keys from calls.
package fingerprint

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Hasher computes call fingerprints and keeps the registry in step with them.
type Hasher struct {
	registry   ports.Registry
	logger     ports.Logger
	structural bool
}

// NewHasher creates a new Hasher.
func NewHasher(registry ports.Registry, logger ports.Logger, structural bool) *Hasher {
	return &Hasher{
		registry:   registry,
		logger:     logger,
		structural: structural,
	}
}

// Fingerprint returns the 16 hex character digest of the call's canonical form.
// New keys are registered and the registry is flushed; a flush failure is logged only.
func (h *Hasher) Fingerprint(call domain.Call) (string, error) {
	entry, err := Canonicalize(call, h.structural)
	if err != nil {
		return "", err
	}

	fp := Digest(entry)

	if h.registry.Register(fp, entry) {
		if err := h.registry.Flush(); err != nil {
			h.logger.Warn(fmt.Sprintf("fingerprint registry not persisted: %v", err))
		}
	}

	return fp, nil
}

// Digest hashes a canonical entry. Keyword arguments are hashed in key order.
func Digest(entry domain.RegistryEntry) string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(entry.Method)
	_, _ = hasher.Write([]byte{0})

	for _, arg := range entry.Args {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	keys := make([]string, 0, len(entry.Kwargs))
	for k := range entry.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(entry.Kwargs[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	return fmt.Sprintf("%016x", hasher.Sum64())
}
