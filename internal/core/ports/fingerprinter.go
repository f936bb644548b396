package ports

import "go.trai.ch/rewind/internal/core/domain"

// Fingerprinter derives stable cache keys from calls.
//
//go:generate mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint returns the hex digest of the call's canonical form and
	// registers the call under it.
	Fingerprint(call domain.Call) (string, error)
}
