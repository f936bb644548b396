package ports

// RecordStore maps (qualified call name, fingerprint) pairs to record locations.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type RecordStore interface {
	// ResolvePath returns the record base path, without any codec extension.
	// When forWrite is true, missing parent directories are created.
	ResolvePath(name, fingerprint string, forWrite bool) (string, error)

	// Exists reports whether a record exists under any known codec extension.
	Exists(name, fingerprint string) bool

	// FileExists reports whether a concrete record file exists.
	FileExists(path string) bool

	// Clear deletes the whole record tree.
	Clear() error
}
