package domain

import "path/filepath"

const (
	// DefaultCacheDir is the default root directory of the record tree.
	DefaultCacheDir = "cache"

	// RegistryFileName is the name of the fingerprint registry inside the cache root.
	RegistryFileName = "cache_key_registry.json"

	// ConfigFileName is the name of the default configuration file.
	ConfigFileName = "rewind.yaml"

	// TypedExt is the file extension of typed-result records.
	TypedExt = ".json"

	// OpaqueExt is the file extension of opaque snapshot records.
	OpaqueExt = ".gob"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// RegistryPath returns the path of the fingerprint registry for the given cache root.
func RegistryPath(cacheDir string) string {
	return filepath.Join(cacheDir, RegistryFileName)
}
