package domain

// Config is the resolved runtime configuration of the cache.
type Config struct {
	// CacheDir is the root of the record tree and the registry.
	CacheDir string
	// Mode is the default execution mode applied by interceptors.
	Mode Mode
	// SchemaPath points at the YAML schema catalogue. Empty means only built-in scalars are known.
	SchemaPath string
	// SchemaName overrides the name declared in the schema catalogue.
	SchemaName string
	// StructuralArgs canonicalizes every argument structurally instead of by its textual form.
	StructuralArgs bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogJSON switches log output to JSON lines.
	LogJSON bool
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		CacheDir: DefaultCacheDir,
		Mode:     ModeLazy,
		LogLevel: "info",
	}
}
