package config

// File represents the structure of the rewind.yaml configuration file.
type File struct {
	CacheDir    string         `yaml:"cache_dir"`
	Mode        string         `yaml:"mode"`
	Schema      SchemaDTO      `yaml:"schema"`
	Fingerprint FingerprintDTO `yaml:"fingerprint"`
	Log         LogDTO         `yaml:"log"`
}

// SchemaDTO locates the schema catalogue.
type SchemaDTO struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// FingerprintDTO configures argument canonicalization.
type FingerprintDTO struct {
	StructuralArgs bool `yaml:"structural_args"`
}

// LogDTO configures the logger.
type LogDTO struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}
