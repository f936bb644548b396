// Package config provides the configuration loader for rewind.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var logLevels = []string{"debug", "info", "warn", "error"}

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration file at path. A missing file yields defaults.
// Relative paths in the file are resolved against the file's directory.
func (l *Loader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("no config file at " + path + ", using defaults")
			return resolve(&File{}, filepath.Dir(path))
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}

	cfg, err := resolve(&file, filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func resolve(file *File, dir string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	if file.CacheDir != "" {
		cfg.CacheDir = file.CacheDir
	}
	cfg.CacheDir = relativeTo(dir, cfg.CacheDir)

	mode, err := domain.ParseMode(file.Mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	if file.Schema.Path != "" {
		cfg.SchemaPath = relativeTo(dir, file.Schema.Path)
	}
	cfg.SchemaName = file.Schema.Name
	cfg.StructuralArgs = file.Fingerprint.StructuralArgs

	if file.Log.Level != "" {
		level := strings.ToLower(file.Log.Level)
		if !slices.Contains(logLevels, level) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidLogLevel, "failed to parse log level"), "level", file.Log.Level)
		}
		cfg.LogLevel = level
	}
	cfg.LogJSON = file.Log.JSON

	return cfg, nil
}

func relativeTo(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
