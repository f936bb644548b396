// Package app implements the application layer for rewind.
package app

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.trai.ch/rewind/internal/adapters/schema" //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, log ports.Logger, tracer ports.Tracer) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
	}
}

// SessionOptions select and override the configuration a session is opened with.
type SessionOptions struct {
	ConfigPath string
	CacheDir   string
	Mode       string
	Verbose    bool
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Force bool
}

// VerifyOptions configuration for the Verify method.
type VerifyOptions struct {
	// Jobs bounds the number of records read concurrently. Zero means one per CPU.
	Jobs int
}

// VerifyFailure is a record that could not be read back.
type VerifyFailure struct {
	Path string
	Err  error
}

// VerifyReport summarizes a verification pass over the record tree.
type VerifyReport struct {
	Checked  int
	Failures []VerifyFailure
}

type configurableLogger interface {
	SetLevel(level string) error
	SetJSON(enable bool)
}

// Open loads the configuration and schema and assembles a cache session.
func (a *App) Open(opts SessionOptions) (*Session, error) {
	path := opts.ConfigPath
	if path == "" {
		path = domain.ConfigFileName
	}

	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.CacheDir != "" {
		cfg.CacheDir = opts.CacheDir
	}
	if opts.Mode != "" {
		mode, err := domain.ParseMode(opts.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if l, ok := a.logger.(configurableLogger); ok {
		if err := l.SetLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
		l.SetJSON(cfg.LogJSON)
	}

	catalog, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}

	return newSession(cfg, filepath.Dir(path), catalog, a.logger, a.tracer), nil
}

func loadSchema(cfg *domain.Config) (*schema.Catalog, error) {
	catalog := schema.Empty()
	if cfg.SchemaPath != "" {
		loaded, err := schema.Load(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	if cfg.SchemaName != "" {
		catalog = catalog.Rename(cfg.SchemaName)
	}
	return catalog, nil
}

// Clean removes the record tree and resets the fingerprint registry.
func (a *App) Clean(_ context.Context, sessionOpts SessionOptions, opts CleanOptions) error {
	s, err := a.Open(sessionOpts)
	if err != nil {
		return err
	}
	return s.Coordinator.Clear(opts.Force)
}

// Describe returns the call registered under fingerprint.
func (a *App) Describe(_ context.Context, opts SessionOptions, fingerprint string) (string, error) {
	s, err := a.Open(opts)
	if err != nil {
		return "", err
	}
	return s.Coordinator.Describe(fingerprint), nil
}

// Fingerprint computes and registers the fingerprint of call.
func (a *App) Fingerprint(_ context.Context, opts SessionOptions, call domain.Call) (string, error) {
	s, err := a.Open(opts)
	if err != nil {
		return "", err
	}
	return s.Coordinator.Fingerprint(call)
}

// Exists reports whether a record exists for the call name and fingerprint.
func (a *App) Exists(_ context.Context, opts SessionOptions, name, fingerprint string) (bool, error) {
	s, err := a.Open(opts)
	if err != nil {
		return false, err
	}
	return s.Coordinator.Exists(name, fingerprint), nil
}

// Show loads the recorded value for the call name and fingerprint.
func (a *App) Show(ctx context.Context, opts SessionOptions, name, fingerprint string) (any, error) {
	s, err := a.Open(opts)
	if err != nil {
		return nil, err
	}
	return s.Coordinator.Load(ctx, name, fingerprint)
}

// Verify reads back every record in the tree with the codec owning its extension.
func (a *App) Verify(ctx context.Context, sessionOpts SessionOptions, opts VerifyOptions) (*VerifyReport, error) {
	s, err := a.Open(sessionOpts)
	if err != nil {
		return nil, err
	}

	paths, err := s.Store.Records()
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Checked: len(paths)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g.SetLimit(jobs)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, ok := s.codecFor(filepath.Ext(path))
			if !ok {
				return nil
			}
			if _, err := c.Load(path); err != nil {
				mu.Lock()
				report.Failures = append(report.Failures, VerifyFailure{Path: path, Err: err})
				mu.Unlock()
				return nil
			}
			a.logger.Debug("verified " + path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, "verification interrupted")
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Path < report.Failures[j].Path
	})
	return report, nil
}
