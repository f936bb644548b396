package app

import (
	"context"

	"go.trai.ch/rewind/internal/adapters/codec"       //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/fingerprint" //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/reconstruct" //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/registry"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/schema"      //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/selection"   //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/adapters/store"       //nolint:depguard // Wired in app layer
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/rewind/internal/engine/coordinator"
)

// Session is one opened cache: the resolved config and every component built from it.
type Session struct {
	Config        *domain.Config
	Schema        *schema.Catalog
	Registry      *registry.Registry
	Store         *store.Store
	Chain         *codec.Chain
	Reconstructor *reconstruct.Reconstructor
	Coordinator   *coordinator.Coordinator
}

// FetchFunc performs the real remote call and returns its raw payload.
type FetchFunc func(ctx context.Context) (map[string]any, error)

func newSession(
	cfg *domain.Config,
	projectDir string,
	catalog *schema.Catalog,
	log ports.Logger,
	tracer ports.Tracer,
) *Session {
	reg := registry.New(domain.RegistryPath(cfg.CacheDir))
	if err := reg.Load(); err != nil {
		// The registry is diagnostic only.
		log.Warn("fingerprint registry unreadable, starting empty: " + err.Error())
	}

	r := reconstruct.New(catalog, log)
	chain := codec.NewChain(
		codec.NewTypedCodec(r, selection.NewCodec(catalog)),
		codec.NewOpaqueCodec(),
	)
	st := store.NewStore(cfg.CacheDir, chain.Extensions()).Protect(projectDir)
	hasher := fingerprint.NewHasher(reg, log, cfg.StructuralArgs)

	return &Session{
		Config:        cfg,
		Schema:        catalog,
		Registry:      reg,
		Store:         st,
		Chain:         chain,
		Reconstructor: r,
		Coordinator:   coordinator.New(hasher, reg, st, chain.Codecs(), log, tracer),
	}
}

// Interceptor returns an interceptor bound to the configured default mode.
func (s *Session) Interceptor() *coordinator.Interceptor {
	return s.Coordinator.WithCache(s.Config.Mode)
}

// Query runs a schema-typed call through the cache. Fresh payloads are
// reconstructed against sel before they are recorded.
func (s *Session) Query(
	ctx context.Context,
	call domain.Call,
	typeName string,
	sel *domain.SelectionSet,
	fetch FetchFunc,
) (*domain.Object, error) {
	return coordinator.Do(ctx, s.Interceptor(), call, func(ctx context.Context) (*domain.Object, error) {
		raw, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return s.Reconstructor.Build(typeName, raw, sel)
	})
}

// codecFor returns the codec owning the extension of a record file.
func (s *Session) codecFor(ext string) (ports.Codec, bool) {
	for _, c := range s.Chain.Codecs() {
		if c.Extension() == ext {
			return c, true
		}
	}
	return nil, false
}
