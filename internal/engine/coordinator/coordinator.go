// Package coordinator records and replays call results through the codec chain.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

// Span names and attribute keys.
const (
	SpanSave    = "rewind.save"
	SpanLoad    = "rewind.load"
	SpanExecute = "rewind.execute"

	AttrCall        = "rewind.call"
	AttrFingerprint = "rewind.fingerprint"
	AttrMode        = "rewind.mode"
	AttrCodec       = "rewind.codec"
	AttrOutcome     = "rewind.outcome"
)

// Outcomes recorded on spans.
const (
	OutcomeHit    = "hit"
	OutcomeMiss   = "miss"
	OutcomeSaved  = "saved"
	OutcomeExists = "exists"
	OutcomeFailed = "failed"
)

// Coordinator owns the registry, record store and codec chain of one cache.
type Coordinator struct {
	fingerprinter ports.Fingerprinter
	registry      ports.Registry
	store         ports.RecordStore
	codecs        []ports.Codec
	logger        ports.Logger
	tracer        ports.Tracer
}

// New creates a Coordinator. codecs are tried in order.
func New(
	fingerprinter ports.Fingerprinter,
	registry ports.Registry,
	store ports.RecordStore,
	codecs []ports.Codec,
	logger ports.Logger,
	tracer ports.Tracer,
) *Coordinator {
	return &Coordinator{
		fingerprinter: fingerprinter,
		registry:      registry,
		store:         store,
		codecs:        codecs,
		logger:        logger,
		tracer:        tracer,
	}
}

// Fingerprint derives the cache key of call and registers it for diagnostics.
func (c *Coordinator) Fingerprint(call domain.Call) (string, error) {
	return c.fingerprinter.Fingerprint(call)
}

// Describe returns the human-readable call registered under fingerprint.
func (c *Coordinator) Describe(fingerprint string) string {
	return c.registry.Describe(fingerprint)
}

// Exists reports whether any codec has a record for the call.
func (c *Coordinator) Exists(name, fingerprint string) bool {
	return c.store.Exists(name, fingerprint)
}

// Save persists v with the first capable codec. An existing record under any
// codec extension makes Save a no-op.
func (c *Coordinator) Save(ctx context.Context, name, fingerprint string, v any) error {
	_, span := c.tracer.Start(ctx, SpanSave)
	defer span.End()

	desc := c.registry.Describe(fingerprint)
	span.SetAttribute(AttrCall, desc)
	span.SetAttribute(AttrFingerprint, fingerprint)

	base, err := c.store.ResolvePath(name, fingerprint, true)
	if err != nil {
		span.RecordError(err)
		return err
	}

	for _, codec := range c.codecs {
		if c.store.FileExists(base + codec.Extension()) {
			c.logger.Debug(fmt.Sprintf("record for %s already exists, skipping save", desc))
			span.SetAttribute(AttrOutcome, OutcomeExists)
			return nil
		}
	}

	var errs error
	for _, codec := range c.codecs {
		if !codec.CanHandle(v) {
			continue
		}

		err := codec.Save(base+codec.Extension(), v)
		if err == nil {
			c.logger.Debug(fmt.Sprintf("saved %s with %s codec", desc, codec.Name()))
			span.SetAttribute(AttrCodec, codec.Name())
			span.SetAttribute(AttrOutcome, OutcomeSaved)
			return nil
		}
		if errors.Is(err, fs.ErrExist) {
			c.logger.Debug(fmt.Sprintf("record for %s was created concurrently, skipping save", desc))
			span.SetAttribute(AttrOutcome, OutcomeExists)
			return nil
		}

		c.logger.Warn(fmt.Sprintf("%s codec failed to save %s: %v", codec.Name(), desc, err))
		errs = errors.Join(errs, err)
	}

	if errs == nil {
		errs = zerr.New("no capable codec")
	}
	err = domain.CodecFailure(zerr.With(zerr.Wrap(errs, "cannot save "+desc), "call", desc))
	span.SetAttribute(AttrOutcome, OutcomeFailed)
	span.RecordError(err)
	return err
}

// Load returns the value of the first record a codec can read. It fails with
// domain.ErrCacheMiss when no codec produced a value.
func (c *Coordinator) Load(ctx context.Context, name, fingerprint string) (any, error) {
	_, span := c.tracer.Start(ctx, SpanLoad)
	defer span.End()

	desc := c.registry.Describe(fingerprint)
	span.SetAttribute(AttrCall, desc)
	span.SetAttribute(AttrFingerprint, fingerprint)

	base, err := c.store.ResolvePath(name, fingerprint, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, codec := range c.codecs {
		path := base + codec.Extension()
		if !c.store.FileExists(path) {
			continue
		}

		v, err := codec.Load(path)
		if err == nil {
			span.SetAttribute(AttrCodec, codec.Name())
			span.SetAttribute(AttrOutcome, OutcomeHit)
			return v, nil
		}
		c.logger.Warn(fmt.Sprintf("%s codec failed to load %s: %v", codec.Name(), desc, err))
	}

	span.SetAttribute(AttrOutcome, OutcomeMiss)
	return nil, zerr.With(zerr.Wrap(domain.ErrCacheMiss, "no record for "+desc), "call", desc)
}

// Clear deletes the whole record tree and resets the registry. It refuses to
// run unless force is set.
func (c *Coordinator) Clear(force bool) error {
	if !force {
		return domain.ErrClearNotForced
	}
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.registry.Reset()
	c.logger.Info("cache cleared")
	return nil
}

// WithCache returns an interceptor applying mode around real calls.
func (c *Coordinator) WithCache(mode domain.Mode) *Interceptor {
	return &Interceptor{coordinator: c, mode: mode}
}
