package coordinator

import (
	"context"
	"fmt"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/zerr"
)

// RealCall performs the uncached call.
type RealCall func(ctx context.Context) (any, error)

// Interceptor wraps real calls with one execution mode.
type Interceptor struct {
	coordinator *Coordinator
	mode        domain.Mode
}

// Mode returns the execution mode.
func (i *Interceptor) Mode() domain.Mode {
	return i.mode
}

// Do runs call through the cache.
//
// Record mode always runs fn and saves its result. Strict mode only loads and
// never runs fn. Lazy mode loads and falls back to record on any failure.
// Caching failures never mask the result of fn.
func (i *Interceptor) Do(ctx context.Context, call domain.Call, fn RealCall) (any, error) {
	c := i.coordinator

	ctx, span := c.tracer.Start(ctx, SpanExecute)
	defer span.End()
	span.SetAttribute(AttrMode, i.mode)

	switch i.mode {
	case domain.ModeRecord, domain.ModeStrict, domain.ModeLazy:
	default:
		err := zerr.With(zerr.Wrap(domain.ErrInvalidMode, "cannot run "+call.Method), "mode", string(i.mode))
		span.RecordError(err)
		return nil, err
	}

	fingerprint, err := c.Fingerprint(call)
	if err != nil {
		if i.mode == domain.ModeStrict {
			span.RecordError(err)
			return nil, err
		}
		c.logger.Warn(fmt.Sprintf("caching disabled for %s: %v", call.Method, err))
		return fn(ctx)
	}
	span.SetAttribute(AttrFingerprint, fingerprint)
	span.SetAttribute(AttrCall, c.Describe(fingerprint))

	switch i.mode {
	case domain.ModeRecord:
		return i.record(ctx, call, fingerprint, fn)
	case domain.ModeStrict:
		v, err := c.Load(ctx, call.Method, fingerprint)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return v, nil
	default:
		v, err := c.Load(ctx, call.Method, fingerprint)
		if err == nil {
			return v, nil
		}
		c.logger.Debug(fmt.Sprintf("replay failed, calling through: %v", err))
		return i.record(ctx, call, fingerprint, fn)
	}
}

func (i *Interceptor) record(ctx context.Context, call domain.Call, fingerprint string, fn RealCall) (any, error) {
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if err := i.coordinator.Save(ctx, call.Method, fingerprint, v); err != nil {
		i.coordinator.logger.Warn(fmt.Sprintf("result not cached: %v", err))
	}
	return v, nil
}

// Do runs fn through i and asserts the result type. In lazy mode a cached value
// of another type is ignored and fn runs instead.
func Do[T any](ctx context.Context, i *Interceptor, call domain.Call, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := i.Do(ctx, call, func(ctx context.Context) (any, error) {
		res, err := fn(ctx)
		return res, err
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	res, ok := v.(T)
	if ok {
		return res, nil
	}
	if i.mode == domain.ModeLazy {
		i.coordinator.logger.Debug(fmt.Sprintf("cached %s holds %T, calling through", call.Method, v))
		return fn(ctx)
	}
	err = zerr.With(zerr.New("cached value has an unexpected type"), "type", fmt.Sprintf("%T", v))
	return zero, domain.CodecFailure(err)
}
