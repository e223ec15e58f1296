// Package jsonregistry is the public binding surface (C6) over the
// registry engine: construct a Registry from a Configuration, register
// single or batched JSON values, and close it when done. It holds no
// business logic of its own — canonicalisation, caching, and storage all
// live in internal/registry and the packages it wires together.
package jsonregistry

import (
	"context"

	"go.uber.org/zap"

	"jsonregistry/internal/config"
	"jsonregistry/internal/registry"
)

// Configuration is re-exported so callers never need to import the
// internal package directly.
type Configuration = config.Configuration

// ErrClosed is returned by Registry methods once Close has been called.
var ErrClosed = registry.ErrClosed

// Registry is a constructed, connected registry. The zero value is not
// usable; construct with New.
type Registry struct {
	engine *registry.Engine
}

// New validates cfg, connects to the store, and returns a ready
// Registry, or a *errs.ConfigError / *errs.InitError describing why
// construction failed. Passing a nil logger disables logging.
func New(ctx context.Context, cfg Configuration, logger *zap.Logger) (*Registry, error) {
	e, err := registry.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Registry{engine: e}, nil
}

// RegisterObject canonicalises v and returns its identifier, reusing an
// existing row when one already holds the same canonical bytes.
func (r *Registry) RegisterObject(ctx context.Context, v any) (uint64, error) {
	return r.engine.RegisterObject(ctx, v)
}

// RegisterBatchObjects registers every value in vs and returns their
// identifiers in the same order, deduplicating and batching store round
// trips internally.
func (r *Registry) RegisterBatchObjects(ctx context.Context, vs []any) ([]uint64, error) {
	return r.engine.RegisterBatchObjects(ctx, vs)
}

// Close tears the registry down. Safe to call more than once.
func (r *Registry) Close() error {
	return r.engine.Close()
}
