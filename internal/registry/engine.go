// Package registry implements the registry engine (C5): canonicalise,
// probe the cache, and upsert unresolved values against the relational
// store, wiring together internal/canon, internal/cache, and
// internal/pool behind the two public operations RegisterObject and
// RegisterBatchObjects.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"jsonregistry/internal/cache"
	"jsonregistry/internal/canon"
	"jsonregistry/internal/config"
	"jsonregistry/internal/errs"
	"jsonregistry/internal/pool"
)

// maxBatchStatementSize bounds how many unresolved values a single
// multi-row upsert statement carries. A batch larger than this is split
// into chunks executed back to back; chunk boundaries are not observable
// in the returned identifiers.
const maxBatchStatementSize = 1000

// ErrClosed is returned by RegisterObject and RegisterBatchObjects once
// the engine has been torn down by Close. There is no way back from Torn
// to Ready.
var ErrClosed = errors.New("registry: engine is closed")

// Engine is a Ready/Torn state machine: Ready after successful
// construction, Torn forever after Close. There is no Connecting state —
// New blocks until the store is reachable or returns an error.
type Engine struct {
	cfg    config.Configuration
	pool   *pool.Pool
	cache  *cache.Cache
	logger *zap.Logger

	torn atomic.Bool
}

// New validates cfg, opens the connection pool (pinging the store
// eagerly), and constructs the identifier cache. A nil logger is
// replaced with zap.NewNop() so callers that don't care about logging
// don't have to construct one.
func New(ctx context.Context, cfg config.Configuration, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Normalized()

	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := pool.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		pool:   p,
		cache:  cache.New(cfg.LRUCacheSize),
		logger: logger,
	}
	e.logger.Info("registry engine ready",
		zap.String("table", cfg.TableName),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("lru_cache_size", cfg.LRUCacheSize),
	)
	return e, nil
}

// Close tears the engine down: closes the pool and refuses all further
// registrations. Idempotent.
func (e *Engine) Close() error {
	if e.torn.Swap(true) {
		return nil
	}
	e.logger.Info("registry engine closed", zap.String("pool_stat", e.pool.Stat()))
	e.pool.Close()
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StatementTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.cfg.StatementTimeout)
}

// RegisterObject canonicalises v, returning its identifier. A cache hit
// skips the store entirely; a miss performs a single upsert-returning-id
// round trip and populates the cache before returning.
func (e *Engine) RegisterObject(ctx context.Context, v any) (uint64, error) {
	if e.torn.Load() {
		return 0, ErrClosed
	}

	cval, err := canon.Canonicalise(v)
	if err != nil {
		return 0, err
	}
	key := string(cval)

	if id, ok := e.cache.Probe(key); ok {
		return id, nil
	}

	id, err := e.upsertOne(ctx, cval)
	if err != nil {
		return 0, err
	}

	e.cache.Insert(key, id)
	return id, nil
}

func (e *Engine) upsertOne(ctx context.Context, cval []byte) (uint64, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	conn, err := e.pool.Lease(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var id uint64
	row := conn.Raw().QueryRow(ctx, buildSingleUpsertSQL(e.cfg), cval)
	if err := row.Scan(&id); err != nil {
		return 0, errs.NewStoreError("register_object", err)
	}
	return id, nil
}

// RegisterBatchObjects canonicalises every value in vs, probes the
// cache for each, and resolves the deduplicated set of cache misses with
// as few round trips as possible (one per maxBatchStatementSize-sized
// chunk), then reassembles identifiers in the caller's original order.
//
// Resolution is tracked in a local map sized to this call, not by
// re-probing the shared LRU cache once every chunk has run: the cache is
// bounded by lru_cache_size, which may be as small as 1, so a later
// chunk's Insert calls can evict an earlier chunk's entries before
// assembly gets to them. The local map is the source of truth for this
// call; cache.Insert is still called for every value the store returns so
// later, unrelated calls can still benefit from the cache.
func (e *Engine) RegisterBatchObjects(ctx context.Context, vs []any) ([]uint64, error) {
	if e.torn.Load() {
		return nil, ErrClosed
	}
	if len(vs) == 0 {
		return nil, nil
	}

	cvals := make([][]byte, len(vs))
	for i, v := range vs {
		cval, err := canon.Canonicalise(v)
		if err != nil {
			return nil, err
		}
		cvals[i] = cval
	}

	resolved := make(map[string]uint64, len(vs))
	seen := make(map[string]struct{})
	var unresolved [][]byte
	for _, cval := range cvals {
		key := string(cval)
		if id, ok := e.cache.Probe(key); ok {
			resolved[key] = id
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unresolved = append(unresolved, cval)
	}

	for start := 0; start < len(unresolved); start += maxBatchStatementSize {
		end := start + maxBatchStatementSize
		if end > len(unresolved) {
			end = len(unresolved)
		}
		if err := e.upsertChunk(ctx, unresolved[start:end], resolved); err != nil {
			return nil, err
		}
	}

	results := make([]uint64, len(vs))
	for i, cval := range cvals {
		id, ok := resolved[string(cval)]
		if !ok {
			return nil, errs.NewStoreError("register_batch_objects",
				errors.New("value resolved during batch upsert was not returned by the store"))
		}
		results[i] = id
	}
	return results, nil
}

// upsertChunk runs one multi-row upsert and records every (cval, id) pair
// it returns into resolved, the caller's local bookkeeping map, as well as
// into the shared cache.
func (e *Engine) upsertChunk(ctx context.Context, chunk [][]byte, resolved map[string]uint64) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	conn, err := e.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	args := make([]any, len(chunk))
	for i, cval := range chunk {
		args[i] = cval
	}

	rows, err := conn.Raw().Query(ctx, buildBatchUpsertSQL(e.cfg, len(chunk)), args...)
	if err != nil {
		return errs.NewStoreError("register_batch_objects", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint64
		var cval []byte
		if err := rows.Scan(&id, &cval); err != nil {
			return errs.NewStoreError("register_batch_objects", err)
		}
		// The store returns its own jsonb rendering (spaces after ':' and
		// ',', its own key order), so it is re-canonicalised to recover the
		// key the caller's value was canonicalised to.
		dec := json.NewDecoder(bytes.NewReader(cval))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return errs.NewStoreError("register_batch_objects", err)
		}
		canonical, err := canon.Canonicalise(v)
		if err != nil {
			return errs.NewStoreError("register_batch_objects", err)
		}
		key := string(canonical)
		resolved[key] = id
		e.cache.Insert(key, id)
	}
	if err := rows.Err(); err != nil {
		return errs.NewStoreError("register_batch_objects", err)
	}
	return nil
}
