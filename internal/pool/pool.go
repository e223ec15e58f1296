// Package pool wraps pgxpool.Pool as the registry's connection pool
// adapter (C3): open up to pool_size connections, lease one to a caller,
// release on scope exit. pgxpool's Acquire/Release pair is the
// scoped-acquisition primitive this registry needs directly, which is
// why it is built on pgx rather than database/sql plus a generic driver.
package pool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"jsonregistry/internal/config"
	"jsonregistry/internal/errs"
)

// Pool leases pooled connections to a Postgres store. Construct with
// Open, which connects and pings the store eagerly, failing construction
// immediately on error rather than deferring the failure to first use.
type Pool struct {
	pgx *pgxpool.Pool
}

// Open dials the store described by cfg and pings it before returning. A
// dial or ping failure here is an InitError: there is no Connecting state
// at the engine level, only Ready or failed-before-Ready.
func Open(ctx context.Context, cfg config.Configuration) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errs.NewInitError("parse connection string", err)
	}
	poolCfg.MaxConns = int32(cfg.PoolSize)

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.NewInitError("open connection pool", err)
	}

	if err := pgxPool.Ping(ctx); err != nil {
		pgxPool.Close()
		return nil, errs.NewInitError("ping database", err)
	}

	return &Pool{pgx: pgxPool}, nil
}

// Conn is a leased connection. Callers must call Release on every exit
// path, including failure; the typical shape is:
//
//	conn, err := p.Lease(ctx)
//	if err != nil { return err }
//	defer conn.Release()
type Conn struct {
	inner *pgxpool.Conn
}

// Lease acquires one connection from the pool, blocking (cooperatively,
// respecting ctx) until one is available or ctx is done.
func (p *Pool) Lease(ctx context.Context) (*Conn, error) {
	c, err := p.pgx.Acquire(ctx)
	if err != nil {
		return nil, errs.NewStoreError("acquire connection", err)
	}
	return &Conn{inner: c}, nil
}

// Release returns the connection to the pool. Safe to call exactly once
// per successful Lease; pgxpool resets any in-flight transaction state so
// the next leaseholder never observes sticky state from this one.
func (c *Conn) Release() {
	c.inner.Release()
}

// Raw exposes the underlying pgx connection for statement execution. It
// is a thin accessor, not a leak of pool internals: the registry engine
// is the only caller, and it never retains the value past the Conn's
// lease.
func (c *Conn) Raw() *pgxpool.Conn {
	return c.inner
}

// Close shuts the pool down. Idempotent: calling Close on an already
// closed (or never-fully-opened) pool is safe.
func (p *Pool) Close() {
	if p == nil || p.pgx == nil {
		return
	}
	p.pgx.Close()
}

// Stat reports basic pool occupancy, useful for diagnostics logging.
func (p *Pool) Stat() string {
	s := p.pgx.Stat()
	return fmt.Sprintf("total=%d idle=%d acquired=%d", s.TotalConns(), s.IdleConns(), s.AcquiredConns())
}
