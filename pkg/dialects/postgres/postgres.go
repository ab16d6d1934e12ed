// pkg/dialects/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/row"
)

// Name is the dialect name.
const Name = "postgres"

// DataSource reads rows from PostgreSQL through a native pgx pool, so
// values keep pgx's own Go types.
type DataSource struct {
	connMu sync.RWMutex
	pool   *pgxpool.Pool
}

var _ common.DataSource = (*DataSource)(nil)

// New returns an unconnected PostgreSQL data source.
func New() common.DataSource { return &DataSource{} }

func init() {
	dialects.Register(Name, New)
}

// Name implements common.DataSource.
func (s *DataSource) Name() string { return Name }

// PoolConfig parses dsn and applies the pool settings of cfg.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(min(cfg.Pool.MaxOpenConns, math.MaxInt32))
	}
	if cfg.Pool.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(min(cfg.Pool.MaxIdleConns, int(poolCfg.MaxConns)))
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Pool.ConnMaxLifetime
	}
	return poolCfg, nil
}

// Connect creates the pool and pings the server.
func (s *DataSource) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.pool != nil {
		return fmt.Errorf("postgres: %w", common.ErrAlreadyConnected)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("postgres: database DSN is required")
	}
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	s.pool = pool
	return nil
}

func (s *DataSource) getPool() (*pgxpool.Pool, error) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	if s.pool == nil {
		return nil, fmt.Errorf("postgres: %w", common.ErrNotConnected)
	}
	return s.pool, nil
}

// Close closes the pool.
func (s *DataSource) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.pool == nil {
		return fmt.Errorf("postgres: %w", common.ErrNotConnected)
	}
	s.pool.Close()
	s.pool = nil
	return nil
}

// Ping implements common.DataSource.
func (s *DataSource) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Query implements common.DataSource.
func (s *DataSource) Query(ctx context.Context, query string, args ...any) (common.Cursor, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query failed: %w", err)
	}
	return NewCursor(rows), nil
}

// NewCursor adapts pgx rows to a common.Cursor.
func NewCursor(rows pgx.Rows) common.Cursor {
	return &cursor{rows: rows}
}

type cursor struct {
	rows pgx.Rows
	err  error
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		c.rows.Close()
		return false
	}
	return c.rows.Next()
}

func (c *cursor) Row() (row.Row, error) {
	r, err := row.FromPgx(c.rows)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}
