// pkg/dialects/sqldb/sqldb.go
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/row"
)

// PrepareDSN rewrites a configured DSN before it is handed to sql.Open.
type PrepareDSN func(dsn string) (string, error)

// DataSource is a common.DataSource over database/sql. The mysql, sqlite
// and sqlserver dialects are thin wrappers around it.
type DataSource struct {
	name       string
	driverName string
	prepare    PrepareDSN

	connMu sync.RWMutex
	db     *sql.DB
}

var _ common.DataSource = (*DataSource)(nil)

// New returns an unconnected data source registered as name that opens
// connections with the database/sql driver driverName. prepare may be nil.
func New(name, driverName string, prepare PrepareDSN) *DataSource {
	return &DataSource{name: name, driverName: driverName, prepare: prepare}
}

// NewFromDB returns a data source already connected through db.
func NewFromDB(name string, db *sql.DB) *DataSource {
	return &DataSource{name: name, db: db}
}

// Name implements common.DataSource.
func (s *DataSource) Name() string { return s.name }

// Connect opens the pool, applies the pool settings of cfg and pings it.
func (s *DataSource) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.db != nil {
		return fmt.Errorf("%s: %w", s.name, common.ErrAlreadyConnected)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("%s: database DSN is required", s.name)
	}

	dsn := cfg.DSN
	if s.prepare != nil {
		var err error
		if dsn, err = s.prepare(dsn); err != nil {
			return fmt.Errorf("%s: invalid DSN: %w", s.name, err)
		}
	}

	db, err := sql.Open(s.driverName, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to open connection using driver %q: %w", s.name, s.driverName, err)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%s: failed to ping database: %w", s.name, err)
	}
	s.db = db
	return nil
}

func (s *DataSource) getDB() (*sql.DB, error) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("%s: %w", s.name, common.ErrNotConnected)
	}
	return s.db, nil
}

// DB returns the underlying pool.
func (s *DataSource) DB() (*sql.DB, error) { return s.getDB() }

// Close closes the pool.
func (s *DataSource) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.db == nil {
		return fmt.Errorf("%s: %w", s.name, common.ErrNotConnected)
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("%s: error closing connection: %w", s.name, err)
	}
	return nil
}

// Ping implements common.DataSource.
func (s *DataSource) Ping(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Query implements common.DataSource.
func (s *DataSource) Query(ctx context.Context, query string, args ...any) (common.Cursor, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query failed: %w", s.name, err)
	}
	return &cursor{rows: rows}, nil
}

type cursor struct {
	rows *sql.Rows
	err  error
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	return c.rows.Next()
}

// Row buffers the current row, so it outlives the next call to Next.
func (c *cursor) Row() (row.Row, error) {
	r, err := row.FromSQL(c.rows)
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
	if err := c.rows.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
