// pkg/dialects/common/interfaces.go
package common

import (
	"context"
	"errors"
	"io"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/row"
)

var (
	// ErrNotConnected is returned by data sources used before Connect or
	// after Close.
	ErrNotConnected = errors.New("data source is not connected")
	// ErrAlreadyConnected is returned by a second call to Connect.
	ErrAlreadyConnected = errors.New("data source is already connected")
)

// DataSource is a database back end rows are read from.
type DataSource interface {
	io.Closer

	// Name returns the dialect name the data source is registered under.
	Name() string

	// Connect opens the connection (or pool) described by cfg and checks it.
	Connect(ctx context.Context, cfg config.DatabaseConfig) error

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Query runs a query and returns a cursor over its rows. The query
	// language is the back end's own.
	Query(ctx context.Context, query string, args ...any) (Cursor, error)
}

// Cursor iterates over the rows of a query.
//
//	for cur.Next(ctx) {
//		r, err := cur.Row()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	io.Closer

	// Next advances to the next row. It returns false when the rows are
	// exhausted, on error, or when ctx is done.
	Next(ctx context.Context) bool

	// Row returns the current row. It stays valid after Next is called again.
	Row() (row.Row, error)

	// Err returns the error that stopped the iteration, if any.
	Err() error
}
