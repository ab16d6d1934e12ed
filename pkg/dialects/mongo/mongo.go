// pkg/dialects/mongo/mongo.go
package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/row"
)

// Name is the dialect name.
const Name = "mongodb"

// Query is what a query string decodes to. Queries are written in MongoDB
// extended JSON:
//
//	{"collection": "users", "filter": {"age": {"$gt": 30}}, "sort": {"name": 1}, "limit": 10}
type Query struct {
	Collection string `bson:"collection"`
	Filter     bson.D `bson:"filter"`
	Sort       bson.D `bson:"sort"`
	Limit      int64  `bson:"limit"`
}

// ParseQuery decodes an extended JSON query.
func ParseQuery(q string) (Query, error) {
	var parsed Query
	if err := bson.UnmarshalExtJSON([]byte(q), false, &parsed); err != nil {
		return Query{}, fmt.Errorf("mongodb: invalid query: %w", err)
	}
	if parsed.Collection == "" {
		return Query{}, errors.New("mongodb: query has no collection")
	}
	if parsed.Filter == nil {
		parsed.Filter = bson.D{}
	}
	return parsed, nil
}

// DataSource reads documents from MongoDB; every document is a row whose
// columns are its top-level fields.
type DataSource struct {
	connMu   sync.RWMutex
	client   *mongo.Client
	database *mongo.Database
}

var _ common.DataSource = (*DataSource)(nil)

// New returns an unconnected MongoDB data source.
func New() common.DataSource { return &DataSource{} }

func init() {
	dialects.Register(Name, New)
}

// Name implements common.DataSource.
func (s *DataSource) Name() string { return Name }

// DatabaseName returns cfg.Database, or the database named in the URI.
func DatabaseName(cfg config.DatabaseConfig) (string, error) {
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	cs, err := connstring.ParseAndValidate(cfg.DSN)
	if err != nil {
		return "", err
	}
	if cs.Database == "" {
		return "", errors.New("no database in configuration or URI")
	}
	return cs.Database, nil
}

// Connect connects the client and pings the primary.
func (s *DataSource) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.client != nil {
		return fmt.Errorf("mongodb: %w", common.ErrAlreadyConnected)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("mongodb: database DSN is required")
	}
	dbName, err := DatabaseName(cfg)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}

	opts := options.Client().ApplyURI(cfg.DSN)
	if cfg.Pool.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Pool.MaxOpenConns))
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongodb: failed to connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongodb: failed to ping: %w", err)
	}
	s.client = client
	s.database = client.Database(dbName)
	return nil
}

func (s *DataSource) getDatabase() (*mongo.Database, error) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	if s.client == nil {
		return nil, fmt.Errorf("mongodb: %w", common.ErrNotConnected)
	}
	return s.database, nil
}

// Close disconnects the client.
func (s *DataSource) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.client == nil {
		return fmt.Errorf("mongodb: %w", common.ErrNotConnected)
	}
	err := s.client.Disconnect(context.Background())
	s.client, s.database = nil, nil
	if err != nil {
		return fmt.Errorf("mongodb: error disconnecting: %w", err)
	}
	return nil
}

// Ping implements common.DataSource.
func (s *DataSource) Ping(ctx context.Context) error {
	db, err := s.getDatabase()
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, nil)
}

// Query runs a find described by the extended JSON query. Positional
// arguments are not supported.
func (s *DataSource) Query(ctx context.Context, query string, args ...any) (common.Cursor, error) {
	if len(args) > 0 {
		return nil, errors.New("mongodb: query arguments are not supported")
	}
	db, err := s.getDatabase()
	if err != nil {
		return nil, err
	}
	q, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if q.Limit > 0 {
		findOpts.SetLimit(q.Limit)
	}
	if len(q.Sort) > 0 {
		findOpts.SetSort(q.Sort)
	}
	cur, err := db.Collection(q.Collection).Find(ctx, q.Filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: find on %s failed: %w", q.Collection, err)
	}
	return &cursor{cur: cur}, nil
}

type cursor struct {
	cur *mongo.Cursor
}

func (c *cursor) Next(ctx context.Context) bool { return c.cur.Next(ctx) }

// Row copies the current document; the driver reuses its buffer.
func (c *cursor) Row() (row.Row, error) {
	return row.NewDocument(bson.Raw(bytes.Clone(c.cur.Current))), nil
}

func (c *cursor) Err() error { return c.cur.Err() }

func (c *cursor) Close() error { return c.cur.Close(context.Background()) }
