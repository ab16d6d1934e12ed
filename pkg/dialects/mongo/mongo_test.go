// pkg/dialects/mongo/mongo_test.go
package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
)

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(`{"collection": "users", "filter": {"age": {"$gt": 30}}, "sort": {"name": 1}, "limit": 5}`)
	require.NoError(t, err)
	assert.Equal(t, "users", q.Collection)
	assert.Equal(t, int64(5), q.Limit)
	require.Len(t, q.Filter, 1)
	assert.Equal(t, "age", q.Filter[0].Key)
	require.Len(t, q.Sort, 1)
	assert.Equal(t, "name", q.Sort[0].Key)

	q, err = ParseQuery(`{"collection": "users"}`)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, q.Filter)

	_, err = ParseQuery(`{"filter": {}}`)
	assert.ErrorContains(t, err, "no collection")

	_, err = ParseQuery(`not json`)
	assert.Error(t, err)
}

func TestDatabaseName(t *testing.T) {
	name, err := DatabaseName(config.DatabaseConfig{DSN: "mongodb://localhost:27017/shop"})
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	name, err = DatabaseName(config.DatabaseConfig{DSN: "mongodb://localhost:27017/shop", Database: "other"})
	require.NoError(t, err)
	assert.Equal(t, "other", name)

	_, err = DatabaseName(config.DatabaseConfig{DSN: "mongodb://localhost:27017"})
	assert.Error(t, err)
}

func TestNotConnected(t *testing.T) {
	ds := New()
	assert.Equal(t, Name, ds.Name())

	_, err := ds.Query(context.Background(), `{"collection": "users"}`)
	assert.ErrorIs(t, err, common.ErrNotConnected)

	_, err = ds.Query(context.Background(), `{"collection": "users"}`, 1)
	assert.ErrorContains(t, err, "arguments")

	assert.ErrorIs(t, ds.Close(), common.ErrNotConnected)
}
