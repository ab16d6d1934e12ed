// pkg/dialects/mysql/mysql_test.go
package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmenegatti/rowbind/pkg/dialects"
)

func TestPrepareDSN(t *testing.T) {
	dsn, err := PrepareDSN("user:pass@tcp(localhost:3306)/shop")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tcp(localhost:3306)/shop")

	_, err = PrepareDSN("user:pass@tcp(localhost:3306)shop")
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	factory := dialects.Get(Name)
	require.NotNil(t, factory)
	assert.Equal(t, Name, factory().Name())
}
