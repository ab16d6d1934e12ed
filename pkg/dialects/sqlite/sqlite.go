// pkg/dialects/sqlite/sqlite.go
package sqlite

import (
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/dialects/sqldb"
)

// Name is the dialect name. "sqlite" is accepted as an alias.
const Name = "sqlite3"

// New returns an unconnected SQLite data source. The DSN is a file name or
// a file: URI; ":memory:" opens a private in-memory database.
func New() common.DataSource {
	return sqldb.New(Name, "sqlite3", nil)
}

func init() {
	dialects.Register(Name, New)
	dialects.Register("sqlite", New)
}
