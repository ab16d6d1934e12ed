// pkg/dialects/mysql/mysql.go
package mysql

import (
	"github.com/go-sql-driver/mysql"

	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/dialects/sqldb"
)

// Name is the dialect name.
const Name = "mysql"

// PrepareDSN validates a MySQL DSN and turns parseTime on, so DATETIME and
// TIMESTAMP columns arrive as time.Time.
func PrepareDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// New returns an unconnected MySQL/MariaDB data source.
func New() common.DataSource {
	return sqldb.New(Name, "mysql", PrepareDSN)
}

func init() {
	dialects.Register(Name, New)
}
