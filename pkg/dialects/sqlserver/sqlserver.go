// pkg/dialects/sqlserver/sqlserver.go
package sqlserver

import (
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
	"github.com/chmenegatti/rowbind/pkg/dialects/sqldb"
)

// Name is the dialect name.
const Name = "sqlserver"

// New returns an unconnected SQL Server data source. The DSN is a
// sqlserver:// URL or an ADO connection string.
func New() common.DataSource {
	return sqldb.New(Name, "sqlserver", nil)
}

func init() {
	dialects.Register(Name, New)
}
