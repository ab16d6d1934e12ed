// pkg/rowbind/convert.go
package rowbind

import (
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/chmenegatti/rowbind/pkg/row"
)

// Convert builds a T from r with the default binder. It panics on failure.
func Convert[T any](r row.Row) T {
	var v T
	defaultBinder.ConvertInfallible(r, &v)
	return v
}

// TryConvert builds a T from r with the default binder.
func TryConvert[T any](r row.Row) (T, error) {
	var v T
	err := defaultBinder.ConvertFallible(r, &v)
	return v, err
}

// ScanAll converts every row of rows into a T and closes rows. It stops at
// the first row that fails to convert.
func ScanAll[T any](rows *sql.Rows) ([]T, error) {
	var out []T
	err := row.EachSQL(rows, func(r *row.Buffered) error {
		v, err := TryConvert[T](r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RowTo converts the current pgx row into a T. It is a pgx.RowToFunc:
//
//	users, err := pgx.CollectRows(rows, rowbind.RowTo[User])
func RowTo[T any](r pgx.CollectableRow) (T, error) {
	buffered, err := row.FromPgx(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return TryConvert[T](buffered)
}

var _ pgx.RowToFunc[struct{}] = RowTo[struct{}]
