// pkg/row/pgx.go
package row

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FromPgx buffers the current row of a pgx result. pgx.Rows satisfies
// pgx.CollectableRow, so this works both with manual iteration and inside
// pgx.CollectRows.
func FromPgx(r pgx.CollectableRow) (*Buffered, error) {
	fields := r.FieldDescriptions()
	values, err := r.Values()
	if err != nil {
		return nil, fmt.Errorf("row: reading pgx values: %w", err)
	}
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	if len(columns) != len(values) {
		return nil, fmt.Errorf("row: pgx returned %d fields but %d values", len(columns), len(values))
	}
	return New(columns, values), nil
}
