// pkg/row/sql.go
package row

import (
	"database/sql"
	"errors"
	"fmt"
)

// FromSQL buffers the current row of rows. rows.Next must have returned
// true. Every column is read, so callers do not need to know the result
// set's shape beforehand.
func FromSQL(rows *sql.Rows) (*Buffered, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("row: reading column names: %w", err)
	}
	if len(columns) == 0 {
		return nil, errors.New("row: query returned no columns")
	}

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	if err := rows.Scan(scanArgs...); err != nil {
		return nil, fmt.Errorf("row: scanning values: %w", err)
	}
	return New(columns, values), nil
}

// EachSQL calls fn with every row of rows, in order, and closes rows when
// done. Iteration stops at the first error returned by fn.
func EachSQL(rows *sql.Rows, fn func(r *Buffered) error) (err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("row: closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		r, err := FromSQL(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row: iterating rows: %w", err)
	}
	return nil
}
