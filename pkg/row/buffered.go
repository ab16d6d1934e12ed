// pkg/row/buffered.go
package row

import (
	"fmt"
	"sort"
)

// Buffered is a row whose column values are held in memory. It is what the
// database/sql and pgx adapters produce, and what tests build by hand.
type Buffered struct {
	columns []string
	values  []any
	byName  map[string]int
}

var _ Row = (*Buffered)(nil)

// New returns a row with the given column names and values. When a name
// repeats, lookups by name resolve to its first occurrence.
// It panics if the two slices differ in length.
func New(columns []string, values []any) *Buffered {
	if len(columns) != len(values) {
		panic(fmt.Sprintf("row: %d columns but %d values", len(columns), len(values)))
	}
	b := &Buffered{
		columns: columns,
		values:  values,
		byName:  make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if _, dup := b.byName[name]; !dup {
			b.byName[name] = i
		}
	}
	return b
}

// FromMap returns a row holding the entries of m, ordered by column name.
func FromMap(m map[string]any) *Buffered {
	columns := make([]string, 0, len(m))
	for name := range m {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	values := make([]any, len(columns))
	for i, name := range columns {
		values[i] = m[name]
	}
	return New(columns, values)
}

// Columns returns the column names in row order.
func (b *Buffered) Columns() []string { return b.columns }

// Values returns the column values in row order.
func (b *Buffered) Values() []any { return b.values }

// Len returns the number of columns.
func (b *Buffered) Len() int { return len(b.values) }

func (b *Buffered) lookup(key Key) (int, bool) {
	if key.IsPositional() {
		i := key.Position()
		return i, i >= 0 && i < len(b.values)
	}
	i, ok := b.byName[key.Name()]
	return i, ok
}

// TryGet implements Row.
func (b *Buffered) TryGet(key Key, dest any) error {
	i, ok := b.lookup(key)
	if !ok {
		return notFound(key)
	}
	if err := Assign(dest, b.values[i]); err != nil {
		return mismatch(key, err)
	}
	return nil
}

// Get implements Row.
func (b *Buffered) Get(key Key, dest any) {
	if err := b.TryGet(key, dest); err != nil {
		panic(err)
	}
}
