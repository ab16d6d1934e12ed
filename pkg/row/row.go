// pkg/row/row.go
package row

import (
	"strconv"
)

// Row is the column access capability a record conversion needs from its
// environment. Implementations are provided for in-memory values,
// database/sql, pgx and BSON documents.
type Row interface {
	// Get assigns the column addressed by key into dest (a non-nil pointer).
	// It panics with an *AccessError when the column is missing or its value
	// cannot be assigned to dest.
	Get(key Key, dest any)

	// TryGet is like Get but reports failures as an *AccessError.
	TryGet(key Key, dest any) error
}

// Key addresses a column either by name or by position.
type Key struct {
	name       string
	index      int
	positional bool
}

// Name returns a key addressing the column called name.
func Name(name string) Key {
	return Key{name: name}
}

// Index returns a key addressing the column at position i (zero based).
func Index(i int) Key {
	return Key{index: i, positional: true}
}

// Name returns the column name; empty for positional keys.
func (k Key) Name() string { return k.name }

// Position returns the column position; zero for named keys.
func (k Key) Position() int { return k.index }

// IsPositional reports whether the key addresses a column by position.
func (k Key) IsPositional() bool { return k.positional }

// String renders named keys quoted ("id") and positional keys as #0.
func (k Key) String() string {
	if k.positional {
		return "#" + strconv.Itoa(k.index)
	}
	return strconv.Quote(k.name)
}
