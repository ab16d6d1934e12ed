// pkg/plan/plan.go
package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// ErrUnsupportedRecordKind is returned when compiling a record that is not a
// struct (enums, unions and other kinds cannot be built from a row).
var ErrUnsupportedRecordKind = errors.New("unsupported record kind")

// Mode selects how a conversion reports failures.
type Mode int

const (
	// Infallible conversions panic on the first failing field.
	Infallible Mode = iota
	// Fallible conversions return the first failing field's error.
	Fallible
)

func (m Mode) String() string {
	switch m {
	case Infallible:
		return "infallible"
	case Fallible:
		return "fallible"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "infallible" or "fallible", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infallible":
		return Infallible, nil
	case "fallible":
		return Fallible, nil
	}
	return 0, fmt.Errorf("plan: unknown mode %q", s)
}

// ErrorKind is the error type a fallible conversion produces. It is chosen
// once for the whole record.
type ErrorKind int

const (
	// ErrorNone: the plan is infallible and returns no error.
	ErrorNone ErrorKind = iota
	// ErrorNative: errors are the row source's own *row.AccessError.
	ErrorNative
	// ErrorOpaque: errors are boxed, because a flattened field's nested
	// conversion may fail with any error.
	ErrorOpaque
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNative:
		return "native"
	case ErrorOpaque:
		return "opaque"
	default:
		return "none"
	}
}

// AccessKind is how a field obtains its value.
type AccessKind int

const (
	// AccessColumn reads one column of the row.
	AccessColumn AccessKind = iota
	// AccessDefault sets the zero value without touching the row.
	AccessDefault
	// AccessNested converts the whole row into the field's own type.
	AccessNested
)

func (k AccessKind) String() string {
	switch k {
	case AccessColumn:
		return "column"
	case AccessDefault:
		return "default"
	case AccessNested:
		return "nested"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// Failure is what an access does when it cannot produce a value.
type Failure int

const (
	FailNever Failure = iota
	FailPanic
	FailReturn
)

func (f Failure) String() string {
	switch f {
	case FailPanic:
		return "panic"
	case FailReturn:
		return "return"
	default:
		return "never"
	}
}

// Access describes how one field is populated.
type Access struct {
	Field   schema.FieldBinding
	Kind    AccessKind
	Key     row.Key // AccessColumn only
	Nested  string  // AccessNested only: the field's type name
	Failure Failure
}

// Plan is a compiled conversion of a row into one record type in one mode.
// Plans are immutable and may be shared between goroutines.
type Plan struct {
	Record    string
	Layout    schema.Layout
	Mode      Mode
	ErrorKind ErrorKind
	Accesses  []Access
}

// Keys returns the column keys the plan reads, in access order.
func (p *Plan) Keys() []row.Key {
	var keys []row.Key
	for _, a := range p.Accesses {
		if a.Kind == AccessColumn {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// Nested returns the type names of the flattened fields, in access order.
func (p *Plan) Nested() []string {
	var names []string
	for _, a := range p.Accesses {
		if a.Kind == AccessNested {
			names = append(names, a.Nested)
		}
	}
	return names
}
