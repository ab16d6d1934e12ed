// pkg/plan/compile.go
package plan

import (
	"fmt"

	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// Compile builds the plan converting a row into rec in the given mode.
// Compilation has no side effects: the same record and mode always give
// structurally identical plans.
func Compile(rec schema.Record, mode Mode) (*Plan, error) {
	if mode != Infallible && mode != Fallible {
		return nil, fmt.Errorf("plan: record %s: unknown mode %d", rec.Name, int(mode))
	}
	// 1. Only structs bind; enums and unions have no field set to read.
	if rec.Kind != schema.KindStruct {
		return nil, fmt.Errorf("plan: record %s is %s: %w", rec.Name, rec.Kind, ErrUnsupportedRecordKind)
	}
	layout, err := checkLayout(rec)
	if err != nil {
		return nil, err
	}

	// 2. The error kind is decided once for the whole record.
	p := &Plan{
		Record:    rec.Name,
		Layout:    layout,
		Mode:      mode,
		ErrorKind: unifyErrors(rec.Bindings, mode),
		Accesses:  make([]Access, 0, len(rec.Bindings)),
	}

	onFailure := FailPanic
	if mode == Fallible {
		onFailure = FailReturn
	}

	// 3. One access per binding, in declaration order.
	for _, b := range rec.Bindings {
		a := Access{Field: b}
		switch b.Attr.Kind {
		case schema.AttrNone:
			a.Kind = AccessColumn
			a.Key = slotKey(b.Slot)
			a.Failure = onFailure
		case schema.AttrRename:
			// Hand-built records skip the parser's checks.
			if b.Slot.IsPositional() {
				return nil, fmt.Errorf("plan: field %s.%s: %w", rec.Name, b.Slot, schema.ErrRenamePositional)
			}
			if b.Attr.Key == "" {
				return nil, fmt.Errorf("plan: field %s.%s: %w: empty rename key", rec.Name, b.Slot, schema.ErrMalformedAttribute)
			}
			a.Kind = AccessColumn
			a.Key = row.Name(b.Attr.Key)
			a.Failure = onFailure
		case schema.AttrSkip:
			a.Kind = AccessDefault
			a.Failure = FailNever
		case schema.AttrFlatten:
			a.Kind = AccessNested
			a.Nested = b.TypeName
			a.Failure = onFailure
		default:
			return nil, fmt.Errorf("plan: field %s.%s: unknown attribute %d", rec.Name, b.Slot, int(b.Attr.Kind))
		}
		p.Accesses = append(p.Accesses, a)
	}
	return p, nil
}

// CompileAll compiles rec in both modes, infallible first.
func CompileAll(rec schema.Record) ([]*Plan, error) {
	plans := make([]*Plan, 0, 2)
	for _, mode := range []Mode{Infallible, Fallible} {
		p, err := Compile(rec, mode)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// unifyErrors picks the error kind for the whole record: a single flattened
// field makes every fallible access report an opaque error.
func unifyErrors(bindings []schema.FieldBinding, mode Mode) ErrorKind {
	if mode == Infallible {
		return ErrorNone
	}
	for _, b := range bindings {
		if b.Attr.Kind == schema.AttrFlatten {
			return ErrorOpaque
		}
	}
	return ErrorNative
}

// checkLayout returns the layout the bindings agree on. A record without
// bindings is a unit record whatever its declared layout.
func checkLayout(rec schema.Record) (schema.Layout, error) {
	if len(rec.Bindings) == 0 {
		return schema.LayoutUnit, nil
	}
	want := rec.Layout
	for _, b := range rec.Bindings {
		got := schema.LayoutNamed
		if b.Slot.IsPositional() {
			got = schema.LayoutPositional
		}
		if want == schema.LayoutUnit {
			want = got
		}
		if got != want {
			return schema.LayoutUnit, fmt.Errorf("plan: record %s: %w", rec.Name, schema.ErrMixedLayout)
		}
	}
	return want, nil
}

func slotKey(s schema.FieldSlot) row.Key {
	if s.IsPositional() {
		return row.Index(s.Position)
	}
	return row.Name(s.Name)
}
