// pkg/rowbind/binder.go
package rowbind

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/chmenegatti/rowbind/pkg/plan"
	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// Converter is implemented by types that build themselves from a row. It
// panics on failure, like Row.Get. The binder calls it instead of compiling
// a plan for the type, both at top level and for flattened fields.
type Converter interface {
	FromRow(r row.Row)
}

// TryConverter is the fallible counterpart of Converter.
type TryConverter interface {
	TryFromRow(r row.Row) error
}

var (
	converterType    = reflect.TypeFor[Converter]()
	tryConverterType = reflect.TypeFor[TryConverter]()
)

// Binder converts rows into Go values by executing compiled plans. A type's
// plan is compiled the first time it is converted in a given mode and reused
// afterwards. A Binder is safe for concurrent use.
type Binder struct {
	parser   *schema.Parser
	logger   *slog.Logger
	programs sync.Map // map[programKey]*program
}

// Option configures a Binder or a Catalog.
type Option func(*options)

type options struct {
	parser *schema.Parser
	logger *slog.Logger
}

// WithParser sets the parser used to describe Go types and extract their
// bindings.
func WithParser(p *schema.Parser) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
	}
}

// WithLogger sets the logger. Plans are logged at debug level when compiled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		parser: schema.NewParser(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a Binder.
func New(opts ...Option) *Binder {
	o := buildOptions(opts)
	return &Binder{parser: o.parser, logger: o.logger}
}

var defaultBinder = New()

// Default returns the binder used by the package-level helpers.
func Default() *Binder { return defaultBinder }

type programKey struct {
	t    reflect.Type
	mode plan.Mode
}

// program is a plan bound to a Go type, with the error wrapping chosen once
// for the plan's error kind.
type program struct {
	plan *plan.Plan
	wrap func(a plan.Access, err error) error
}

// Plan returns the plan converting a row into t in the given mode.
func (b *Binder) Plan(t reflect.Type, mode plan.Mode) (*plan.Plan, error) {
	prog, err := b.program(t, mode)
	if err != nil {
		return nil, err
	}
	return prog.plan, nil
}

func (b *Binder) program(t reflect.Type, mode plan.Mode) (*program, error) {
	key := programKey{t: t, mode: mode}
	if cached, ok := b.programs.Load(key); ok {
		return cached.(*program), nil
	}

	rec, err := b.parser.Parse(t)
	if err != nil {
		return nil, fmt.Errorf("rowbind: %w", err)
	}
	p, err := plan.Compile(rec, mode)
	if err != nil {
		return nil, fmt.Errorf("rowbind: %w", err)
	}

	prog := &program{plan: p, wrap: wrapperFor(p)}
	actual, loaded := b.programs.LoadOrStore(key, prog)
	if !loaded {
		b.logger.Debug("compiled binding plan",
			"record", p.Record,
			"mode", p.Mode.String(),
			"errors", p.ErrorKind.String(),
			"fields", len(p.Accesses))
	}
	return actual.(*program), nil
}

func wrapperFor(p *plan.Plan) func(plan.Access, error) error {
	if p.ErrorKind == plan.ErrorOpaque {
		record := p.Record
		return func(a plan.Access, err error) error {
			return &OpaqueError{Record: record, Field: a.Field.Slot.String(), Err: err}
		}
	}
	return func(_ plan.Access, err error) error { return err }
}

// ConvertInfallible fills the value dest points to from r. dest may point to
// a struct, a pointer to a struct (allocated on success) or a Converter. It
// panics with the row's *row.AccessError on the first failing field, and
// with an error when the type cannot be converted.
func (b *Binder) ConvertInfallible(r row.Row, dest any) {
	target, t, err := destination(dest)
	if err != nil {
		panic(err)
	}
	out, err := b.build(r, t, plan.Infallible, nil)
	if err != nil {
		panic(err)
	}
	store(target, out)
}

// ConvertFallible fills the value dest points to from r and returns the
// first failing field's error. Under a plan with a native error kind that is
// the row's *row.AccessError; when the record flattens a field it is an
// *OpaqueError. dest is left untouched on failure.
func (b *Binder) ConvertFallible(r row.Row, dest any) error {
	target, t, err := destination(dest)
	if err != nil {
		return err
	}
	out, err := b.build(r, t, plan.Fallible, nil)
	if err != nil {
		return err
	}
	store(target, out)
	return nil
}

// build converts r into a fresh value of type t. In infallible mode field
// failures panic through Row.Get; the returned error only reports types
// that cannot be converted.
func (b *Binder) build(r row.Row, t reflect.Type, mode plan.Mode, visiting []reflect.Type) (reflect.Value, error) {
	// 1. A type flattened into itself would never finish.
	if slices.Contains(visiting, t) {
		return reflect.Value{}, fmt.Errorf("rowbind: %s: %w", t, ErrRecursiveFlatten)
	}

	// 2. Types with their own conversion bypass the plan entirely.
	out := reflect.New(t)
	if ok, err := convertCustom(r, out, mode); ok {
		if err != nil {
			return reflect.Value{}, err
		}
		return out.Elem(), nil
	}

	// 3. Get (or compile once) the plan for this type and mode.
	prog, err := b.program(t, mode)
	if err != nil {
		return reflect.Value{}, err
	}

	// 4. Run the accesses in declaration order into a fresh value, so a
	// failure halfway never reaches the caller's destination.
	v := out.Elem()
	for _, a := range prog.plan.Accesses {
		switch a.Kind {
		case plan.AccessDefault:
			// The fresh value is already zero.
		case plan.AccessColumn:
			dest := v.FieldByIndex(a.Field.Index).Addr().Interface()
			// Get panics with the row's own error; nothing to wrap.
			if mode == plan.Infallible {
				r.Get(a.Key, dest)
				continue
			}
			if err := r.TryGet(a.Key, dest); err != nil {
				return reflect.Value{}, prog.wrap(a, err) // first failure wins
			}
		case plan.AccessNested:
			// The nested record reads the same row; pointer fields are
			// allocated by store.
			fv := v.FieldByIndex(a.Field.Index)
			nt := fv.Type()
			if nt.Kind() == reflect.Pointer {
				nt = nt.Elem()
			}
			nested, err := b.build(r, nt, mode, append(visiting, t))
			if err != nil {
				return reflect.Value{}, prog.wrap(a, err)
			}
			store(fv, nested)
		}
	}
	return v, nil
}

// convertCustom runs the type's own conversion when it has one. ptr is a
// pointer to a fresh value. Fallible conversions prefer TryConverter and
// recover the panic of a plain Converter; infallible ones prefer Converter
// and panic with TryConverter's error.
func convertCustom(r row.Row, ptr reflect.Value, mode plan.Mode) (ok bool, err error) {
	t := ptr.Type()
	canTry, canConvert := t.Implements(tryConverterType), t.Implements(converterType)

	switch {
	case mode == plan.Fallible && canTry:
		return true, ptr.Interface().(TryConverter).TryFromRow(r)
	case mode == plan.Fallible && canConvert:
		defer func() {
			if v := recover(); v != nil {
				err = recovered(v)
			}
		}()
		ptr.Interface().(Converter).FromRow(r)
		return true, nil
	case canConvert:
		ptr.Interface().(Converter).FromRow(r)
		return true, nil
	case canTry:
		if err := ptr.Interface().(TryConverter).TryFromRow(r); err != nil {
			panic(err)
		}
		return true, nil
	}
	return false, nil
}

// destination checks dest and returns the value to store into and the type
// to build. A pointer to a pointer builds the pointed-to type.
func destination(dest any) (reflect.Value, reflect.Type, error) {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("rowbind: %w, got %T", ErrInvalidDestination, dest)
	}
	target := dv.Elem()
	t := target.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return target, t, nil
}

// store sets target to v, allocating when target is a pointer.
func store(target, v reflect.Value) {
	if target.Kind() == reflect.Pointer && v.Kind() != reflect.Pointer {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		target.Set(p)
		return
	}
	target.Set(v)
}
