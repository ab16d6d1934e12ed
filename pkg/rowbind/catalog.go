// pkg/rowbind/catalog.go
package rowbind

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chmenegatti/rowbind/pkg/plan"
	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// Column values are read into the Go type named by the field's type.
// Unknown type names read the driver's value as is.
var valueTypes = map[string]reflect.Type{
	"bool":      reflect.TypeFor[bool](),
	"string":    reflect.TypeFor[string](),
	"int":       reflect.TypeFor[int](),
	"int8":      reflect.TypeFor[int8](),
	"int16":     reflect.TypeFor[int16](),
	"int32":     reflect.TypeFor[int32](),
	"int64":     reflect.TypeFor[int64](),
	"uint":      reflect.TypeFor[uint](),
	"uint8":     reflect.TypeFor[uint8](),
	"uint16":    reflect.TypeFor[uint16](),
	"uint32":    reflect.TypeFor[uint32](),
	"uint64":    reflect.TypeFor[uint64](),
	"float32":   reflect.TypeFor[float32](),
	"float64":   reflect.TypeFor[float64](),
	"[]byte":    reflect.TypeFor[[]byte](),
	"time.Time": reflect.TypeFor[time.Time](),
}

var anyType = reflect.TypeFor[any]()

// valueType resolves a field type name. A leading * makes the field
// nullable.
func valueType(name string) reflect.Type {
	if base, ok := strings.CutPrefix(name, "*"); ok {
		return reflect.PointerTo(valueType(base))
	}
	if t, ok := valueTypes[name]; ok {
		return t
	}
	return anyType
}

// Catalog converts rows into records known only by their descriptors, such
// as those loaded from YAML. Named records become map[string]any keyed by
// field name, positional records []any; flattened fields hold the nested
// record's value.
type Catalog struct {
	records map[string]schema.Record
	logger  *slog.Logger
	plans   sync.Map // map[catalogKey]*plan.Plan
}

type catalogKey struct {
	name string
	mode plan.Mode
}

// NewCatalog extracts the bindings of descs. Record names must be unique.
func NewCatalog(descs []schema.Descriptor, opts ...Option) (*Catalog, error) {
	o := buildOptions(opts)
	c := &Catalog{records: make(map[string]schema.Record, len(descs)), logger: o.logger}
	for _, d := range descs {
		if _, dup := c.records[d.Name]; dup {
			return nil, fmt.Errorf("rowbind: record %s declared twice", d.Name)
		}
		rec, err := o.parser.Extract(d)
		if err != nil {
			return nil, fmt.Errorf("rowbind: %w", err)
		}
		c.records[d.Name] = rec
	}
	return c, nil
}

// Names returns the record names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.records))
	for name := range c.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record returns the extracted record called name.
func (c *Catalog) Record(name string) (schema.Record, error) {
	rec, ok := c.records[name]
	if !ok {
		return schema.Record{}, fmt.Errorf("rowbind: %w: %s", ErrUnknownRecord, name)
	}
	return rec, nil
}

// Plan returns the plan of the record called name in the given mode.
func (c *Catalog) Plan(name string, mode plan.Mode) (*plan.Plan, error) {
	key := catalogKey{name: name, mode: mode}
	if cached, ok := c.plans.Load(key); ok {
		return cached.(*plan.Plan), nil
	}
	rec, err := c.Record(name)
	if err != nil {
		return nil, err
	}
	p, err := plan.Compile(rec, mode)
	if err != nil {
		return nil, fmt.Errorf("rowbind: %w", err)
	}
	c.plans.Store(key, p)
	c.logger.Debug("compiled binding plan", "record", name, "mode", mode.String(), "errors", p.ErrorKind.String())
	return p, nil
}

// ConvertInfallible converts r into the record called name. It panics on
// the first failing field.
func (c *Catalog) ConvertInfallible(r row.Row, name string) any {
	v, err := c.build(r, name, plan.Infallible, nil)
	if err != nil {
		panic(err)
	}
	return v
}

// ConvertFallible converts r into the record called name, returning the
// first failing field's error with the same error kinds as Binder.
func (c *Catalog) ConvertFallible(r row.Row, name string) (any, error) {
	return c.build(r, name, plan.Fallible, nil)
}

func (c *Catalog) build(r row.Row, name string, mode plan.Mode, visiting []string) (any, error) {
	if slices.Contains(visiting, name) {
		return nil, fmt.Errorf("rowbind: %s: %w", name, ErrRecursiveFlatten)
	}
	p, err := c.Plan(name, mode)
	if err != nil {
		return nil, err
	}
	wrap := wrapperFor(p)

	values := make([]any, len(p.Accesses))
	for i, a := range p.Accesses {
		switch a.Kind {
		case plan.AccessDefault:
			values[i] = reflect.Zero(valueType(a.Field.TypeName)).Interface()
		case plan.AccessColumn:
			dest := reflect.New(valueType(a.Field.TypeName))
			if mode == plan.Infallible {
				r.Get(a.Key, dest.Interface())
			} else if err := r.TryGet(a.Key, dest.Interface()); err != nil {
				return nil, wrap(a, err)
			}
			values[i] = dest.Elem().Interface()
		case plan.AccessNested:
			nested, err := c.build(r, a.Nested, mode, append(visiting, name))
			if err != nil {
				return nil, wrap(a, err)
			}
			values[i] = nested
		}
	}

	if p.Layout == schema.LayoutPositional {
		return values, nil
	}
	out := make(map[string]any, len(values))
	for i, a := range p.Accesses {
		out[a.Field.Slot.Name] = values[i]
	}
	return out, nil
}
