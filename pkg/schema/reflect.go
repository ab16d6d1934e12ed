// pkg/schema/reflect.go
package schema

import (
	"errors"
	"fmt"
	"reflect"
)

var positionalType = reflect.TypeFor[Positional]()

// Describe builds the descriptor of a Go type. Pointers are dereferenced.
// Only exported fields are described, and positional structs may not have
// unexported ones; a field's annotations come from the
// parser's struct tag key and its name from the naming strategy. Structs
// embedding Positional get unnamed fields.
func (p *Parser) Describe(t reflect.Type) (Descriptor, error) {
	if t == nil {
		return Descriptor{}, errors.New("schema: cannot describe nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	desc := Descriptor{Name: typeName(t), Kind: kindOf(t), GoType: t}
	if desc.Kind != KindStruct {
		return desc, nil
	}

	positional := false
	for i := range t.NumField() {
		if sf := t.Field(i); sf.Anonymous && sf.Type == positionalType {
			positional = true
			break
		}
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == positionalType {
			continue
		}
		if !sf.IsExported() {
			// A hidden field would still take a column position.
			if positional {
				return Descriptor{}, fmt.Errorf("schema: field %s.%s: %w", desc.Name, sf.Name, ErrUnexportedPositional)
			}
			continue
		}

		fd := FieldDescriptor{
			Type:     typeName(sf.Type),
			GoType:   sf.Type,
			Index:    sf.Index,
			Embedded: sf.Anonymous && isStructLike(sf.Type),
		}
		if tag, ok := sf.Tag.Lookup(p.tagKey); ok {
			fd.Annotations = []string{tag}
		}
		if !positional {
			fd.Name = p.naming.ColumnName(sf.Name)
		}
		desc.Fields = append(desc.Fields, fd)
	}
	return desc, nil
}

// Parse describes t and extracts its bindings, caching the result per type.
func (p *Parser) Parse(t reflect.Type) (Record, error) {
	if t == nil {
		return Record{}, errors.New("schema: cannot parse nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := p.cache.Load(t); ok {
		return cached.(Record), nil
	}

	desc, err := p.Describe(t)
	if err != nil {
		return Record{}, err
	}
	rec, err := p.Extract(desc)
	if err != nil {
		return Record{}, err
	}
	p.cache.Store(t, rec)
	return rec, nil
}

// Parse uses the default parser.
func Parse(t reflect.Type) (Record, error) {
	return globalParser.Parse(t)
}

func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.Struct:
		return KindStruct
	case reflect.Interface:
		return KindUnion
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.PkgPath() != "" {
			return KindEnum
		}
	}
	return KindOther
}

func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
