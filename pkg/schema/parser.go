// pkg/schema/parser.go
package schema

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/chmenegatti/rowbind/pkg/config"
)

var (
	// ErrMixedLayout is returned for records mixing named and positional fields.
	ErrMixedLayout = errors.New("record mixes named and positional fields")
	// ErrMalformedAttribute is returned in strict mode for a rename annotation
	// that is not followed by = and a non-empty string literal.
	ErrMalformedAttribute = errors.New("malformed attribute")
	// ErrRenamePositional is returned for a rename on a positional field.
	ErrRenamePositional = errors.New("rename requires a named field")
	// ErrUnexportedPositional is returned by Describe for a positional
	// struct with an unexported field, which would shift every later index.
	ErrUnexportedPositional = errors.New("positional record has an unexported field")
)

// DefaultTagKey is the struct tag read by Describe.
const DefaultTagKey = "row"

// Parser turns record descriptors into field bindings.
// Reflection results are cached per type; it is safe for concurrent use.
type Parser struct {
	cache  sync.Map // map[reflect.Type]Record
	naming NamingStrategy
	tagKey string
	strict bool
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithNaming sets the strategy Describe uses to name fields.
func WithNaming(ns NamingStrategy) Option {
	return func(p *Parser) {
		if ns != nil {
			p.naming = ns
		}
	}
}

// WithTagKey sets the struct tag key Describe reads annotations from.
func WithTagKey(key string) Option {
	return func(p *Parser) {
		if key != "" {
			p.tagKey = key
		}
	}
}

// WithStrictAttributes makes a malformed rename an error instead of being
// ignored.
func WithStrictAttributes(strict bool) Option {
	return func(p *Parser) { p.strict = strict }
}

// WithLogger sets the logger used for ignored annotations.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser. Without options it uses snake_case naming,
// the "row" tag key and permissive attribute parsing.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		naming: defaultNamingStrategy,
		tagKey: DefaultTagKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewParserFromConfig creates a parser from the binding section of the
// configuration.
func NewParserFromConfig(cfg config.BindingConfig, logger *slog.Logger) (*Parser, error) {
	naming, err := NamingByName(cfg.Naming)
	if err != nil {
		return nil, err
	}
	return NewParser(
		WithNaming(naming),
		WithTagKey(cfg.TagKey),
		WithStrictAttributes(cfg.StrictAttributes),
		WithLogger(logger),
	), nil
}

// Extract resolves the attributes of every field of desc and returns the
// record's bindings in declaration order. Records that are not structs are
// returned without bindings; the plan compiler rejects them.
func (p *Parser) Extract(desc Descriptor) (Record, error) {
	rec := Record{Name: desc.Name, Kind: desc.Kind, GoType: desc.GoType}
	if desc.Kind != KindStruct {
		return rec, nil
	}

	layout, err := inferLayout(desc)
	if err != nil {
		return Record{}, err
	}
	rec.Layout = layout

	rec.Bindings = make([]FieldBinding, 0, len(desc.Fields))
	for i, f := range desc.Fields {
		slot := FieldSlot{Name: f.Name, Position: i}
		attr, explicit, err := p.resolveAttr(f.Annotations)
		if err != nil {
			return Record{}, fmt.Errorf("schema: field %s.%s: %w", desc.Name, slot, err)
		}
		if !explicit && f.Embedded {
			attr = Flatten
		}
		if attr.Kind == AttrRename && layout == LayoutPositional {
			return Record{}, fmt.Errorf("schema: field %s.%s: %w", desc.Name, slot, ErrRenamePositional)
		}
		rec.Bindings = append(rec.Bindings, FieldBinding{
			Slot:     slot,
			Attr:     attr,
			TypeName: f.Type,
			GoType:   f.GoType,
			Index:    f.Index,
		})
	}
	return rec, nil
}

func inferLayout(desc Descriptor) (Layout, error) {
	if len(desc.Fields) == 0 {
		return LayoutUnit, nil
	}
	named := 0
	for _, f := range desc.Fields {
		if f.Name != "" {
			named++
		}
	}
	switch named {
	case len(desc.Fields):
		return LayoutNamed, nil
	case 0:
		return LayoutPositional, nil
	}
	return LayoutUnit, fmt.Errorf("schema: record %s: %w", desc.Name, ErrMixedLayout)
}

// resolveAttr scans the annotation tokens left to right; the first
// recognised marker decides the attribute. explicit is false when no
// marker was found.
//
// Annotations are split into parts at separators. Within a part a marker
// followed by = owns the operand after it, so `default = -1` or a malformed
// `rename = skip` never leak their operand into the scan.
func (p *Parser) resolveAttr(annotations []string) (attr ColumnAttr, explicit bool, err error) {
	// 1. Tokenize every annotation; each one ends its own part.
	var toks []token
	for _, a := range annotations {
		toks = append(toks, tokenize(a)...)
		toks = append(toks, token{kind: tokSep, text: ","})
	}

	partStart := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokSep:
			partStart = i + 1
			continue
		case tokDash:
			// 2. A dash is skip only when it is the whole part, as in `row:"-"`.
			if i == partStart && toks[i+1].kind == tokSep {
				return Skip, true, nil
			}
			continue
		case tokIdent:
		default:
			continue
		}

		// 3. key = operand pairs consume their operand whatever the key is.
		hasAssign := i+1 < len(toks) && toks[i+1].kind == tokAssign
		hasOperand := hasAssign && i+2 < len(toks) && toks[i+2].kind != tokSep
		var operand token
		if hasOperand {
			operand = toks[i+2]
		}

		switch strings.ToLower(t.text) {
		case "skip":
			if !hasAssign {
				return Skip, true, nil
			}
		case "flatten":
			if !hasAssign {
				return Flatten, true, nil
			}
		case "rename":
			if hasOperand && operand.kind == tokString && operand.text != "" {
				return Rename(operand.text), true, nil
			}
			// 4. Malformed rename: an error in strict mode, otherwise absent.
			if p.strict {
				return None, false, fmt.Errorf("%w: rename expects = \"column\"", ErrMalformedAttribute)
			}
			p.logger.Debug("ignoring malformed rename annotation", "annotations", annotations)
		default:
			p.logger.Debug("ignoring unknown annotation", "token", t.text)
		}

		if hasAssign {
			i++
		}
		if hasOperand {
			i++
		}
	}
	return None, false, nil
}

var globalParser = NewParser()

// Extract uses the default parser.
func Extract(desc Descriptor) (Record, error) {
	return globalParser.Extract(desc)
}
