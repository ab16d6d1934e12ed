// pkg/schema/field.go
package schema

import (
	"reflect"
	"strconv"
)

// Kind classifies a record type. Only KindStruct records can be bound.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
	KindUnion
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return "other"
	}
}

// Layout tells how a record's fields are identified.
type Layout int

const (
	LayoutUnit Layout = iota // no fields
	LayoutNamed
	LayoutPositional
)

func (l Layout) String() string {
	switch l {
	case LayoutNamed:
		return "named"
	case LayoutPositional:
		return "positional"
	default:
		return "unit"
	}
}

// AttrKind is the conversion attribute declared on a field.
type AttrKind int

const (
	AttrNone AttrKind = iota
	AttrRename
	AttrSkip
	AttrFlatten
)

func (k AttrKind) String() string {
	switch k {
	case AttrRename:
		return "rename"
	case AttrSkip:
		return "skip"
	case AttrFlatten:
		return "flatten"
	default:
		return "none"
	}
}

// ColumnAttr is a field's resolved attribute. Key is only set for AttrRename.
type ColumnAttr struct {
	Kind AttrKind
	Key  string
}

// Rename returns the attribute binding a field to column key.
func Rename(key string) ColumnAttr { return ColumnAttr{Kind: AttrRename, Key: key} }

var (
	None    = ColumnAttr{Kind: AttrNone}
	Skip    = ColumnAttr{Kind: AttrSkip}
	Flatten = ColumnAttr{Kind: AttrFlatten}
)

func (a ColumnAttr) String() string {
	if a.Kind == AttrRename {
		return "rename=" + strconv.Quote(a.Key)
	}
	return a.Kind.String()
}

// FieldSlot identifies a field by name in named records and by position in
// positional ones. Position is the declaration index in both cases.
type FieldSlot struct {
	Name     string
	Position int
}

// IsPositional reports whether the slot has no name.
func (s FieldSlot) IsPositional() bool { return s.Name == "" }

func (s FieldSlot) String() string {
	if s.IsPositional() {
		return "#" + strconv.Itoa(s.Position)
	}
	return s.Name
}

// FieldBinding pairs a field slot with its resolved attribute.
type FieldBinding struct {
	Slot     FieldSlot
	Attr     ColumnAttr
	TypeName string

	// Set when the binding was built by reflection.
	GoType reflect.Type
	Index  []int
}

// FieldDescriptor is the raw description of one field: its name (empty for
// positional fields), its type and the annotation strings attached to it.
type FieldDescriptor struct {
	Name        string
	Type        string
	Annotations []string

	GoType   reflect.Type
	Index    []int
	Embedded bool // unannotated embedded fields default to flatten
}

// Descriptor describes a record type before its annotations are resolved.
// It can be written by hand, loaded from YAML or built by Parser.Describe.
type Descriptor struct {
	Name   string
	Kind   Kind
	Fields []FieldDescriptor
	GoType reflect.Type
}

// Record is the extractor's output: the record's identity and its field
// bindings in declaration order.
type Record struct {
	Name     string
	Kind     Kind
	Layout   Layout
	Bindings []FieldBinding
	GoType   reflect.Type
}

// Positional is a marker. A struct that embeds it binds its fields by
// position instead of by name:
//
//	type Pair struct {
//		schema.Positional
//		Left  int
//		Right string
//	}
type Positional struct{}
