// pkg/schema/naming.go
package schema

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// NamingStrategy converts Go field names to the names records bind by.
type NamingStrategy interface {
	ColumnName(fieldName string) string
}

// SnakeCase maps UserID to user_id. It is the default.
type SnakeCase struct{}

func (SnakeCase) ColumnName(fieldName string) string { return strcase.ToSnake(fieldName) }

// ExactName keeps the Go field name as is.
type ExactName struct{}

func (ExactName) ColumnName(fieldName string) string { return fieldName }

// CamelCase maps user_id to UserId.
type CamelCase struct{}

func (CamelCase) ColumnName(fieldName string) string { return strcase.ToCamel(fieldName) }

// LowerCamelCase maps UserID to userId.
type LowerCamelCase struct{}

func (LowerCamelCase) ColumnName(fieldName string) string { return strcase.ToLowerCamel(fieldName) }

var defaultNamingStrategy NamingStrategy = SnakeCase{}

// NamingByName returns the strategy registered under name: "snake",
// "exact", "camel" or "lower_camel". An empty name selects snake.
func NamingByName(name string) (NamingStrategy, error) {
	switch name {
	case "", "snake":
		return SnakeCase{}, nil
	case "exact":
		return ExactName{}, nil
	case "camel":
		return CamelCase{}, nil
	case "lower_camel":
		return LowerCamelCase{}, nil
	}
	return nil, fmt.Errorf("schema: unknown naming strategy %q", name)
}
