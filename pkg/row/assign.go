// pkg/row/assign.go
package row

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

var (
	scannerType = reflect.TypeFor[sql.Scanner]()
	timeType    = reflect.TypeFor[time.Time]()
)

var errNoConversion = errors.New("no conversion")

// Assign stores src, a value produced by a driver, into the variable dest
// points to. Besides plain assignability it handles sql.Scanner targets,
// driver.Valuer sources, pointer allocation, NULL into nillable targets,
// numeric conversions with overflow checks, []byte/string interchange and
// textual numbers, booleans and timestamps as returned by text-protocol
// drivers.
func Assign(dest, src any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dest)
	}
	return assignValue(dv.Elem(), src)
}

func assignValue(dst reflect.Value, src any) error {
	// 1. Values already of the destination type are stored as they are.
	// Bytes are copied: drivers may reuse their buffers between rows.
	if src != nil {
		sv := reflect.ValueOf(src)
		if sv.Type().AssignableTo(dst.Type()) {
			if b, ok := src.([]byte); ok {
				sv = reflect.ValueOf(bytes.Clone(b))
			}
			dst.Set(sv)
			return nil
		}
	}

	// 2. Driver values such as pgtype.Numeric are reduced to their
	// database/sql form first.
	if valuer, ok := src.(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return fmt.Errorf("cannot assign %T to %s: %w", src, dst.Type(), err)
		}
		if _, again := v.(driver.Valuer); again {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		return assignValue(dst, v)
	}

	// 3. Scanners decide for themselves, NULL included.
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	if src == nil {
		switch dst.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			dst.SetZero()
			return nil
		}
		return fmt.Errorf("cannot assign NULL to %s", dst.Type())
	}

	// 4. Pointers are allocated and filled.
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assignValue(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	// 5. Scalar conversion; named types of the same kind convert directly.
	sv := reflect.ValueOf(src)
	err := convertInto(dst, plain(sv))
	if err == nil {
		return nil
	}
	if errors.Is(err, errNoConversion) {
		if sv.Kind() == dst.Kind() && sv.Type().ConvertibleTo(dst.Type()) {
			dst.Set(sv.Convert(dst.Type()))
			return nil
		}
		return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
	}
	return fmt.Errorf("cannot assign %T to %s: %w", src, dst.Type(), err)
}

// plain reduces sv to the basic value cast understands: int64, uint64,
// float64, bool or string. Byte slices become strings. Anything else is
// returned as it is.
func plain(sv reflect.Value) any {
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return sv.Uint()
	case reflect.Float32, reflect.Float64:
		return sv.Float()
	case reflect.Bool:
		return sv.Bool()
	case reflect.String:
		return sv.String()
	}
	if isBytes(sv.Type()) {
		return string(sv.Bytes())
	}
	return sv.Interface()
}

func convertInto(dst reflect.Value, v any) error {
	if dst.Type() == timeType {
		// Only text is parsed; integers are not taken as unix times.
		if _, ok := v.(string); !ok {
			return errNoConversion
		}
		t, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		if t, ok := v.(time.Time); ok {
			dst.SetString(t.Format(time.RFC3339Nano))
			return nil
		}
		if !isScalar(v) {
			return errNoConversion
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if err := checkInteger(v, math.MinInt64, math.MaxInt64); err != nil {
			return err
		}
		if u, ok := v.(uint64); ok && u > math.MaxInt64 {
			return fmt.Errorf("value %d overflows int64", u)
		}
		if !isScalar(v) {
			return errNoConversion
		}
		i, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("value %d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if err := checkInteger(v, 0, math.MaxUint64); err != nil {
			return err
		}
		if !isScalar(v) {
			return errNoConversion
		}
		u, err := cast.ToUint64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %d overflows %s", u, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		if !isScalar(v) {
			return errNoConversion
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %g overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		flag, err := boolSource(v)
		if err != nil {
			return err
		}
		b, err := cast.ToBoolE(flag)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil
	case reflect.Slice:
		if s, ok := v.(string); ok && isBytes(dst.Type()) {
			dst.SetBytes([]byte(s))
			return nil
		}
	}
	return errNoConversion
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// isScalar reports whether v is one of the values plain produces.
func isScalar(v any) bool {
	switch v.(type) {
	case int64, uint64, float64, bool, string:
		return true
	}
	return false
}

// checkInteger rejects floats that are fractional or outside [lo, hi); cast
// would truncate them silently.
func checkInteger(v any, lo, hi float64) error {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	if f != math.Trunc(f) || f < lo || f >= hi {
		return fmt.Errorf("value %g is not an integer in range", f)
	}
	return nil
}

// boolSource narrows numeric flags to 0 and 1 before cast sees them.
func boolSource(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		if n != 0 && n != 1 {
			return nil, fmt.Errorf("value %d is not a boolean", n)
		}
		return int(n), nil
	case uint64:
		if n > 1 {
			return nil, fmt.Errorf("value %d is not a boolean", n)
		}
		return int(n), nil
	case bool, string:
		return n, nil
	}
	return nil, errNoConversion
}
