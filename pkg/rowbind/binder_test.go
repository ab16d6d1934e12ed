// pkg/rowbind/binder_test.go
package rowbind

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmenegatti/rowbind/pkg/plan"
	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// --- Test Types ---

type User struct {
	ID   int64
	Name string `row:"rename='full_name'"`
}

type Profile struct {
	Bio string
}

type Account struct {
	ID      int
	Profile Profile `row:"flatten"`
}

type Settings struct {
	Theme string `row:"skip"`
	Size  int
}

type Pair struct {
	schema.Positional
	Left  int
	Right string
}

type Color int

type Node struct {
	ID   int
	Next *Node `row:"flatten"`
}

type Audit struct {
	CreatedBy string
}

type Document struct {
	Audit
	Title  string
	Author *Profile `row:"flatten"`
}

// Cents reads a price column written as a decimal string.
type Cents int64

func (c *Cents) TryFromRow(r row.Row) error {
	var s string
	if err := r.TryGet(row.Name("price"), &s); err != nil {
		return err
	}
	var units, cents int64
	for i, ch := range s {
		if ch == '.' {
			for _, d := range s[i+1:] {
				cents = cents*10 + int64(d-'0')
			}
			break
		}
		units = units*10 + int64(ch-'0')
	}
	*c = Cents(units*100 + cents)
	return nil
}

type Item struct {
	SKU   string
	Price Cents `row:"flatten"`
}

// Upper implements only the infallible conversion.
type Upper struct{ Value string }

func (u *Upper) FromRow(r row.Row) {
	var s string
	r.Get(row.Name("value"), &s)
	u.Value = s + "!"
}

// recordingRow remembers every key it is asked for.
type recordingRow struct {
	*row.Buffered
	mu   sync.Mutex
	keys []row.Key
}

func (r *recordingRow) TryGet(key row.Key, dest any) error {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	return r.Buffered.TryGet(key, dest)
}

func (r *recordingRow) Get(key row.Key, dest any) {
	if err := r.TryGet(key, dest); err != nil {
		panic(err)
	}
}

func record(m map[string]any) *recordingRow {
	return &recordingRow{Buffered: row.FromMap(m)}
}

func panicValue(f func()) (v any) {
	defer func() { v = recover() }()
	f()
	return nil
}

// --- Test Cases ---

func TestConvertInfallible_RenamedField(t *testing.T) {
	var u User
	New().ConvertInfallible(row.FromMap(map[string]any{"id": 1, "full_name": "Ann"}), &u)
	assert.Equal(t, User{ID: 1, Name: "Ann"}, u)
}

func TestConvert_ReadsDeclaredNamesInOrder(t *testing.T) {
	type Point struct {
		Y int
		X int
		Z int
	}
	r := record(map[string]any{"x": 1, "y": 2, "z": 3, "w": 4})
	p := Convert[Point](r)
	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, p)
	assert.Equal(t, []row.Key{row.Name("y"), row.Name("x"), row.Name("z")}, r.keys)
}

func TestConvert_RenameNeverReadsFieldName(t *testing.T) {
	r := record(map[string]any{"id": 1, "full_name": "Ann", "name": "wrong"})
	u, err := TryConvert[User](r)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.NotContains(t, r.keys, row.Name("name"))
}

func TestConvert_SkipDoesNotTouchRow(t *testing.T) {
	for _, mode := range []plan.Mode{plan.Infallible, plan.Fallible} {
		t.Run(mode.String(), func(t *testing.T) {
			r := record(map[string]any{"size": 5, "theme": "dark"})
			var s Settings
			if mode == plan.Infallible {
				New().ConvertInfallible(r, &s)
			} else {
				require.NoError(t, New().ConvertFallible(r, &s))
			}
			assert.Equal(t, Settings{Size: 5}, s)
			assert.Equal(t, []row.Key{row.Name("size")}, r.keys)
		})
	}
}

func TestConvertFallible_NativeError(t *testing.T) {
	var u User
	err := New().ConvertFallible(row.FromMap(map[string]any{"id": 1}), &u)
	require.Error(t, err)

	accessErr, ok := err.(*row.AccessError)
	require.True(t, ok, "records without flatten return the row's own error, got %T", err)
	assert.Equal(t, row.Name("full_name"), accessErr.Key)
	assert.ErrorIs(t, err, row.ErrColumnNotFound)
}

func TestConvertFallible_OpaqueErrorFromNestedFailure(t *testing.T) {
	var a Account
	err := New().ConvertFallible(row.FromMap(map[string]any{"id": 1}), &a)
	require.Error(t, err)

	var opaque *OpaqueError
	require.ErrorAs(t, err, &opaque)
	assert.Equal(t, "Account", opaque.Record)
	assert.Equal(t, "profile", opaque.Field)

	var accessErr *row.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, row.Name("bio"), accessErr.Key)
	assert.ErrorIs(t, err, row.ErrColumnNotFound)
}

func TestConvertFallible_OpaqueErrorForColumnFailures(t *testing.T) {
	var a Account
	err := New().ConvertFallible(row.FromMap(map[string]any{"id": "x", "bio": "hi"}), &a)

	var opaque *OpaqueError
	require.ErrorAs(t, err, &opaque, "every field error is boxed once the record flattens")
	assert.Equal(t, "id", opaque.Field)
	assert.ErrorIs(t, err, row.ErrTypeMismatch)
}

func TestConvertFallible_FirstFailureWins(t *testing.T) {
	type Wide struct {
		A int
		B int
		C int
	}
	r := record(map[string]any{"a": 1, "c": "not a number"})
	_, err := TryConvert[Wide](r)

	var accessErr *row.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, row.Name("b"), accessErr.Key)
	assert.Equal(t, []row.Key{row.Name("a"), row.Name("b")}, r.keys, "no access after the first failure")
}

func TestConvertFallible_LeavesDestinationUntouched(t *testing.T) {
	u := User{ID: 9, Name: "keep"}
	err := New().ConvertFallible(row.FromMap(map[string]any{"id": 1}), &u)
	require.Error(t, err)
	assert.Equal(t, User{ID: 9, Name: "keep"}, u)
}

func TestConvertInfallible_PanicsWithAccessError(t *testing.T) {
	var a Account
	v := panicValue(func() {
		New().ConvertInfallible(row.FromMap(map[string]any{"id": 1}), &a)
	})
	require.NotNil(t, v)

	accessErr, ok := v.(*row.AccessError)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, row.Name("bio"), accessErr.Key)
	assert.Equal(t, Account{}, a)
}

func TestConvert_Flatten(t *testing.T) {
	a := Convert[Account](row.FromMap(map[string]any{"id": 1, "bio": "hello"}))
	assert.Equal(t, Account{ID: 1, Profile: Profile{Bio: "hello"}}, a)
}

func TestConvert_EmbeddedAndPointerFlatten(t *testing.T) {
	r := row.FromMap(map[string]any{"created_by": "ann", "title": "Go", "bio": "writer"})
	d, err := TryConvert[Document](r)
	require.NoError(t, err)
	assert.Equal(t, "ann", d.CreatedBy)
	assert.Equal(t, "Go", d.Title)
	require.NotNil(t, d.Author)
	assert.Equal(t, "writer", d.Author.Bio)
}

func TestConvert_Positional(t *testing.T) {
	r := row.New([]string{"a", "b"}, []any{int64(7), []byte("seven")})
	p := Convert[Pair](r)
	assert.Equal(t, 7, p.Left)
	assert.Equal(t, "seven", p.Right)

	_, err := TryConvert[Pair](row.New([]string{"a"}, []any{1}))
	var accessErr *row.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, row.Index(1), accessErr.Key)
}

func TestConvert_UnknownAnnotationsStillRead(t *testing.T) {
	type Note struct {
		ID    int
		Notes string `row:"default=-1"`
		Kind  string `row:"rename = flatten"`
	}
	n, err := TryConvert[Note](row.FromMap(map[string]any{"id": 1, "notes": "hello", "kind": "memo"}))
	require.NoError(t, err)
	assert.Equal(t, Note{ID: 1, Notes: "hello", Kind: "memo"}, n)
}

func TestConvert_PositionalWithHiddenField(t *testing.T) {
	type Triple struct {
		schema.Positional
		hidden int
		B      string
		C      int
	}
	_, err := TryConvert[Triple](row.New([]string{"a", "b", "c"}, []any{1, "two", 3}))
	assert.ErrorIs(t, err, schema.ErrUnexportedPositional)
}

func TestConvert_UnsupportedRecordKind(t *testing.T) {
	var c Color
	err := New().ConvertFallible(row.FromMap(map[string]any{"color": 1}), &c)
	assert.ErrorIs(t, err, plan.ErrUnsupportedRecordKind)

	v := panicValue(func() { Convert[Color](row.FromMap(nil)) })
	require.NotNil(t, v)
	assert.ErrorIs(t, v.(error), plan.ErrUnsupportedRecordKind)
}

func TestConvert_UnitRecord(t *testing.T) {
	type Marker struct{}
	r := record(map[string]any{"id": 1})
	m, err := TryConvert[Marker](r)
	require.NoError(t, err)
	assert.Equal(t, Marker{}, m)
	assert.Empty(t, r.keys)
}

func TestConvert_PointerDestination(t *testing.T) {
	var u *User
	require.NoError(t, New().ConvertFallible(row.FromMap(map[string]any{"id": 2, "full_name": "Bo"}), &u))
	require.NotNil(t, u)
	assert.Equal(t, User{ID: 2, Name: "Bo"}, *u)
}

func TestConvert_InvalidDestination(t *testing.T) {
	b := New()
	r := row.FromMap(nil)

	assert.ErrorIs(t, b.ConvertFallible(r, nil), ErrInvalidDestination)
	assert.ErrorIs(t, b.ConvertFallible(r, User{}), ErrInvalidDestination)
	assert.ErrorIs(t, b.ConvertFallible(r, (*User)(nil)), ErrInvalidDestination)

	v := panicValue(func() { b.ConvertInfallible(r, User{}) })
	require.NotNil(t, v)
	assert.ErrorIs(t, v.(error), ErrInvalidDestination)
}

func TestConvert_CustomConversions(t *testing.T) {
	r := row.FromMap(map[string]any{"sku": "A1", "price": "12.34", "value": "hey"})

	item, err := TryConvert[Item](r)
	require.NoError(t, err)
	assert.Equal(t, Item{SKU: "A1", Price: 1234}, item, "nested TryConverter")

	price := Convert[Cents](r)
	assert.Equal(t, Cents(1234), price, "infallible use of a TryConverter")

	up, err := TryConvert[Upper](r)
	require.NoError(t, err)
	assert.Equal(t, "hey!", up.Value)

	_, err = TryConvert[Upper](row.FromMap(nil))
	assert.ErrorIs(t, err, row.ErrColumnNotFound, "a Converter's panic is returned by fallible conversions")

	v := panicValue(func() { Convert[Cents](row.FromMap(nil)) })
	require.NotNil(t, v)
	assert.ErrorIs(t, v.(error), row.ErrColumnNotFound)
}

func TestConvert_RecursiveFlatten(t *testing.T) {
	_, err := TryConvert[Node](row.FromMap(map[string]any{"id": 1}))
	assert.ErrorIs(t, err, ErrRecursiveFlatten)

	v := panicValue(func() { Convert[Node](row.FromMap(map[string]any{"id": 1})) })
	require.NotNil(t, v)
	assert.ErrorIs(t, v.(error), ErrRecursiveFlatten)
}

func TestBinder_PlanIsReused(t *testing.T) {
	b := New()
	typ := reflect.TypeFor[Account]()

	first, err := b.Plan(typ, plan.Fallible)
	require.NoError(t, err)
	second, err := b.Plan(reflect.TypeFor[Account](), plan.Fallible)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, plan.ErrorOpaque, first.ErrorKind)

	infallible, err := b.Plan(typ, plan.Infallible)
	require.NoError(t, err)
	assert.Equal(t, plan.ErrorNone, infallible.ErrorKind)

	native, err := b.Plan(reflect.TypeFor[User](), plan.Fallible)
	require.NoError(t, err)
	assert.Equal(t, plan.ErrorNative, native.ErrorKind)
}

func TestBinder_ConcurrentUse(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var a Account
			if err := b.ConvertFallible(row.FromMap(map[string]any{"id": i, "bio": "b"}), &a); err != nil {
				errs <- err
				return
			}
			if a.ID != i {
				errs <- errors.New("wrong value")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestBinder_WithParser(t *testing.T) {
	type Tagged struct {
		UserID int `db:"rename='uid'"`
	}
	b := New(WithParser(schema.NewParser(schema.WithTagKey("db"))))
	var v Tagged
	require.NoError(t, b.ConvertFallible(row.FromMap(map[string]any{"uid": 4}), &v))
	assert.Equal(t, 4, v.UserID)
}
