// pkg/row/buffered_test.go
package row

import (
	"database/sql"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func TestBuffered_TryGetByNameAndIndex(t *testing.T) {
	r := New([]string{"id", "full_name"}, []any{int64(1), "Ann"})

	var id int
	require.NoError(t, r.TryGet(Name("id"), &id))
	assert.Equal(t, 1, id)

	var name string
	require.NoError(t, r.TryGet(Index(1), &name))
	assert.Equal(t, "Ann", name)
}

func TestBuffered_DuplicateColumnResolvesToFirst(t *testing.T) {
	r := New([]string{"id", "id"}, []any{1, 2})

	var id int
	require.NoError(t, r.TryGet(Name("id"), &id))
	assert.Equal(t, 1, id)
}

func TestBuffered_MissingColumn(t *testing.T) {
	r := FromMap(map[string]any{"b": 5})

	var a int
	err := r.TryGet(Name("a"), &a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrColumnNotFound)

	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, Name("a"), accessErr.Key)
	assert.Equal(t, `row: column "a": column not found`, err.Error())

	err = r.TryGet(Index(3), &a)
	assert.ErrorIs(t, err, ErrColumnNotFound)
	err = r.TryGet(Index(-1), &a)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestBuffered_TypeMismatch(t *testing.T) {
	r := New([]string{"name"}, []any{"Ann"})

	var n int
	err := r.TryGet(Name("name"), &n)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.False(t, errors.Is(err, ErrColumnNotFound))
}

func TestBuffered_GetPanicsWithAccessError(t *testing.T) {
	r := New(nil, nil)

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok, "panic value should be an error, got %T", rec)
		assert.ErrorIs(t, err, ErrColumnNotFound)
	}()

	var v int
	r.Get(Name("missing"), &v)
	t.Fatal("Get should have panicked")
}

func TestNew_PanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { New([]string{"a"}, nil) })
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, `"id"`, Name("id").String())
	assert.Equal(t, "#2", Index(2).String())
	assert.True(t, Index(0).IsPositional())
	assert.False(t, Name("").IsPositional())
}

func TestAssign(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	t.Run("int64 into int32", func(t *testing.T) {
		var v int32
		require.NoError(t, Assign(&v, int64(42)))
		assert.Equal(t, int32(42), v)
	})
	t.Run("overflow", func(t *testing.T) {
		var v int8
		assert.Error(t, Assign(&v, int64(300)))
	})
	t.Run("negative into uint", func(t *testing.T) {
		var v uint
		assert.Error(t, Assign(&v, int64(-1)))
	})
	t.Run("text number", func(t *testing.T) {
		var v int64
		require.NoError(t, Assign(&v, []byte("17")))
		assert.Equal(t, int64(17), v)
	})
	t.Run("text float", func(t *testing.T) {
		var v float64
		require.NoError(t, Assign(&v, "2.5"))
		assert.Equal(t, 2.5, v)
	})
	t.Run("integral float into int", func(t *testing.T) {
		var v int
		require.NoError(t, Assign(&v, float64(3)))
		assert.Equal(t, 3, v)
		assert.Error(t, Assign(&v, 3.5))
	})
	t.Run("bytes into string", func(t *testing.T) {
		var v string
		require.NoError(t, Assign(&v, []byte("Ann")))
		assert.Equal(t, "Ann", v)
	})
	t.Run("bytes are copied", func(t *testing.T) {
		src := []byte("abc")
		var v []byte
		require.NoError(t, Assign(&v, src))
		src[0] = 'x'
		assert.Equal(t, []byte("abc"), v)
	})
	t.Run("named string type", func(t *testing.T) {
		var v status
		require.NoError(t, Assign(&v, "active"))
		assert.Equal(t, status("active"), v)
	})
	t.Run("bool from int and text", func(t *testing.T) {
		var v bool
		require.NoError(t, Assign(&v, int64(1)))
		assert.True(t, v)
		require.NoError(t, Assign(&v, []byte("false")))
		assert.False(t, v)
		assert.Error(t, Assign(&v, int64(2)))
	})
	t.Run("time from text", func(t *testing.T) {
		var v time.Time
		require.NoError(t, Assign(&v, "2024-03-01 12:30:00"))
		assert.True(t, ts.Equal(v))
	})
	t.Run("time into string", func(t *testing.T) {
		var v string
		require.NoError(t, Assign(&v, ts))
		assert.Equal(t, "2024-03-01T12:30:00Z", v)
	})
	t.Run("null into pointer", func(t *testing.T) {
		v := new(int)
		require.NoError(t, Assign(&v, nil))
		assert.Nil(t, v)
	})
	t.Run("null into value", func(t *testing.T) {
		var v int
		assert.Error(t, Assign(&v, nil))
	})
	t.Run("value into pointer", func(t *testing.T) {
		var v *string
		require.NoError(t, Assign(&v, "x"))
		require.NotNil(t, v)
		assert.Equal(t, "x", *v)
	})
	t.Run("scanner", func(t *testing.T) {
		var v sql.NullString
		require.NoError(t, Assign(&v, nil))
		assert.False(t, v.Valid)
		require.NoError(t, Assign(&v, "y"))
		assert.Equal(t, sql.NullString{String: "y", Valid: true}, v)
	})
	t.Run("pointer to scanner", func(t *testing.T) {
		var v *sql.NullInt64
		require.NoError(t, Assign(&v, int64(9)))
		require.NotNil(t, v)
		assert.Equal(t, int64(9), v.Int64)
	})
	t.Run("into interface", func(t *testing.T) {
		var v any
		require.NoError(t, Assign(&v, int64(5)))
		assert.Equal(t, int64(5), v)
		require.NoError(t, Assign(&v, nil))
		assert.Nil(t, v)
	})
	t.Run("driver valuer into float", func(t *testing.T) {
		var v float64
		require.NoError(t, Assign(&v, pgtype.Numeric{Int: big.NewInt(1234), Exp: -2, Valid: true}))
		assert.Equal(t, 12.34, v)
	})
	t.Run("invalid driver valuer is NULL", func(t *testing.T) {
		var v *float64
		require.NoError(t, Assign(&v, pgtype.Numeric{}))
		assert.Nil(t, v)

		var f float64
		assert.Error(t, Assign(&f, pgtype.Numeric{}))
	})
	t.Run("driver valuer into string", func(t *testing.T) {
		var v string
		require.NoError(t, Assign(&v, sql.NullString{String: "Ann", Valid: true}))
		assert.Equal(t, "Ann", v)
	})
	t.Run("driver valuer of the destination type", func(t *testing.T) {
		var v pgtype.Numeric
		src := pgtype.Numeric{Int: big.NewInt(5), Valid: true}
		require.NoError(t, Assign(&v, src))
		assert.Equal(t, src, v)
	})
	t.Run("unsigned and numeric text", func(t *testing.T) {
		var u uint16
		require.NoError(t, Assign(&u, []byte("65535")))
		assert.Equal(t, uint16(65535), u)
		assert.Error(t, Assign(&u, int64(70000)))

		var i int64
		assert.Error(t, Assign(&i, uint64(1<<63)))
		assert.Error(t, Assign(&i, "twelve"))
	})
	t.Run("non pointer destination", func(t *testing.T) {
		var v int
		assert.Error(t, Assign(v, 1))
	})
	t.Run("unrelated types", func(t *testing.T) {
		var v struct{ A int }
		err := Assign(&v, "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot assign string")
	})
}
