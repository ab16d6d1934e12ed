// pkg/row/document.go
package row

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Document is a row backed by a BSON document. Top-level keys are the
// columns; positions follow the document's element order.
type Document struct {
	raw bson.Raw
}

var _ Row = Document{}

// NewDocument wraps raw. The bytes are not copied.
func NewDocument(raw bson.Raw) Document {
	return Document{raw: raw}
}

// Columns returns the document's top-level keys in element order.
func (d Document) Columns() ([]string, error) {
	elems, err := d.raw.Elements()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.Key()
	}
	return keys, nil
}

func (d Document) lookup(key Key) (bson.RawValue, error) {
	if key.IsPositional() {
		elems, err := d.raw.Elements()
		if err != nil {
			return bson.RawValue{}, mismatch(key, err)
		}
		if key.Position() < 0 || key.Position() >= len(elems) {
			return bson.RawValue{}, notFound(key)
		}
		return elems[key.Position()].Value(), nil
	}

	val, err := d.raw.LookupErr(key.Name())
	if errors.Is(err, bsoncore.ErrElementNotFound) {
		return bson.RawValue{}, notFound(key)
	}
	if err != nil {
		return bson.RawValue{}, mismatch(key, err)
	}
	return val, nil
}

// TryGet implements Row. Values are decoded with the driver's default
// registry, so dest may be any type the BSON decoder understands.
func (d Document) TryGet(key Key, dest any) error {
	val, err := d.lookup(key)
	if err != nil {
		return err
	}
	if err := val.Unmarshal(dest); err != nil {
		return mismatch(key, err)
	}
	return nil
}

// Get implements Row.
func (d Document) Get(key Key, dest any) {
	if err := d.TryGet(key, dest); err != nil {
		panic(err)
	}
}
