package simplemodel

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fieldInfo describes one struct field's mapping to a record key.
type fieldInfo struct {
	key   string
	index []int
}

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

// fieldsOf resolves the record mapping for a struct type. Anonymous embedded
// structs (e.g. Model) are flattened; a `db` tag overrides the key derived
// from the naming convention and `db:"-"` excludes the field.
func (db *Database) fieldsOf(t reflect.Type) ([]fieldInfo, error) {
	if cached, ok := db.fieldCache.Load(t); ok {
		return cached.([]fieldInfo), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type %s is not a struct", t)
	}

	var fields []fieldInfo
	var walk func(t reflect.Type, index []int) error
	walk = func(t reflect.Type, index []int) error {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "-" {
				continue
			}
			if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" && f.Type != timeType {
				if err := walk(f.Type, append(append([]int{}, index...), i)); err != nil {
					return err
				}
				continue
			}
			key := tag
			if idx := strings.Index(key, ","); idx >= 0 {
				key = key[:idx]
			}
			if key == "" {
				key = db.naming.KeyFor(f.Name)
			}
			fields = append(fields, fieldInfo{
				key:   key,
				index: append(append([]int{}, index...), i),
			})
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}

	db.fieldCache.Store(t, fields)
	return fields, nil
}

// encodeRecord converts a model struct (or pointer to one) into a Record.
func (db *Database) encodeRecord(v any) (Record, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot encode nil model")
		}
		rv = rv.Elem()
	}
	fields, err := db.fieldsOf(rv.Type())
	if err != nil {
		return nil, err
	}

	rec := make(Record, len(fields))
	for _, f := range fields {
		rec[f.key] = rv.FieldByIndex(f.index).Interface()
	}
	return rec, nil
}

// decodeRecord populates a model struct pointer from a Record. Keys absent
// from the record leave the corresponding field untouched.
func (db *Database) decodeRecord(rec Record, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}
	rv = rv.Elem()
	fields, err := db.fieldsOf(rv.Type())
	if err != nil {
		return err
	}

	for _, f := range fields {
		val, ok := rec[f.key]
		if !ok {
			continue
		}
		if err := assignValue(rv.FieldByIndex(f.index), val); err != nil {
			return fmt.Errorf("field %s: %w", f.key, err)
		}
	}
	return nil
}

// fieldByKey returns the addressable field mapped to the given record key.
func (db *Database) fieldByKey(v any, key string) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	fields, err := db.fieldsOf(rv.Type())
	if err != nil {
		return reflect.Value{}, false
	}
	for _, f := range fields {
		if f.key == key {
			return rv.FieldByIndex(f.index), true
		}
	}
	return reflect.Value{}, false
}

// assignValue sets dst from a driver-supplied value, converting between the
// representations drivers and codecs produce (strings for UUIDs, float64 for
// JSON numbers, []any for slices).
func assignValue(dst reflect.Value, val any) error {
	if val == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(val)

	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	// Unwrap pointer sources.
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return assignValue(dst, src.Elem().Interface())
	}

	// Pointer destinations: allocate and assign the element.
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assignValue(elem.Elem(), val); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch dst.Type() {
	case uuidType:
		switch s := val.(type) {
		case string:
			id, err := uuid.Parse(s)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(id))
			return nil
		case [16]byte:
			dst.Set(reflect.ValueOf(uuid.UUID(s)))
			return nil
		}
	case timeType:
		if s, ok := val.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}

	// JSONB columns come back as []byte or as decoded maps/slices.
	if data, ok := val.([]byte); ok && dst.Kind() != reflect.Slice {
		return json.Unmarshal(data, dst.Addr().Interface())
	}
	if src.Kind() == reflect.Map && (dst.Kind() == reflect.Map || dst.Kind() == reflect.Struct) {
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dst.Addr().Interface())
	}

	// Numeric and string-kind conversions.
	if convertibleKinds(src.Kind(), dst.Kind()) && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	// Element-wise slice conversion ([]any from JSON into []T).
	if src.Kind() == reflect.Slice && dst.Kind() == reflect.Slice {
		out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assignValue(out.Index(i), src.Index(i).Interface()); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", val, dst.Type())
}

func convertibleKinds(src, dst reflect.Kind) bool {
	return (isNumericKind(src) && isNumericKind(dst)) ||
		(src == reflect.String && dst == reflect.String)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
