// Package memory provides an in-memory simplemodel.Driver, primarily for
// tests and development.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-model/pkg/simplemodel"
)

// Driver implements simplemodel.Driver using in-memory maps.
type Driver struct {
	mu       sync.RWMutex
	entities map[string]map[string]simplemodel.Record // entity -> id -> record
	order    map[string][]string                      // entity -> insertion order of ids
	serials  map[string]int64                         // entity -> last assigned serial
}

// New creates a new in-memory driver.
func New() *Driver {
	return &Driver{
		entities: make(map[string]map[string]simplemodel.Record),
		order:    make(map[string][]string),
		serials:  make(map[string]int64),
	}
}

func (d *Driver) Insert(ctx context.Context, entity, idKey string, rec simplemodel.Record) (simplemodel.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	records, ok := d.entities[entity]
	if !ok {
		records = make(map[string]simplemodel.Record)
		d.entities[entity] = records
	}

	// Keep a copy to avoid external modifications.
	stored := rec.Clone()

	// Assign a serial identifier when the record carries none.
	id := stored[idKey]
	if isZeroValue(id) {
		d.serials[entity]++
		id = d.serials[entity]
		stored[idKey] = id
	}

	key := fmt.Sprint(id)
	if _, exists := records[key]; exists {
		return nil, fmt.Errorf("duplicate identifier %v for entity %s", id, entity)
	}
	records[key] = stored
	d.order[entity] = append(d.order[entity], key)

	return stored.Clone(), nil
}

func (d *Driver) Update(ctx context.Context, entity, idKey string, id any, rec simplemodel.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := d.entities[entity]
	key := fmt.Sprint(id)
	if _, exists := records[key]; !exists {
		return simplemodel.ErrRecordNotFound
	}
	records[key] = rec.Clone()
	return nil
}

func (d *Driver) Delete(ctx context.Context, entity, idKey string, id any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := d.entities[entity]
	key := fmt.Sprint(id)
	if _, exists := records[key]; !exists {
		return simplemodel.ErrRecordNotFound
	}
	delete(records, key)

	order := d.order[entity]
	for i, k := range order {
		if k == key {
			d.order[entity] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	return nil
}

func (d *Driver) List(ctx context.Context, entity string, spec simplemodel.QuerySpec) ([]simplemodel.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	records := d.entities[entity]
	var result []simplemodel.Record
	for _, key := range d.order[entity] {
		rec, exists := records[key]
		if !exists {
			continue
		}
		match, err := matches(rec, spec.Filters)
		if err != nil {
			return nil, err
		}
		if match {
			result = append(result, rec.Clone())
		}
	}

	if spec.SortBy != "" {
		field := spec.SortBy
		desc := spec.SortDesc
		sort.SliceStable(result, func(i, j int) bool {
			c, ok := compareValues(result[i][field], result[j][field])
			if !ok {
				return false
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if spec.Offset > 0 {
		if spec.Offset >= len(result) {
			return []simplemodel.Record{}, nil
		}
		result = result[spec.Offset:]
	}
	if spec.Limit > 0 && spec.Limit < len(result) {
		result = result[:spec.Limit]
	}

	return result, nil
}

func (d *Driver) Count(ctx context.Context, entity string, spec simplemodel.QuerySpec) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int64
	for _, rec := range d.entities[entity] {
		match, err := matches(rec, spec.Filters)
		if err != nil {
			return 0, err
		}
		if match {
			n++
		}
	}
	return n, nil
}

func matches(rec simplemodel.Record, filters []simplemodel.FilterSpec) (bool, error) {
	for _, f := range filters {
		val := rec[f.Field]
		switch f.Op {
		case simplemodel.OpNull:
			if !isNilValue(val) {
				return false, nil
			}
		case simplemodel.OpNotNull:
			if isNilValue(val) {
				return false, nil
			}
		case simplemodel.OpEq:
			if !equalValues(val, f.Value) {
				return false, nil
			}
		case simplemodel.OpNe:
			if equalValues(val, f.Value) {
				return false, nil
			}
		case simplemodel.OpIn:
			if !inValues(val, f.Value) {
				return false, nil
			}
		case simplemodel.OpGt, simplemodel.OpGte, simplemodel.OpLt, simplemodel.OpLte:
			c, ok := compareValues(val, f.Value)
			if !ok {
				return false, nil
			}
			switch f.Op {
			case simplemodel.OpGt:
				if c <= 0 {
					return false, nil
				}
			case simplemodel.OpGte:
				if c < 0 {
					return false, nil
				}
			case simplemodel.OpLt:
				if c >= 0 {
					return false, nil
				}
			case simplemodel.OpLte:
				if c > 0 {
					return false, nil
				}
			}
		default:
			return false, simplemodel.ErrInvalidFilter
		}
	}
	return true, nil
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func inValues(val, set any) bool {
	rv := reflect.ValueOf(set)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValues(val, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// compareValues orders two values of compatible types. It reports false when
// the values are not comparable.
func compareValues(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// normalize maps values onto a small set of comparable types: numerics to
// float64, UUIDs and [16]byte to their string form, pointers to their
// element.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return t.String()
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case string:
		return t
	case bool:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}
