package simplemodel

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Store is the typed facade over a Database for a single entity type. T is
// the model struct; EntityName (and IDKey, when present) must use value
// receivers so the zero value carries the metadata.
type Store[T Entity] struct {
	db     *Database
	entity string

	idKey      string
	createdKey string
	updatedKey string
	deletedKey string // empty when T has no soft-delete field
}

// NewStore creates a typed store for T on the given database.
func NewStore[T Entity](db *Database) *Store[T] {
	var zero T
	s := &Store[T]{
		db:         db,
		entity:     zero.EntityName(),
		idKey:      DefaultIDKey,
		createdKey: db.naming.KeyFor("CreatedAt"),
		updatedKey: db.naming.KeyFor("UpdatedAt"),
	}
	if ik, ok := any(zero).(IdentifierKeyed); ok {
		s.idKey = ik.IDKey()
	}

	deletedKey := db.naming.KeyFor("DeletedAt")
	if fields, err := db.fieldsOf(reflect.TypeOf(zero)); err == nil {
		for _, f := range fields {
			if f.key == deletedKey {
				s.deletedKey = deletedKey
				break
			}
		}
	}
	return s
}

// EntityName returns the collection name the store operates on.
func (s *Store[T]) EntityName() string { return s.entity }

// IDKey returns the record key of the identifier field.
func (s *Store[T]) IDKey() string { return s.idKey }

// SetID overwrites the model's identifier field, converting the value as
// needed.
func (s *Store[T]) SetID(m *T, id any) error {
	idField, ok := s.db.fieldByKey(m, s.idKey)
	if !ok {
		return s.wrap("set_id", fmt.Errorf("entity %s has no %q field", s.entity, s.idKey))
	}
	if err := assignValue(idField, id); err != nil {
		return s.wrap("set_id", err)
	}
	return nil
}

// Save persists the model: unsaved models (zero identifier) are inserted with
// a freshly generated identifier, saved models are updated in place. The
// model's timestamps are maintained and the stored record is decoded back
// into the model after insert so driver-assigned values are visible.
func (s *Store[T]) Save(ctx context.Context, m *T) error {
	idField, ok := s.db.fieldByKey(m, s.idKey)
	if !ok {
		return s.fail(ctx, "save", fmt.Errorf("entity %s has no %q field", s.entity, s.idKey))
	}

	if idField.IsZero() {
		return s.create(ctx, m, idField)
	}
	return s.update(ctx, m, idField.Interface())
}

func (s *Store[T]) create(ctx context.Context, m *T, idField reflect.Value) error {
	if h, ok := any(m).(WillCreateHook); ok {
		if err := h.WillCreate(ctx); err != nil {
			return s.fail(ctx, "create", &HookAbortError{Hook: "WillCreate", Err: err})
		}
	}

	if s.db.ids == IDConventionUUID && idField.Type() == uuidType {
		idField.Set(reflect.ValueOf(uuid.New()))
	}
	s.touch(m, true)

	rec, err := s.db.encodeRecord(m)
	if err != nil {
		return s.fail(ctx, "create", err)
	}
	if err := s.db.hooks.executeBeforeSave(ctx, s.entity, rec); err != nil {
		return s.fail(ctx, "create", &HookAbortError{Hook: "BeforeSave", Err: err})
	}

	stored, err := s.db.driver.Insert(ctx, s.entity, s.idKey, rec)
	if err != nil {
		return s.fail(ctx, "create", err)
	}
	if stored != nil {
		if err := s.db.decodeRecord(stored, m); err != nil {
			return s.fail(ctx, "create", err)
		}
	}

	if err := s.db.hooks.executeAfterSave(ctx, s.entity, stored); err != nil {
		return s.fail(ctx, "create", err)
	}
	s.fireEvent(ctx, "create", func(sink EventSink) error {
		return sink.RecordCreated(ctx, s.entity, stored)
	})

	if h, ok := any(m).(DidCreateHook); ok {
		if err := h.DidCreate(ctx); err != nil {
			return s.fail(ctx, "create", err)
		}
	}
	return nil
}

func (s *Store[T]) update(ctx context.Context, m *T, id any) error {
	if h, ok := any(m).(WillUpdateHook); ok {
		if err := h.WillUpdate(ctx); err != nil {
			return s.fail(ctx, "update", &HookAbortError{Hook: "WillUpdate", Err: err})
		}
	}

	s.touch(m, false)

	rec, err := s.db.encodeRecord(m)
	if err != nil {
		return s.fail(ctx, "update", err)
	}
	if err := s.db.hooks.executeBeforeSave(ctx, s.entity, rec); err != nil {
		return s.fail(ctx, "update", &HookAbortError{Hook: "BeforeSave", Err: err})
	}

	if err := s.db.driver.Update(ctx, s.entity, s.idKey, id, rec); err != nil {
		return s.fail(ctx, "update", err)
	}

	if err := s.db.hooks.executeAfterSave(ctx, s.entity, rec); err != nil {
		return s.fail(ctx, "update", err)
	}
	s.fireEvent(ctx, "update", func(sink EventSink) error {
		return sink.RecordUpdated(ctx, s.entity, rec)
	})

	if h, ok := any(m).(DidUpdateHook); ok {
		if err := h.DidUpdate(ctx); err != nil {
			return s.fail(ctx, "update", err)
		}
	}
	return nil
}

// Find retrieves the model with the given identifier. Soft-deleted records
// are not found.
func (s *Store[T]) Find(ctx context.Context, id any) (*T, error) {
	if isZeroAny(id) {
		return nil, s.wrap("find", ErrMissingIdentifier)
	}

	spec := QuerySpec{
		Filters: []FilterSpec{{Field: s.idKey, Op: OpEq, Value: id}},
		Limit:   1,
	}
	if s.deletedKey != "" {
		spec.Filters = append(spec.Filters, FilterSpec{Field: s.deletedKey, Op: OpNull})
	}

	recs, err := s.db.driver.List(ctx, s.entity, spec)
	if err != nil {
		return nil, s.fail(ctx, "find", err)
	}
	if len(recs) == 0 {
		return nil, s.wrap("find", ErrRecordNotFound)
	}

	m := new(T)
	if err := s.db.decodeRecord(recs[0], m); err != nil {
		return nil, s.fail(ctx, "find", err)
	}
	return m, nil
}

// Delete soft-deletes the model when it has a soft-delete field, otherwise it
// deletes permanently.
func (s *Store[T]) Delete(ctx context.Context, m *T) error {
	if s.deletedKey == "" {
		return s.ForceDelete(ctx, m)
	}

	id, err := s.savedID(m)
	if err != nil {
		return s.wrap("delete", err)
	}

	if h, ok := any(m).(WillSoftDeleteHook); ok {
		if err := h.WillSoftDelete(ctx); err != nil {
			return s.fail(ctx, "delete", &HookAbortError{Hook: "WillSoftDelete", Err: err})
		}
	}
	if err := s.db.hooks.executeBeforeDelete(ctx, s.entity, id); err != nil {
		return s.fail(ctx, "delete", &HookAbortError{Hook: "BeforeDelete", Err: err})
	}

	now := time.Now().UTC()
	if f, ok := s.db.fieldByKey(m, s.deletedKey); ok {
		f.Set(reflect.ValueOf(&now))
	}
	s.touch(m, false)

	rec, err := s.db.encodeRecord(m)
	if err != nil {
		return s.fail(ctx, "delete", err)
	}
	if err := s.db.driver.Update(ctx, s.entity, s.idKey, id, rec); err != nil {
		return s.fail(ctx, "delete", err)
	}

	if err := s.db.hooks.executeAfterDelete(ctx, s.entity, id); err != nil {
		return s.fail(ctx, "delete", err)
	}
	s.fireEvent(ctx, "delete", func(sink EventSink) error {
		return sink.RecordDeleted(ctx, s.entity, id)
	})

	if h, ok := any(m).(DidSoftDeleteHook); ok {
		if err := h.DidSoftDelete(ctx); err != nil {
			return s.fail(ctx, "delete", err)
		}
	}
	return nil
}

// ForceDelete removes the record permanently.
func (s *Store[T]) ForceDelete(ctx context.Context, m *T) error {
	id, err := s.savedID(m)
	if err != nil {
		return s.wrap("force_delete", err)
	}

	if h, ok := any(m).(WillDeleteHook); ok {
		if err := h.WillDelete(ctx); err != nil {
			return s.fail(ctx, "force_delete", &HookAbortError{Hook: "WillDelete", Err: err})
		}
	}
	if err := s.db.hooks.executeBeforeDelete(ctx, s.entity, id); err != nil {
		return s.fail(ctx, "force_delete", &HookAbortError{Hook: "BeforeDelete", Err: err})
	}

	if err := s.db.driver.Delete(ctx, s.entity, s.idKey, id); err != nil {
		return s.fail(ctx, "force_delete", err)
	}

	if err := s.db.hooks.executeAfterDelete(ctx, s.entity, id); err != nil {
		return s.fail(ctx, "force_delete", err)
	}
	s.fireEvent(ctx, "force_delete", func(sink EventSink) error {
		return sink.RecordDeleted(ctx, s.entity, id)
	})

	if h, ok := any(m).(DidDeleteHook); ok {
		if err := h.DidDelete(ctx); err != nil {
			return s.fail(ctx, "force_delete", err)
		}
	}
	return nil
}

// Restore clears the soft-delete marker on a soft-deleted model.
func (s *Store[T]) Restore(ctx context.Context, m *T) error {
	if s.deletedKey == "" {
		return s.wrap("restore", ErrNotSoftDeleted)
	}
	id, err := s.savedID(m)
	if err != nil {
		return s.wrap("restore", err)
	}
	f, ok := s.db.fieldByKey(m, s.deletedKey)
	if !ok || f.IsZero() {
		return s.wrap("restore", ErrNotSoftDeleted)
	}

	if h, ok := any(m).(WillRestoreHook); ok {
		if err := h.WillRestore(ctx); err != nil {
			return s.fail(ctx, "restore", &HookAbortError{Hook: "WillRestore", Err: err})
		}
	}

	f.Set(reflect.Zero(f.Type()))
	s.touch(m, false)

	rec, err := s.db.encodeRecord(m)
	if err != nil {
		return s.fail(ctx, "restore", err)
	}
	if err := s.db.driver.Update(ctx, s.entity, s.idKey, id, rec); err != nil {
		return s.fail(ctx, "restore", err)
	}
	s.fireEvent(ctx, "restore", func(sink EventSink) error {
		return sink.RecordUpdated(ctx, s.entity, rec)
	})

	if h, ok := any(m).(DidRestoreHook); ok {
		if err := h.DidRestore(ctx); err != nil {
			return s.fail(ctx, "restore", err)
		}
	}
	return nil
}

// All returns every live record for the entity.
func (s *Store[T]) All(ctx context.Context) ([]*T, error) {
	return s.Query().All(ctx)
}

// Count returns the number of live records for the entity.
func (s *Store[T]) Count(ctx context.Context) (int64, error) {
	return s.Query().Count(ctx)
}

// Chunk pages through every live record in batches of size, invoking fn for
// each batch. A non-nil error from fn stops iteration.
func (s *Store[T]) Chunk(ctx context.Context, size int, fn func(batch []*T) error) error {
	return s.Query().Chunk(ctx, size, fn)
}

// Query starts a filtered query on the entity.
func (s *Store[T]) Query() *Query[T] {
	return &Query[T]{store: s}
}

// savedID returns the identifier of a saved model, or ErrMissingIdentifier.
func (s *Store[T]) savedID(m *T) (any, error) {
	idField, ok := s.db.fieldByKey(m, s.idKey)
	if !ok || idField.IsZero() {
		return nil, ErrMissingIdentifier
	}
	return idField.Interface(), nil
}

// touch maintains the conventional timestamp fields when the model has them.
func (s *Store[T]) touch(m *T, creating bool) {
	now := time.Now().UTC()
	if creating {
		if f, ok := s.db.fieldByKey(m, s.createdKey); ok && f.Type() == timeType && f.IsZero() {
			f.Set(reflect.ValueOf(now))
		}
	}
	if f, ok := s.db.fieldByKey(m, s.updatedKey); ok && f.Type() == timeType {
		f.Set(reflect.ValueOf(now))
	}
}

func (s *Store[T]) fireEvent(ctx context.Context, op string, fire func(EventSink) error) {
	if s.db.events == nil {
		return
	}
	if err := fire(s.db.events); err != nil {
		s.db.hooks.executeOnError(ctx, s.entity, op, err)
	}
}

func (s *Store[T]) wrap(op string, err error) error {
	return &ModelError{Entity: s.entity, Op: op, Err: err}
}

func (s *Store[T]) fail(ctx context.Context, op string, err error) error {
	s.db.hooks.executeOnError(ctx, s.entity, op, err)
	return s.wrap(op, err)
}

func isZeroAny(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.IsZero()
}
