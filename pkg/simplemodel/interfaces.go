package simplemodel

import (
	"context"
)

// Driver defines the contract a storage backend implements. Drivers move
// untyped records; conventions (naming, identifiers, soft deletion,
// timestamps) are applied by the store layer above.
type Driver interface {
	// Insert stores a new record and returns it as stored. idKey names the
	// record's identifier; drivers assign it when rec carries a zero value
	// (serial convention).
	Insert(ctx context.Context, entity, idKey string, rec Record) (Record, error)

	// Update replaces the record with the given identifier. It returns
	// ErrRecordNotFound when no such record exists.
	Update(ctx context.Context, entity, idKey string, id any, rec Record) error

	// Delete removes the record permanently. It returns ErrRecordNotFound
	// when no such record exists.
	Delete(ctx context.Context, entity, idKey string, id any) error

	// List returns records matching the query spec.
	List(ctx context.Context, entity string, spec QuerySpec) ([]Record, error)

	// Count returns the number of records matching the query spec.
	Count(ctx context.Context, entity string, spec QuerySpec) (int64, error)
}

// Op is a filter comparison operator.
type Op string

// Filter operators.
const (
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpIn      Op = "in"
	OpNull    Op = "null"
	OpNotNull Op = "notnull"
)

// IsValid reports whether the operator is known.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNull, OpNotNull:
		return true
	}
	return false
}

// FilterSpec is a single field comparison within a query.
type FilterSpec struct {
	Field string
	Op    Op
	Value any
}

// QuerySpec describes the records a List or Count call should consider.
type QuerySpec struct {
	Filters  []FilterSpec
	SortBy   string
	SortDesc bool
	Limit    int // 0 means no limit
	Offset   int
}

// EventSink receives notifications after store operations complete. It is for
// cross-cutting integrations (audit, caching, messaging); errors from sinks
// are reported through the OnError hook and do not fail the operation.
type EventSink interface {
	// RecordCreated is fired when a record is created.
	RecordCreated(ctx context.Context, entity string, rec Record) error

	// RecordUpdated is fired when a record is updated.
	RecordUpdated(ctx context.Context, entity string, rec Record) error

	// RecordDeleted is fired when a record is deleted (soft or hard).
	RecordDeleted(ctx context.Context, entity string, id any) error
}

// NoopEventSink is an EventSink that ignores all events.
type NoopEventSink struct{}

// NewNoopEventSink creates an event sink that discards every event.
func NewNoopEventSink() EventSink { return &NoopEventSink{} }

func (s *NoopEventSink) RecordCreated(ctx context.Context, entity string, rec Record) error {
	return nil
}

func (s *NoopEventSink) RecordUpdated(ctx context.Context, entity string, rec Record) error {
	return nil
}

func (s *NoopEventSink) RecordDeleted(ctx context.Context, entity string, id any) error {
	return nil
}
