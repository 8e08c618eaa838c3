package simplemodel

import (
	"time"

	"github.com/google/uuid"
)

// Entity supplies the collection/table name for a model type.
type Entity interface {
	EntityName() string
}

// IdentifierKeyed optionally overrides the identifier key for an entity.
// When not implemented, DefaultIDKey is used.
type IdentifierKeyed interface {
	IDKey() string
}

// DefaultIDKey is the record key used for identifiers unless the entity
// overrides it.
const DefaultIDKey = "id"

// IDConvention selects how identifiers are generated for new records.
type IDConvention string

// ID convention constants (typed).
const (
	IDConventionUUID   IDConvention = "uuid"
	IDConventionSerial IDConvention = "serial"
)

// IsValid reports whether the convention is a known value.
func (c IDConvention) IsValid() bool {
	switch c {
	case IDConventionUUID, IDConventionSerial:
		return true
	}
	return false
}

// Model is the embeddable base struct supplying identifier and timestamp
// fields managed by the store. Soft deletion is tracked via DeletedAt. Record
// keys for these fields follow the configured naming convention, so they are
// deliberately left without db tags.
type Model struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Record is the driver-level representation of a stored row or document.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
