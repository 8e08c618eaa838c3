package simplemodel

import (
	"sync"
)

// Database binds a storage driver to the configured conventions. Typed stores
// are created from it with NewStore.
type Database struct {
	driver Driver
	naming KeyNaming
	ids    IDConvention
	hooks  *Hooks
	events EventSink

	fieldCache sync.Map // reflect.Type -> []fieldInfo
}

// Option represents a functional option for configuring the database.
type Option func(*Database)

// WithDriver sets the storage driver for the database.
func WithDriver(d Driver) Option {
	return func(db *Database) {
		db.driver = d
	}
}

// WithKeyNaming sets the key naming convention (default snake_case).
func WithKeyNaming(n KeyNaming) Option {
	return func(db *Database) {
		db.naming = n
	}
}

// WithIDConvention sets the identifier generation convention (default uuid).
func WithIDConvention(c IDConvention) Option {
	return func(db *Database) {
		db.ids = c
	}
}

// WithHooks sets the database-level hooks.
func WithHooks(h *Hooks) Option {
	return func(db *Database) {
		db.hooks = h
	}
}

// WithEventSink sets the event sink for the database.
func WithEventSink(sink EventSink) Option {
	return func(db *Database) {
		db.events = sink
	}
}

// New creates a new database instance with the given options.
func New(options ...Option) (*Database, error) {
	db := &Database{
		naming: KeyNamingSnakeCase,
		ids:    IDConventionUUID,
	}

	for _, option := range options {
		option(db)
	}

	if db.driver == nil {
		return nil, ErrDriverRequired
	}

	return db, nil
}

// Driver returns the underlying storage driver.
func (db *Database) Driver() Driver { return db.driver }

// KeyNaming returns the configured key naming convention.
func (db *Database) KeyNaming() KeyNaming { return db.naming }

// IDConvention returns the configured identifier convention.
func (db *Database) IDConvention() IDConvention { return db.ids }
