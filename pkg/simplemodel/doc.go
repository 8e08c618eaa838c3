// Package simplemodel provides a reusable persistence conventions layer with
// pluggable storage drivers.
//
// It exposes a Database configured through functional options and a typed
// Store bound to a single entity type. The store handles identifier
// generation, timestamp management, soft deletion, and model lifecycle hooks;
// drivers (memory, Postgres) only move untyped records in and out of storage.
//
// Conventions
//
// An entity declares its collection name through EntityName. Struct fields map
// to record keys following the configured key naming convention (snake_case by
// default); a `db` tag overrides the derived key and `db:"-"` excludes a
// field. Identifiers default to the "id" key and are generated according to
// the configured convention (UUID by default, driver-assigned serial
// otherwise).
package simplemodel
