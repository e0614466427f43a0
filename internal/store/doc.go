// Package store provides SQLite-backed storage for list schemas.
//
// A stored schema is the field catalog of one list: an ordered set of
// (title, internal name, type) rows. The Store implements
// catalog.Provider, so a query can be finalized against a schema imported
// earlier without reaching the live list.
//
// # Tables
//
//   - lists: one row per list, keyed by a UUIDv7 id, with a revision that
//     increments on every save
//   - fields: the list's fields in saved order, unique by internal name
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
