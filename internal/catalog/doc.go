// Package catalog holds list field schemas and resolves field references
// against them.
//
// A Catalog is a frozen snapshot taken from a Provider (an external list
// schema source, the SQLite store, or a static map). Resolution is a pure
// function of the reference and the snapshot; nothing is cached between
// snapshots, so a schema change is picked up by the next Snapshot call.
package catalog
