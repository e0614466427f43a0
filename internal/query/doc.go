// Package query is the fluent construction API for list queries.
//
// A chain starts with On or InFolder, accumulates conditions joined by
// And/Or, an optional view-field list and an optional order, and ends with
// Finally, which binds a catalog snapshot and returns a caml.Compiler.
//
// Conditions and combinators are recorded exactly as called. The builder
// does not enforce that they alternate; the compiler rejects definitions
// where they do not.
package query
