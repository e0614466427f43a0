// Package queryir provides the unresolved query definition that sits between
// the fluent builder and the CAML compiler.
//
// ARCHITECTURE:
//
//	[query.Query builder] → [queryir.Definition] → [caml.Compiler] → CAML fragments
//	[CUE query specs]     ↗
//
// A Definition records field references exactly as the caller wrote them
// (display or internal names). Nothing is resolved here; resolution needs a
// catalog snapshot and happens in the compiler.
//
// SHAPE:
//
// Conditions and combinators alternate:
//
//	c0  And  c1  Or  c2
//
// and compile to a strictly left-nested tree with no precedence between And
// and Or:
//
//	<Or><And>c0 c1</And>c2</Or>
//
// Callers express grouping through ordering alone.
//
// VALIDATION:
//
// Validate reports every structural problem at once: combinator count not
// equal to conditions-1, conditions left without an operator, value-taking
// operators with no value, and empty field names. The compiler refuses to
// render a definition that fails validation rather than silently dropping
// trailing conditions.
package queryir
