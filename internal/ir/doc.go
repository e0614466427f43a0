// Package ir defines the value types shared by the query definition,
// the fluent builder and the CAML compiler.
//
// # Field references
//
// A FieldName pairs a name with a NameKind. Internal names are emitted
// verbatim; display names are resolved against a field catalog when the
// query is compiled, never earlier, so a definition can be built before the
// list schema is known.
//
// # Values
//
// Value is a sealed interface using the marker method pattern. Only Text,
// Number, Boolean, DateTime and Raw implement it, which lets the compiler's
// formatter use exhaustive type switches:
//
//	switch v := value.(type) {
//	case ir.DateTime:
//	    // ISO-8601
//	case ir.Boolean:
//	    // TRUE / FALSE
//	default:
//	    // String()
//	}
//
// ValueOf converts ordinary Go scalars (string, numeric kinds, bool,
// time.Time) so the fluent API can accept `any` while the definition only
// ever stores sealed values.
package ir
