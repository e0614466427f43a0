// Package caml compiles query definitions into CAML (Collaborative
// Application Markup Language) fragments.
//
// A Compiler renders three independent fragments:
//
//	ViewFields  <FieldRef Name="Title" /><FieldRef Name="Contract" />
//	Filter      <Where><And><Eq>...</Eq><Contains>...</Contains></And></Where>
//	OrderBy     <OrderBy><FieldRef Name="Modified" Ascending="TRUE" /></OrderBy>
//
// The query body is Filter followed by OrderBy; the view fields travel as a
// separate parameter (see Query).
//
// # Name resolution
//
// Internal names are written as given. Display names are resolved against
// the catalog snapshot the Compiler was created with and must match exactly
// one field. The declared catalog type of the resolved field selects the
// Value Type attribute and the value formatter.
//
// # Errors
//
// Every method returns a *CompileError carrying one of the ErrorCode
// constants. Compilation is all-or-nothing: a failing method returns no
// partial output.
package caml
