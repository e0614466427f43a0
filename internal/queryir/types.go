package queryir

import "github.com/ChrisPritchard/FluentSharepoint/internal/ir"

// Definition is an unresolved list query.
//
// Conditions and Combinators interleave: condition[0], combinator[0],
// condition[1], ... so a well-formed definition has exactly
// len(Conditions)-1 combinators (or none when there are no conditions).
// Combinator i joins everything up to condition i with condition i+1,
// which yields a strictly left-nested filter tree.
type Definition struct {
	List        string          // Target list name
	Folder      string          // Optional subfolder scope ("" = list root)
	Conditions  []Condition     // Field comparisons, in call order
	Combinators []ir.Combinator // Glue between consecutive conditions
	ViewFields  []ir.FieldName  // Projected fields (nil = list default view)
	OrderBy     *OrderBy        // Single sort key (nil = unsorted)
}

// Condition is a single field comparison.
//
// Value is ignored for operators that do not take one (IsNull, IsNotNull).
type Condition struct {
	Field    ir.FieldName
	Operator ir.Operator
	Value    ir.Value
}

// OrderBy is the definition's single sort key.
type OrderBy struct {
	Field     ir.FieldName
	Direction ir.Direction
}

// FolderPath returns the folder handle for a scoped definition, formatted
// as "<list>\<subfolder>", or "" when the definition is not scoped.
func (d *Definition) FolderPath() string {
	if d.Folder == "" {
		return ""
	}
	return d.List + `\` + d.Folder
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	out := &Definition{
		List:   d.List,
		Folder: d.Folder,
	}
	if d.Conditions != nil {
		out.Conditions = append([]Condition(nil), d.Conditions...)
	}
	if d.Combinators != nil {
		out.Combinators = append([]ir.Combinator(nil), d.Combinators...)
	}
	if d.ViewFields != nil {
		out.ViewFields = append([]ir.FieldName(nil), d.ViewFields...)
	}
	if d.OrderBy != nil {
		ob := *d.OrderBy
		out.OrderBy = &ob
	}
	return out
}
