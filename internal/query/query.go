package query

import (
	"context"
	"fmt"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
	"github.com/ChrisPritchard/FluentSharepoint/internal/queryir"
)

// Query accumulates a query definition through chained calls.
//
// A Query is owned by one goroutine. Every method mutates the receiver and
// returns it (or a sibling builder bound to it), so a chain reads as one
// expression:
//
//	c, err := query.On("Grants").
//		When("Fund").IsEqualTo("Fellowships").
//		And().
//		When("Title").Contains("Environmental").
//		WithViewContaining("Title").And("Fund").Only().
//		OrderByDescendingInternal("Modified").
//		Finally(ctx, provider)
type Query struct {
	def queryir.Definition

	// err is the first value conversion failure seen while building.
	// It is reported by Finally/FinallyWith so the chain itself never breaks.
	err error
}

// On starts a query against list.
func On(list string) *Query {
	return &Query{def: queryir.Definition{List: list}}
}

// InFolder starts a query against one subfolder of list.
func InFolder(list, subfolder string) *Query {
	return &Query{def: queryir.Definition{List: list, Folder: subfolder}}
}

// When opens a condition on a field referenced by display title.
func (q *Query) When(displayName string) *Condition {
	return q.open(ir.Display(displayName))
}

// WhenInternal opens a condition on a field referenced by internal name.
func (q *Query) WhenInternal(internalName string) *Condition {
	return q.open(ir.InternalName(internalName))
}

// open appends a condition with no operator yet. A chain that never applies
// an operator leaves it pending, which compilation rejects.
func (q *Query) open(field ir.FieldName) *Condition {
	q.def.Conditions = append(q.def.Conditions, queryir.Condition{Field: field})
	return &Condition{q: q, idx: len(q.def.Conditions) - 1}
}

// And joins the previous condition to the next with And.
func (q *Query) And() *Query {
	q.def.Combinators = append(q.def.Combinators, ir.And)
	return q
}

// Or joins the previous condition to the next with Or.
func (q *Query) Or() *Query {
	q.def.Combinators = append(q.def.Combinators, ir.Or)
	return q
}

// WithViewContaining adds a display-named field to the query's view-field
// list. A query owns a single list, so repeated calls keep adding to it.
func (q *Query) WithViewContaining(displayName string) *View {
	v := &View{q: q}
	return v.And(displayName)
}

// WithViewContainingInternal adds an internally named field to the
// query's view-field list.
func (q *Query) WithViewContainingInternal(internalName string) *View {
	v := &View{q: q}
	return v.AndInternal(internalName)
}

// OrderByAscending sorts ascending by a display-named field, replacing any
// earlier order.
func (q *Query) OrderByAscending(displayName string) *Query {
	return q.orderBy(ir.Display(displayName), ir.Ascending)
}

// OrderByAscendingInternal sorts ascending by an internally named field.
func (q *Query) OrderByAscendingInternal(internalName string) *Query {
	return q.orderBy(ir.InternalName(internalName), ir.Ascending)
}

// OrderByDescending sorts descending by a display-named field.
func (q *Query) OrderByDescending(displayName string) *Query {
	return q.orderBy(ir.Display(displayName), ir.Descending)
}

// OrderByDescendingInternal sorts descending by an internally named field.
func (q *Query) OrderByDescendingInternal(internalName string) *Query {
	return q.orderBy(ir.InternalName(internalName), ir.Descending)
}

func (q *Query) orderBy(field ir.FieldName, dir ir.Direction) *Query {
	q.def.OrderBy = &queryir.OrderBy{Field: field, Direction: dir}
	return q
}

// List returns the target list name.
func (q *Query) List() string {
	return q.def.List
}

// Err returns the first value conversion error recorded while building.
func (q *Query) Err() error {
	return q.err
}

// Definition returns a deep copy of the accumulated definition.
// Later calls on q do not affect the returned value.
func (q *Query) Definition() *queryir.Definition {
	return q.def.Clone()
}

// Finally snapshots the target list's fields from p and returns a Compiler
// bound to that snapshot and a copy of the definition.
func (q *Query) Finally(ctx context.Context, p catalog.Provider) (*caml.Compiler, error) {
	if q.err != nil {
		return nil, q.err
	}

	cat, err := catalog.Snapshot(ctx, p, q.def.List)
	if err != nil {
		return nil, fmt.Errorf("finalize query on %q: %w", q.def.List, err)
	}

	return q.FinallyWith(cat)
}

// FinallyWith returns a Compiler bound to an already captured catalog.
//
// Structural problems (a pending condition, a missing And/Or) are not
// reported here; they surface as MALFORMED_DEFINITION from the Compiler.
func (q *Query) FinallyWith(cat *catalog.Catalog) (*caml.Compiler, error) {
	if q.err != nil {
		return nil, q.err
	}
	if cat == nil {
		return nil, fmt.Errorf("finalize query on %q: nil catalog", q.def.List)
	}
	return caml.New(q.def.Clone(), cat), nil
}

func (q *Query) recordErr(err error) {
	if q.err == nil {
		q.err = err
	}
}
