package query

import (
	"fmt"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
)

// Condition is an open condition waiting for its operator.
// Every operator method completes the condition and returns the owning Query.
type Condition struct {
	q   *Query
	idx int
}

func (c *Condition) IsEqualTo(v any) *Query { return c.set(ir.Equals, v) }

func (c *Condition) IsNotEqualTo(v any) *Query { return c.set(ir.NotEqual, v) }

func (c *Condition) IsGreaterThan(v any) *Query { return c.set(ir.GreaterThan, v) }

func (c *Condition) IsGreaterThanOrEqualTo(v any) *Query {
	return c.set(ir.GreaterThanOrEqualTo, v)
}

func (c *Condition) IsLessThan(v any) *Query { return c.set(ir.LessThan, v) }

func (c *Condition) IsLessThanOrEqualTo(v any) *Query {
	return c.set(ir.LessThanOrEqualTo, v)
}

func (c *Condition) BeginsWith(v any) *Query { return c.set(ir.BeginsWith, v) }

func (c *Condition) Contains(v any) *Query { return c.set(ir.Contains, v) }

// IsNull matches items where the field has no value.
func (c *Condition) IsNull() *Query { return c.set(ir.IsNull, nil) }

// IsNotNull matches items where the field has a value.
func (c *Condition) IsNotNull() *Query { return c.set(ir.IsNotNull, nil) }

// Is applies op with v. It is the generic form of the named operator methods.
func (c *Condition) Is(op ir.Operator, v any) *Query { return c.set(op, v) }

func (c *Condition) set(op ir.Operator, v any) *Query {
	cond := &c.q.def.Conditions[c.idx]
	cond.Operator = op

	val, err := ir.ValueOf(v)
	if err != nil {
		c.q.recordErr(&caml.CompileError{
			Code:    caml.ErrCodeUnsupportedValue,
			Field:   fmt.Sprintf("where[%d]", c.idx),
			Message: fmt.Sprintf("value for %s: %v", cond.Field, err),
			Err:     err,
		})
		return c.q
	}
	cond.Value = val
	return c.q
}

// View appends fields to a query's view-field list.
type View struct {
	q *Query
}

// And adds a display-named field to the view.
func (v *View) And(displayName string) *View {
	v.q.def.ViewFields = append(v.q.def.ViewFields, ir.Display(displayName))
	return v
}

// AndInternal adds an internally named field to the view.
func (v *View) AndInternal(internalName string) *View {
	v.q.def.ViewFields = append(v.q.def.ViewFields, ir.InternalName(internalName))
	return v
}

// Only closes the view-field list and returns to the query.
func (v *View) Only() *Query {
	return v.q
}
