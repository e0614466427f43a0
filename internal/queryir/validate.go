package queryir

import (
	"fmt"

	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
)

// Validation error codes.
const (
	ErrMalformedDefinition = "MALFORMED_DEFINITION" // combinators != conditions-1
	ErrPendingCondition    = "PENDING_CONDITION"    // When() without an operator
	ErrMissingValue        = "MISSING_VALUE"        // value-taking operator without a value
	ErrEmptyFieldName      = "EMPTY_FIELD_NAME"     // field reference with no name
)

// ValidationError describes one structural problem with a Definition.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structural rules of a Definition.
// Returns all problems found (does not fail-fast). A nil result means the
// definition can be compiled as far as its shape is concerned; field
// resolution is checked later against a catalog.
//
// Validate is a pure function with no side effects.
func Validate(def *Definition) []ValidationError {
	v := &validator{}
	if def == nil {
		v.add(ErrMalformedDefinition, "definition", "nil definition")
		return v.errs
	}

	v.validateShape(def)

	for i, c := range def.Conditions {
		v.validateCondition(i, c)
	}

	for i, f := range def.ViewFields {
		if f.Name == "" {
			v.add(ErrEmptyFieldName, fmt.Sprintf("view[%d]", i), "field name is empty")
		}
	}

	if def.OrderBy != nil && def.OrderBy.Field.Name == "" {
		v.add(ErrEmptyFieldName, "order_by", "field name is empty")
	}

	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	errs []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// validateShape checks condition/combinator alternation.
func (v *validator) validateShape(def *Definition) {
	conds, combs := len(def.Conditions), len(def.Combinators)

	want := conds - 1
	if conds == 0 {
		want = 0
	}
	if combs == want {
		return
	}

	if combs < want {
		v.add(ErrMalformedDefinition, "where",
			"%d condition(s) joined by %d combinator(s): condition %d onwards has no And/Or before it",
			conds, combs, combs+1)
		return
	}
	v.add(ErrMalformedDefinition, "where",
		"%d condition(s) joined by %d combinator(s): trailing And/Or has no condition after it",
		conds, combs)
}

func (v *validator) validateCondition(i int, c Condition) {
	field := fmt.Sprintf("where[%d]", i)

	if c.Field.Name == "" {
		v.add(ErrEmptyFieldName, field, "field name is empty")
	}

	if c.Operator == ir.OpUnset {
		v.add(ErrPendingCondition, field, "condition on %s has no comparison operator", c.Field)
		return
	}

	if c.Operator.TakesValue() && c.Value == nil {
		v.add(ErrMissingValue, field, "%s on %s requires a value", c.Operator.Tag(), c.Field)
	}
}
