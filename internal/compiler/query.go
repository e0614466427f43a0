package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
	"github.com/ChrisPritchard/FluentSharepoint/internal/query"
)

// QuerySpec is a named query declared in CUE.
//
// Query holds the fluent builder the declaration was replayed into, so a
// compiled spec and a hand-written chain produce identical definitions.
type QuerySpec struct {
	Name    string
	List    string
	Query   *query.Query
	Options caml.QueryOptions
}

// CompileQuery parses a CUE value into a QuerySpec.
//
// The CUE value should be the query struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`query: open: { list: "Grants", where: [...] }`)
//	spec, err := CompileQuery(v.LookupPath(cue.ParsePath("query.open")))
func CompileQuery(v cue.Value) (*QuerySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &QuerySpec{Name: selectorName(v)}

	list, err := requiredString(v, "list", "query")
	if err != nil {
		return nil, err
	}
	spec.List = list

	folder, hasFolder, err := optionalString(v, "folder")
	if err != nil {
		return nil, err
	}
	if hasFolder {
		spec.Query = query.InFolder(list, folder)
	} else {
		spec.Query = query.On(list)
	}

	if whereVal := v.LookupPath(cue.ParsePath("where")); whereVal.Exists() {
		if err := parseWhere(whereVal, spec.Query); err != nil {
			return nil, err
		}
	}

	if viewVal := v.LookupPath(cue.ParsePath("view")); viewVal.Exists() {
		if err := parseView(viewVal, spec.Query); err != nil {
			return nil, err
		}
	}

	if orderVal := v.LookupPath(cue.ParsePath("order_by")); orderVal.Exists() {
		if err := parseOrderBy(orderVal, spec.Query); err != nil {
			return nil, err
		}
	}

	spec.Options, err = parseOptions(v)
	if err != nil {
		return nil, err
	}

	// Values are converted by the builder; a failure there is a spec error.
	if err := spec.Query.Err(); err != nil {
		return nil, fieldError("where", v.Pos(), "%v", err)
	}

	return spec, nil
}

// parseWhere replays the condition list into q.
// The first condition has no join; every later one must name its join.
func parseWhere(v cue.Value, q *query.Query) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		condVal := iter.Value()
		field := fmt.Sprintf("where[%d]", i)

		join, hasJoin, err := optionalString(condVal, "join")
		if err != nil {
			return err
		}
		switch {
		case i == 0 && hasJoin:
			return fieldError(field+".join", condVal.Pos(), "the first condition cannot have a join")
		case i > 0 && !hasJoin:
			return fieldError(field+".join", condVal.Pos(), "join (and|or) is required after the first condition")
		case hasJoin:
			comb, err := ir.ParseCombinator(join)
			if err != nil {
				return fieldError(field+".join", condVal.Pos(), "%v", err)
			}
			if comb == ir.Or {
				q.Or()
			} else {
				q.And()
			}
		}

		name, err := parseFieldName(condVal, field)
		if err != nil {
			return err
		}

		opStr, err := requiredString(condVal, "op", field)
		if err != nil {
			return err
		}
		op, err := ir.ParseOperator(opStr)
		if err != nil {
			return fieldError(field+".op", condVal.Pos(), "%v", err)
		}

		valueVal := condVal.LookupPath(cue.ParsePath("value"))
		var value ir.Value
		switch {
		case op.TakesValue() && !valueVal.Exists():
			return fieldError(field+".value", condVal.Pos(), "value is required for op %q", opStr)
		case !op.TakesValue() && valueVal.Exists():
			return fieldError(field+".value", valueVal.Pos(), "op %q takes no value", opStr)
		case valueVal.Exists():
			value, err = parseValue(valueVal, field+".value")
			if err != nil {
				return err
			}
		}

		var cond *query.Condition
		if name.Kind == ir.Internal {
			cond = q.WhenInternal(name.Name)
		} else {
			cond = q.When(name.Name)
		}
		cond.Is(op, value)
	}

	return nil
}

// parseFieldName reads exactly one of `field` (display title) or `internal`.
func parseFieldName(v cue.Value, field string) (ir.FieldName, error) {
	display, hasDisplay, err := optionalString(v, "field")
	if err != nil {
		return ir.FieldName{}, err
	}
	internal, hasInternal, err := optionalString(v, "internal")
	if err != nil {
		return ir.FieldName{}, err
	}

	switch {
	case hasDisplay && hasInternal:
		return ir.FieldName{}, fieldError(field, v.Pos(), "use either field or internal, not both")
	case hasDisplay:
		return ir.Display(display), nil
	case hasInternal:
		return ir.InternalName(internal), nil
	default:
		return ir.FieldName{}, fieldError(field, v.Pos(), "field or internal is required")
	}
}

// parseValue converts a CUE value to a condition value.
// Scalars map by kind; {raw: "..."} and {date: "..."} select Raw and DateTime.
func parseValue(v cue.Value, field string) (ir.Value, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Text(s), nil
	case cue.IntKind:
		n, err := v.Int(nil)
		if err != nil {
			return nil, formatCUEError(err)
		}
		num, err := ir.ParseNumber(n.String())
		if err != nil {
			return nil, fieldError(field, v.Pos(), "%v", err)
		}
		return num, nil
	case cue.FloatKind, cue.NumberKind:
		// CUE numbers are arbitrary-precision decimals; their JSON form is
		// the exact decimal text.
		text, err := v.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		num, err := ir.ParseNumber(string(text))
		if err != nil {
			return nil, fieldError(field, v.Pos(), "%v", err)
		}
		return num, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Boolean(b), nil
	case cue.StructKind:
		raw, hasRaw, err := optionalString(v, "raw")
		if err != nil {
			return nil, err
		}
		if hasRaw {
			return ir.Raw(raw), nil
		}
		date, hasDate, err := optionalString(v, "date")
		if err != nil {
			return nil, err
		}
		if hasDate {
			t, err := ir.ParseDateTime(date)
			if err != nil {
				return nil, fieldError(field+".date", v.Pos(), "%v", err)
			}
			return ir.DateTime(t), nil
		}
		return nil, fieldError(field, v.Pos(), "struct values must be {raw: ...} or {date: ...}")
	default:
		return nil, fieldError(field, v.Pos(), "unsupported value kind: %v", v.IncompleteKind())
	}
}

// parseView replays the view-field list into q.
// Elements are display titles or {internal: "..."} / {field: "..."} structs.
func parseView(v cue.Value, q *query.Query) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	var view *query.View
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		field := fmt.Sprintf("view[%d]", i)

		var name ir.FieldName
		if s, err := elem.String(); err == nil {
			name = ir.Display(s)
		} else {
			name, err = parseFieldName(elem, field)
			if err != nil {
				return err
			}
		}

		switch {
		case view == nil && name.Kind == ir.Internal:
			view = q.WithViewContainingInternal(name.Name)
		case view == nil:
			view = q.WithViewContaining(name.Name)
		case name.Kind == ir.Internal:
			view.AndInternal(name.Name)
		default:
			view.And(name.Name)
		}
	}

	if view != nil {
		view.Only()
	}
	return nil
}

// parseOrderBy reads {field|internal, direction?}. Direction defaults to asc.
func parseOrderBy(v cue.Value, q *query.Query) error {
	name, err := parseFieldName(v, "order_by")
	if err != nil {
		return err
	}

	dir := ir.Ascending
	if s, ok, err := optionalString(v, "direction"); err != nil {
		return err
	} else if ok {
		dir, err = ir.ParseDirection(s)
		if err != nil {
			return fieldError("order_by.direction", v.Pos(), "%v", err)
		}
	}

	switch {
	case name.Kind == ir.Internal && dir == ir.Descending:
		q.OrderByDescendingInternal(name.Name)
	case name.Kind == ir.Internal:
		q.OrderByAscendingInternal(name.Name)
	case dir == ir.Descending:
		q.OrderByDescending(name.Name)
	default:
		q.OrderByAscending(name.Name)
	}
	return nil
}

// parseOptions reads row_limit and recursive.
func parseOptions(v cue.Value) (caml.QueryOptions, error) {
	var opts caml.QueryOptions

	if limitVal := v.LookupPath(cue.ParsePath("row_limit")); limitVal.Exists() {
		n, err := limitVal.Int64()
		if err != nil {
			return opts, formatCUEError(err)
		}
		if n < 0 || n > math.MaxUint32 {
			return opts, fieldError("row_limit", limitVal.Pos(), "row_limit must be between 0 and %d", uint32(math.MaxUint32))
		}
		opts = opts.WithRowLimit(uint32(n))
	}

	if recVal := v.LookupPath(cue.ParsePath("recursive")); recVal.Exists() {
		b, err := recVal.Bool()
		if err != nil {
			return opts, formatCUEError(err)
		}
		opts.Recursive = b
	}

	return opts, nil
}
