package caml

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/queryir"
)

const emptyWhere = "<Where></Where>"

// Compiler renders a query definition as CAML fragments.
//
// A Compiler is bound to one definition and one catalog snapshot. It keeps
// no other state, so every method can be called any number of times and
// always produces the same output.
type Compiler struct {
	def *queryir.Definition
	cat *catalog.Catalog
}

// New creates a Compiler for def resolved against cat.
// The definition is read, never modified.
func New(def *queryir.Definition, cat *catalog.Catalog) *Compiler {
	return &Compiler{def: def, cat: cat}
}

// Definition returns the definition being compiled.
func (c *Compiler) Definition() *queryir.Definition {
	return c.def
}

// Fragments holds the three independent CAML fragments of a query.
type Fragments struct {
	View    string `json:"view_fields"`
	Filter  string `json:"filter"`
	OrderBy string `json:"order_by"`
}

// QueryText returns the query body: filter followed by order-by.
func (f Fragments) QueryText() string {
	return f.Filter + f.OrderBy
}

// Fragments renders view fields, filter and order-by in one pass.
func (c *Compiler) Fragments() (Fragments, error) {
	view, err := c.ViewFields()
	if err != nil {
		return Fragments{}, err
	}
	filter, err := c.Filter()
	if err != nil {
		return Fragments{}, err
	}
	orderBy, err := c.OrderBy()
	if err != nil {
		return Fragments{}, err
	}

	slog.Debug("compiled query",
		"list", c.def.List,
		"conditions", len(c.def.Conditions),
		"view_fields", len(c.def.ViewFields),
		"ordered", c.def.OrderBy != nil)

	return Fragments{View: view, Filter: filter, OrderBy: orderBy}, nil
}

// QueryText returns Filter() + OrderBy().
func (c *Compiler) QueryText() (string, error) {
	f, err := c.Fragments()
	if err != nil {
		return "", err
	}
	return f.QueryText(), nil
}

// Validate checks the definition's structure.
// Returns a MALFORMED_DEFINITION CompileError wrapping every
// queryir.ValidationError found, or nil.
func (c *Compiler) Validate() error {
	verrs := queryir.Validate(c.def)
	if len(verrs) == 0 {
		return nil
	}

	msgs := make([]string, len(verrs))
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
		errs[i] = ve
	}

	return &CompileError{
		Code:    ErrCodeMalformedDefinition,
		Field:   verrs[0].Field,
		Message: strings.Join(msgs, "; "),
		Err:     errors.Join(errs...),
	}
}

// ViewFields renders the view-field list as concatenated FieldRef elements.
// An empty list renders as "".
func (c *Compiler) ViewFields() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, f := range c.def.ViewFields {
		name, err := c.cat.Resolve(f)
		if err != nil {
			return "", resolveError(fmt.Sprintf("view[%d]", i), err)
		}
		sb.WriteString(fieldRef(name))
	}
	return sb.String(), nil
}

// Filter renders the Where clause.
//
// Conditions fold left to right: each combinator wraps everything rendered
// so far together with the next condition, so c0 And c1 Or c2 becomes
// <Or><And>c0 c1</And>c2</Or>. There is no precedence between And and Or.
// A definition with no conditions renders as an empty <Where></Where>.
func (c *Compiler) Filter() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	if len(c.def.Conditions) == 0 {
		return emptyWhere, nil
	}

	body, err := c.compileCondition(0)
	if err != nil {
		return "", err
	}

	for i, comb := range c.def.Combinators {
		next, err := c.compileCondition(i + 1)
		if err != nil {
			return "", err
		}
		body = element(comb.String(), body+next)
	}

	return element("Where", body), nil
}

// OrderBy renders the OrderBy clause, or "" when no order is set.
func (c *Compiler) OrderBy() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	ob := c.def.OrderBy
	if ob == nil {
		return "", nil
	}

	name, err := c.cat.Resolve(ob.Field)
	if err != nil {
		return "", resolveError("order_by", err)
	}

	return fmt.Sprintf(`<OrderBy><FieldRef Name="%s" Ascending="%s" /></OrderBy>`, escape(name), ob.Direction.Attr()), nil
}

// compileCondition renders condition i as <Tag><FieldRef .../>[<Value ...>]</Tag>.
func (c *Compiler) compileCondition(i int) (string, error) {
	cond := c.def.Conditions[i]
	field := fmt.Sprintf("where[%d]", i)

	name, err := c.cat.Resolve(cond.Field)
	if err != nil {
		return "", resolveError(field, err)
	}

	tag := cond.Operator.Tag()
	if !cond.Operator.TakesValue() {
		return element(tag, fieldRef(name)), nil
	}

	fieldType, err := c.cat.TypeOf(name)
	if err != nil {
		return "", resolveError(field, err)
	}

	formatted, err := formatValue(cond.Value, fieldType)
	if err != nil {
		return "", &CompileError{
			Code:    ErrCodeUnsupportedValue,
			Field:   field,
			Message: fmt.Sprintf("value for %s field %q: %v", fieldType, name, err),
			Err:     err,
		}
	}

	value := fmt.Sprintf(`<Value Type="%s">%s</Value>`, fieldType, formatted)
	return element(tag, fieldRef(name)+value), nil
}

// fieldRef renders a FieldRef element for an internal name.
// The name is escaped like any other attribute text.
func fieldRef(internalName string) string {
	return fmt.Sprintf(`<FieldRef Name="%s" />`, escape(internalName))
}

// element wraps inner in <name>...</name>.
func element(name, inner string) string {
	return "<" + name + ">" + inner + "</" + name + ">"
}
