package ir

import (
	"fmt"
	"strings"
)

// NameKind tells the compiler how a FieldName must be resolved.
type NameKind int

const (
	// Internal names are used verbatim.
	Internal NameKind = iota
	// DisplayName names are resolved against the field catalog at compile time.
	DisplayName
)

func (k NameKind) String() string {
	if k == DisplayName {
		return "display"
	}
	return "internal"
}

// FieldName is a field reference whose resolution is deferred to compile time.
type FieldName struct {
	Name string
	Kind NameKind
}

// Display returns a display-kind field reference.
func Display(name string) FieldName {
	return FieldName{Name: name, Kind: DisplayName}
}

// InternalName returns an internal-kind field reference.
func InternalName(name string) FieldName {
	return FieldName{Name: name, Kind: Internal}
}

func (f FieldName) String() string {
	return fmt.Sprintf("%s(%q)", f.Kind, f.Name)
}

// Operator is a field comparison.
type Operator int

const (
	OpUnset Operator = iota // condition opened but no comparison applied
	Equals
	NotEqual
	GreaterThan
	GreaterThanOrEqualTo
	LessThan
	LessThanOrEqualTo
	IsNull
	IsNotNull
	BeginsWith
	Contains
)

// Tag returns the CAML element name for the operator.
// Unrecognized operators render as "Eq".
func (o Operator) Tag() string {
	switch o {
	case NotEqual:
		return "Neq"
	case GreaterThan:
		return "Gt"
	case GreaterThanOrEqualTo:
		return "Geq"
	case LessThan:
		return "Lt"
	case LessThanOrEqualTo:
		return "Leq"
	case IsNull:
		return "IsNull"
	case IsNotNull:
		return "IsNotNull"
	case BeginsWith:
		return "BeginsWith"
	case Contains:
		return "Contains"
	default:
		return "Eq"
	}
}

// TakesValue reports whether the operator compares against a value.
func (o Operator) TakesValue() bool {
	return o != IsNull && o != IsNotNull
}

func (o Operator) String() string {
	if o == OpUnset {
		return "unset"
	}
	return o.Tag()
}

// operatorNames maps the lower-cased spellings accepted by ParseOperator.
var operatorNames = map[string]Operator{
	"eq":         Equals,
	"neq":        NotEqual,
	"gt":         GreaterThan,
	"geq":        GreaterThanOrEqualTo,
	"lt":         LessThan,
	"leq":        LessThanOrEqualTo,
	"isnull":     IsNull,
	"isnotnull":  IsNotNull,
	"beginswith": BeginsWith,
	"contains":   Contains,
}

// ParseOperator parses a CAML operator tag, case-insensitively.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorNames[strings.ToLower(s)]; ok {
		return op, nil
	}
	return OpUnset, fmt.Errorf("unknown operator %q", s)
}

// Combinator joins two filter sub-trees.
type Combinator int

const (
	And Combinator = iota
	Or
)

// String returns the CAML element name ("And" or "Or").
func (c Combinator) String() string {
	if c == Or {
		return "Or"
	}
	return "And"
}

// ParseCombinator parses "and" / "or", case-insensitively.
func ParseCombinator(s string) (Combinator, error) {
	switch strings.ToLower(s) {
	case "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return And, fmt.Errorf("unknown combinator %q", s)
	}
}

// Direction is an order-by direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Attr returns the value of the Ascending attribute.
func (d Direction) Attr() string {
	if d == Descending {
		return "FALSE"
	}
	return "TRUE"
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc"/"ascending" and "desc"/"descending".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown direction %q", s)
	}
}
