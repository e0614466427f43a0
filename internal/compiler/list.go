package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
)

// ListSpec is a list schema declared in CUE: the fields a catalog snapshot
// of that list contains.
type ListSpec struct {
	Name   string
	Fields []catalog.Entry
}

// CompileList parses a CUE value into a ListSpec.
//
// The CUE value should be the list struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`list: Grants: fields: [{title: "Fund", internal: "Fund_x002d_Name", type: "Text"}]`)
//	spec, err := CompileList(v.LookupPath(cue.ParsePath("list.Grants")))
func CompileList(v cue.Value) (*ListSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ListSpec{Name: selectorName(v)}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, fieldError("fields", v.Pos(), "fields are required")
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		entry, err := parseEntry(iter.Value(), fmt.Sprintf("fields[%d]", i))
		if err != nil {
			return nil, err
		}
		spec.Fields = append(spec.Fields, entry)
	}

	if len(spec.Fields) == 0 {
		return nil, fieldError("fields", fieldsVal.Pos(), "at least one field is required")
	}

	return spec, nil
}

// parseEntry parses {title, internal, type}. All three are required.
func parseEntry(v cue.Value, field string) (catalog.Entry, error) {
	var entry catalog.Entry
	var err error

	if entry.Title, err = requiredString(v, "title", field); err != nil {
		return entry, err
	}
	if entry.InternalName, err = requiredString(v, "internal", field); err != nil {
		return entry, err
	}
	if entry.Type, err = requiredString(v, "type", field); err != nil {
		return entry, err
	}

	return entry, nil
}

// requiredString reads a non-empty string member of v.
func requiredString(v cue.Value, name, field string) (string, error) {
	member := v.LookupPath(cue.ParsePath(name))
	if !member.Exists() {
		return "", fieldError(field+"."+name, v.Pos(), "%s is required", name)
	}
	s, err := member.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if strings.TrimSpace(s) == "" {
		return "", fieldError(field+"."+name, member.Pos(), "%s must be non-empty", name)
	}
	return s, nil
}

// optionalString reads a string member of v, returning ok=false when absent.
func optionalString(v cue.Value, name string) (s string, ok bool, err error) {
	member := v.LookupPath(cue.ParsePath(name))
	if !member.Exists() {
		return "", false, nil
	}
	s, err = member.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// selectorName returns the last path label of v, unquoted.
// e.g. `query: "open-grants": {...}` → "open-grants".
func selectorName(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return strings.Trim(labels[len(labels)-1].String(), `"`)
}
