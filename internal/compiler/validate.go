package compiler

import (
	"fmt"
	"strings"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/queryir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedSpecType = "E100" // unsupported spec type for validation

	// ListSpec errors (E101-E109)
	ErrListNameEmpty     = "E101" // list name is required
	ErrListNoFields      = "E102" // at least one field required
	ErrDuplicateInternal = "E103" // duplicate internal name
	ErrInvalidFieldType  = "E104" // unrecognised field type
	ErrFieldIncomplete   = "E105" // title or internal name empty

	// QuerySpec errors (E110-E119)
	ErrQueryListEmpty   = "E110" // target list is required
	ErrQueryUnknownList = "E111" // target list is not declared
	ErrQueryStructure   = "E112" // definition failed structural validation
	ErrQueryResolution  = "E113" // definition does not compile against its list
)

// FieldTypes are the field type names accepted in list specs.
var FieldTypes = []string{
	"Text", "Note", "Number", "Currency", "Integer", "Counter",
	"DateTime", "Boolean", "Choice", "MultiChoice",
	"Lookup", "LookupMulti", "User", "UserMulti", "URL",
	"Computed", "Calculated", "Guid", "ContentTypeId", "File", "Attachments",
	"TaxonomyFieldType", "TaxonomyFieldTypeMulti", "ModStat",
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled spec against schema rules.
// Returns all errors found (does not fail-fast).
// Supports ListSpec and QuerySpec types.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ListSpec:
		return validateListSpec(spec)
	case ListSpec:
		return validateListSpec(&spec)
	case *QuerySpec:
		return validateQuerySpec(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported spec type: %T", v),
			Code:    ErrUnsupportedSpecType,
		}}
	}
}

// validateListSpec validates a list schema.
func validateListSpec(spec *ListSpec) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "list name is required and must be non-empty",
			Code:    ErrListNameEmpty,
		})
	}

	// E102: at least one field
	if len(spec.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "at least one field is required",
			Code:    ErrListNoFields,
		})
	}

	seen := make(map[string]int)
	for i, f := range spec.Fields {
		path := fmt.Sprintf("fields[%d]", i)

		// E105: title and internal name
		if strings.TrimSpace(f.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".title",
				Message: "title is required",
				Code:    ErrFieldIncomplete,
			})
		}
		if strings.TrimSpace(f.InternalName) == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".internal",
				Message: "internal name is required",
				Code:    ErrFieldIncomplete,
			})
			continue
		}

		// E103: internal names are unique; titles may repeat
		if first, dup := seen[f.InternalName]; dup {
			errs = append(errs, ValidationError{
				Field:   path + ".internal",
				Message: fmt.Sprintf("duplicate internal name %q (first declared at fields[%d])", f.InternalName, first),
				Code:    ErrDuplicateInternal,
			})
		} else {
			seen[f.InternalName] = i
		}

		// E104: known type
		if !isValidType(f.Type) {
			errs = append(errs, ValidationError{
				Field:   path + ".type",
				Message: fmt.Sprintf("invalid type %q for field %q", f.Type, f.InternalName),
				Code:    ErrInvalidFieldType,
			})
		}
	}

	return errs
}

// validateQuerySpec validates a query's structure without a catalog.
func validateQuerySpec(spec *QuerySpec) []ValidationError {
	var errs []ValidationError

	// E110: target list
	if strings.TrimSpace(spec.List) == "" {
		errs = append(errs, ValidationError{
			Field:   "list",
			Message: "target list is required",
			Code:    ErrQueryListEmpty,
		})
	}

	if spec.Query == nil {
		return append(errs, ValidationError{
			Field:   "query",
			Message: "query has no definition",
			Code:    ErrQueryStructure,
		})
	}

	// E112: definition structure
	for _, ve := range queryir.Validate(spec.Query.Definition()) {
		errs = append(errs, ValidationError{
			Field:   ve.Field,
			Message: fmt.Sprintf("%s: %s", ve.Code, ve.Message),
			Code:    ErrQueryStructure,
		})
	}

	return errs
}

// ValidateAgainst checks that a structurally valid query compiles against
// the declared schema of its target list: the list exists and every
// display name resolves to exactly one field.
func ValidateAgainst(spec *QuerySpec, lists map[string]*ListSpec) []ValidationError {
	if errs := validateQuerySpec(spec); len(errs) > 0 {
		return errs
	}

	// E111: list must be declared
	list, ok := lists[spec.List]
	if !ok {
		return []ValidationError{{
			Field:   "list",
			Message: fmt.Sprintf("list %q is not declared", spec.List),
			Code:    ErrQueryUnknownList,
		}}
	}

	cat, err := catalog.New(list.Fields...)
	if err != nil {
		return []ValidationError{{
			Field:   "list",
			Message: fmt.Sprintf("list %q: %v", spec.List, err),
			Code:    ErrQueryUnknownList,
		}}
	}

	c, err := spec.Query.FinallyWith(cat)
	if err == nil {
		_, err = c.Fragments()
	}
	if err != nil {
		// E113: resolution or value conversion
		return []ValidationError{{
			Field:   "query",
			Message: err.Error(),
			Code:    ErrQueryResolution,
		}}
	}

	return nil
}

// isValidType checks if a type string is a recognised field type.
func isValidType(t string) bool {
	for _, valid := range FieldTypes {
		if t == valid {
			return true
		}
	}
	return false
}
