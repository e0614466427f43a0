package catalog

import (
	"errors"
	"fmt"

	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
)

// AmbiguousDisplayNameError is returned when a display name matches more
// than one catalog entry.
type AmbiguousDisplayNameError struct {
	DisplayName string
	Matches     int
}

func (e *AmbiguousDisplayNameError) Error() string {
	return fmt.Sprintf("there is more than one field with the display name %q; try using the field's internal name instead", e.DisplayName)
}

// UnknownFieldError is returned when a reference matches no catalog entry.
type UnknownFieldError struct {
	Name string
	Kind ir.NameKind

	// Equivalent lists titles that differ from Name only in Unicode
	// normalization form.
	Equivalent []string
}

func (e *UnknownFieldError) Error() string {
	if e.Kind == ir.DisplayName {
		if len(e.Equivalent) > 0 {
			return fmt.Sprintf("no field with the display name %q (%q differs only in Unicode normalization)", e.Name, e.Equivalent[0])
		}
		return fmt.Sprintf("no field with the display name %q", e.Name)
	}
	return fmt.Sprintf("no field with the internal name %q", e.Name)
}

// DuplicateInternalNameError is returned by New when two entries share an
// internal name.
type DuplicateInternalNameError struct {
	InternalName string
}

func (e *DuplicateInternalNameError) Error() string {
	return fmt.Sprintf("duplicate internal field name %q", e.InternalName)
}

// ErrUnknownList is matched by every "no such list" error a Provider returns.
var ErrUnknownList = errors.New("unknown list")

// UnknownListError is returned by providers that do not know a list.
type UnknownListError struct {
	List string
}

func (e *UnknownListError) Error() string {
	return fmt.Sprintf("unknown list %q", e.List)
}

func (e *UnknownListError) Unwrap() error {
	return ErrUnknownList
}

// IsAmbiguous reports whether err is, or wraps, an *AmbiguousDisplayNameError.
func IsAmbiguous(err error) bool {
	var ae *AmbiguousDisplayNameError
	return errors.As(err, &ae)
}

// IsUnknownList reports whether err means a provider does not know the list.
func IsUnknownList(err error) bool {
	return errors.Is(err, ErrUnknownList)
}

// IsUnknownField reports whether err is, or wraps, an *UnknownFieldError.
func IsUnknownField(err error) bool {
	var ue *UnknownFieldError
	return errors.As(err, &ue)
}
