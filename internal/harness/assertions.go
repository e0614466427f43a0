package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Output field that was checked
	Expected string
	Actual   string
	Output   Output // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Output.ErrorCode != "" {
		fmt.Fprintf(&buf, "\nCompile error:\n  %s\n", e.Output.Error)
	}

	return buf.String()
}

// EvaluateExpectations checks out against e and returns one message per
// failed expectation. A nil expectation always passes.
func EvaluateExpectations(out Output, e *Expectation) []string {
	if e == nil {
		return nil
	}

	var errs []string
	check := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if e.ErrorCode != "" {
		check(assertErrorCode(out, e.ErrorCode))
		return errs
	}

	// Any compile error fails a scenario that expects output.
	if out.ErrorCode != "" {
		return []string{(&AssertionError{
			Field:    "error_code",
			Expected: "successful compilation",
			Actual:   out.ErrorCode,
			Output:   out,
		}).Error()}
	}

	check(assertFragment("view_fields", e.View, out.View, out))
	check(assertFragment("filter", e.Filter, out.Filter, out))
	check(assertFragment("order_by", e.OrderBy, out.OrderBy, out))
	check(assertFragment("query_text", e.QueryText, out.QueryText, out))
	check(assertFragment("folder", e.Folder, out.Folder, out))

	return errs
}

// assertErrorCode checks that compilation failed with code.
func assertErrorCode(out Output, code string) error {
	if out.ErrorCode == code {
		return nil
	}
	actual := out.ErrorCode
	if actual == "" {
		actual = "compiled without error"
	}
	return &AssertionError{
		Field:    "error_code",
		Expected: code,
		Actual:   actual,
		Output:   out,
	}
}

// assertFragment compares one rendered fragment exactly.
func assertFragment(field string, want *string, got string, out Output) error {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{
		Field:    field,
		Expected: fmt.Sprintf("%q", *want),
		Actual:   fmt.Sprintf("%q", got),
		Output:   out,
	}
}
