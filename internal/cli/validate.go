package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Lists   int                        `json:"lists"`
	Queries int                        `json:"queries"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate specs without compiling them to CAML",
		Long: `Validate CUE list schemas and query specs.

Lists are checked for complete, uniquely named fields of known types.
Queries are checked for structure and, when their list is declared in the
same specs, for display names that resolve to exactly one field. All
errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	bundle, loadErrors := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if bundle == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return outputValidateError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", bundle.FileCount, specsDir)

	// Load errors are spec errors here, reported alongside the rest.
	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr.Pos),
			})
			continue
		}
		validationErrors = append(validationErrors, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    compiler.ErrCodeGeneric,
		})
	}

	validationErrors = append(validationErrors, validateBundle(bundle, formatter)...)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, ValidationResult{
		Valid:   true,
		Lists:   len(bundle.Lists),
		Queries: len(bundle.Queries),
	})
}

// validateBundle validates every list and query in the bundle.
// Queries on declared lists are resolved against them; queries on lists
// that only exist in a catalog store get structural checks.
func validateBundle(bundle *compiler.Bundle, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError

	for i := range bundle.Lists {
		l := &bundle.Lists[i]
		formatter.VerboseLog("Validating list: %s", l.Name)
		allErrors = append(allErrors, withContext("list."+l.Name, compiler.Validate(l))...)
	}

	lists := bundle.ListIndex()
	for i := range bundle.Queries {
		q := &bundle.Queries[i]
		formatter.VerboseLog("Validating query: %s", q.Name)

		var errs []compiler.ValidationError
		if _, declared := lists[q.List]; declared {
			errs = compiler.ValidateAgainst(q, lists)
		} else {
			formatter.VerboseLog("  list %s is not declared; checking structure only", q.List)
			errs = compiler.Validate(q)
		}
		allErrors = append(allErrors, withContext("query."+q.Name, errs)...)
	}

	return allErrors
}

// withContext prefixes each error's field with the list or query it belongs to.
func withContext(prefix string, errs []compiler.ValidationError) []compiler.ValidationError {
	for i := range errs {
		errs[i].Field = prefix + "." + errs[i].Field
	}
	return errs
}

// lineOf extracts the line number from a CUE position.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d list(s), %d query(ies))\n", result.Lists, result.Queries)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable specs are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}
		first := CLIError{Code: errs[0].Code, Message: errs[0].Message}
		if err := formatter.Errors([]CLIError{first}, result); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
