package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
)

// CLI error codes beyond the loader's E001-E007.
const (
	ErrCodeUnknownQuery = "E008" // --query names no declared query
	ErrCodeStore        = "E009" // catalog store could not be opened or read
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output    string // output file path
	Query     string // compile only this query
	RowLimit  uint32 // overrides declared row limits when > 0
	Recursive bool   // forces recursive scope on every query
}

// CompiledQuery is one query compiled to its CAML envelope.
type CompiledQuery struct {
	Name  string     `json:"name"`
	List  string     `json:"list"`
	Query caml.Query `json:"caml"`
}

// CompilationResult holds the compiled queries.
type CompilationResult struct {
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE query specs to CAML",
		Long: `Compile the queries declared in CUE specs to CAML fragments.

Display names are resolved against the lists declared in the specs first,
then against the catalog store (--db) when it exists.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(contextOf(cmd), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "compile only the named query")
	cmd.Flags().Uint32Var(&opts.RowLimit, "row-limit", 0, "row limit for every query (0 keeps the declared limit)")
	cmd.Flags().BoolVar(&opts.Recursive, "recursive", false, "search all folders for every query")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	cfg := opts.settings()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Collect every load error so one run reports them all.
	bundle, loadErrors := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if bundle == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", bundle.FileCount, specsDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	specs := bundle.Queries
	if opts.Query != "" {
		spec, ok := bundle.Query(opts.Query)
		if !ok {
			return outputCompileError(formatter, ErrCodeUnknownQuery, fmt.Sprintf("query %q is not declared in %s", opts.Query, specsDir), nil)
		}
		specs = []compiler.QuerySpec{*spec}
	}
	if len(specs) == 0 {
		return outputCompileError(formatter, compiler.ErrCodeGeneric, "no queries declared in specs", nil)
	}

	provider, closeProvider, err := resolveProvider(bundle, cfg.DB)
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("opening catalog store %s: %v", cfg.DB, err), nil)
	}
	defer closeProvider()

	rowLimit := cfg.RowLimit
	if opts.RowLimit > 0 {
		rowLimit = opts.RowLimit
	}

	result := &CompilationResult{}
	var failures []error
	for _, spec := range specs {
		formatter.VerboseLog("Compiling query: %s (list %s)", spec.Name, spec.List)

		q, err := compileQuery(ctx, spec, provider, rowLimit, opts.Recursive)
		if err != nil {
			failures = append(failures, fmt.Errorf("query.%s: %w", spec.Name, err))
			continue
		}
		result.Queries = append(result.Queries, CompiledQuery{Name: spec.Name, List: spec.List, Query: q})
	}

	if len(failures) > 0 {
		return outputQueryErrors(formatter, failures)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// compileQuery snapshots the query's list and renders the CAML envelope.
func compileQuery(ctx context.Context, spec compiler.QuerySpec, p catalog.Provider, rowLimit uint32, recursive bool) (caml.Query, error) {
	c, err := spec.Query.Finally(ctx, p)
	if err != nil {
		return caml.Query{}, err
	}

	qopts := spec.Options
	if rowLimit > 0 {
		qopts = qopts.WithRowLimit(rowLimit)
	}
	if recursive {
		qopts.Recursive = true
	}
	return c.Query(qopts)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d query(ies)\n\n", len(result.Queries))

	for _, q := range result.Queries {
		fmt.Fprintf(w, "%s (%s):\n", q.Name, q.List)
		fmt.Fprintf(w, "  Query:      %s\n", q.Query.Text)
		fmt.Fprintf(w, "  ViewFields: %s\n", q.Query.ViewFields)
		if q.Query.Folder != "" {
			fmt.Fprintf(w, "  Folder:     %s\n", q.Query.Folder)
		}
		if q.Query.RowLimit != nil {
			fmt.Fprintf(w, "  RowLimit:   %d\n", *q.Query.RowLimit)
		}
		if q.Query.ViewAttributes != "" {
			fmt.Fprintf(w, "  Attributes: %s\n", q.Query.ViewAttributes)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled queries to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Spec and store problems are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs spec load errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		fmt.Fprintln(formatter.Writer)
		for _, err := range errs {
			var loadErr *compiler.LoadError
			if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
				fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
					loadErr.Pos.Filename(),
					loadErr.Pos.Line(),
					loadErr.Pos.Column())
			}
			code, message := parseCompileError(err)
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
		}
	} else if err := formatter.Errors(toCLIErrors(errs), nil); err != nil {
		return err
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// outputQueryErrors outputs queries that loaded but did not compile against
// their list. These are failures of the specs, not of the command.
func outputQueryErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		fmt.Fprintln(formatter.Writer)
	}
	if err := formatter.Errors(toCLIErrors(errs), nil); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d query(ies) failed to compile", len(errs)))
}

func toCLIErrors(errs []error) []CLIError {
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := parseCompileError(err)
		out[i] = CLIError{Code: code, Message: message}
	}
	return out
}

// parseCompileError extracts error code and message from an error.
// CAML errors keep their symbolic code (UNKNOWN_FIELD, ...).
func parseCompileError(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	if code := caml.Code(err); code != "" {
		return string(code), err.Error()
	}
	if catalog.IsUnknownList(err) {
		return compiler.ErrQueryUnknownList, err.Error()
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation result to a file as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
