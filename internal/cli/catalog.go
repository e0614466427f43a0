package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
	"github.com/ChrisPritchard/FluentSharepoint/internal/store"
)

// ImportedList reports one list saved by catalog import.
type ImportedList struct {
	Name   string `json:"name"`
	Fields int    `json:"fields"`
}

// ListFields is the catalog list output for a single list.
type ListFields struct {
	Name   string          `json:"name"`
	Fields []catalog.Entry `json:"fields"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage list schemas in the catalog store",
		Long: `Manage the list schemas that display names are resolved against.

Schemas are kept in a SQLite store (--db). Queries whose list is not
declared in their specs are compiled against the stored schema.`,
	}

	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogDeleteCommand(rootOpts))

	return cmd
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <specs-dir | catalog.yaml>",
		Short: "Save list schemas into the catalog store",
		Long: `Save list schemas into the catalog store, creating it if needed.

The source is either a directory of CUE specs (every list declaration is
imported) or a YAML catalog file. Importing a list that is already stored
replaces its fields and bumps its revision.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(contextOf(cmd), rootOpts, args[0], cmd)
		},
	}
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list [list-name]",
		Short:         "Show stored lists, or the fields of one list",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runCatalogFields(contextOf(cmd), rootOpts, args[0], cmd)
			}
			return runCatalogList(contextOf(cmd), rootOpts, cmd)
		},
	}
}

func newCatalogDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <list-name>",
		Short:         "Remove a list schema from the catalog store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogDelete(contextOf(cmd), rootOpts, args[0], cmd)
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runCatalogImport(ctx context.Context, opts *RootOptions, source string, cmd *cobra.Command) error {
	cfg := opts.settings()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	schemas, err := readSchemas(source)
	if err != nil {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, compiler.ErrCodeLoadFailed, err.Error(), nil)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("opening catalog store %s: %v", cfg.DB, err), nil)
	}
	defer st.Close()

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	imported := make([]ImportedList, 0, len(names))
	for _, name := range names {
		if err := st.SaveList(ctx, name, schemas[name]); err != nil {
			return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
		}
		formatter.VerboseLog("Imported list: %s (%d field(s))", name, len(schemas[name]))
		imported = append(imported, ImportedList{Name: name, Fields: len(schemas[name])})
	}

	if formatter.Format == "json" {
		return formatter.Success(imported)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d list(s) into %s\n", len(imported), cfg.DB)
	for _, l := range imported {
		fmt.Fprintf(formatter.Writer, "  %s: %d field(s)\n", l.Name, l.Fields)
	}
	return nil
}

// readSchemas reads list schemas from a YAML catalog file or a directory
// of CUE specs.
func readSchemas(source string) (catalog.Static, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == ".yaml" || ext == ".yml" {
		if _, err := os.Stat(source); err != nil {
			return nil, &compiler.LoadError{Code: compiler.ErrCodeNotFound, Message: fmt.Sprintf("catalog file not found: %s", source)}
		}
		return catalog.LoadYAML(source)
	}

	bundle, errs := compiler.LoadDir(source, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if len(bundle.Lists) == 0 {
		return nil, &compiler.LoadError{Code: compiler.ErrCodeGeneric, Message: fmt.Sprintf("no lists declared in %s", source)}
	}
	return declaredCatalog(bundle), nil
}

func runCatalogList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExistingStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	lists, err := st.Lists(ctx)
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(lists)
	}
	if len(lists) == 0 {
		fmt.Fprintln(formatter.Writer, "No lists stored")
		return nil
	}
	for _, l := range lists {
		fmt.Fprintf(formatter.Writer, "%s  rev %d  %d field(s)\n", l.Name, l.Revision, l.Fields)
	}
	return nil
}

func runCatalogFields(ctx context.Context, opts *RootOptions, list string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExistingStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	fields, err := st.Fields(ctx, list)
	if errors.Is(err, store.ErrListNotFound) {
		_ = formatter.Error(compiler.ErrQueryUnknownList, fmt.Sprintf("list %q is not in the catalog store", list), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("unknown list %q", list))
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(ListFields{Name: list, Fields: fields})
	}
	fmt.Fprintf(formatter.Writer, "%s:\n", list)
	for _, f := range fields {
		fmt.Fprintf(formatter.Writer, "  %s  %s  (%s)\n", f.Title, f.InternalName, f.Type)
	}
	return nil
}

func runCatalogDelete(ctx context.Context, opts *RootOptions, list string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExistingStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	err = st.DeleteList(ctx, list)
	if errors.Is(err, store.ErrListNotFound) {
		_ = formatter.Error(compiler.ErrQueryUnknownList, fmt.Sprintf("list %q is not in the catalog store", list), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("unknown list %q", list))
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": list})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted list %s\n", list)
	return nil
}

// openExistingStore opens the configured store, reporting a missing one as
// a command error.
func openExistingStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	db := opts.settings().DB
	st, err := openStore(db)
	if errors.Is(err, ErrNoStore) {
		return nil, outputCompileError(formatter, compiler.ErrCodeNotFound, fmt.Sprintf("catalog store not found: %s", db), nil)
	}
	if err != nil {
		return nil, outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("opening catalog store %s: %v", db, err), nil)
	}
	return st, nil
}
