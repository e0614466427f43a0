package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
	"github.com/ChrisPritchard/FluentSharepoint/internal/store"
	"github.com/ChrisPritchard/FluentSharepoint/internal/testutil"
)

// Harness is the test execution engine.
// It owns a throwaway store seeded from the scenario's specs and catalogs.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load and compile list and query specs
// 3. Seed the store with declared lists, then YAML catalogs
// 4. Compile the named query against a store snapshot
// 5. Check expectations
//
// A compile error is an outcome, not a failure of Run: it is recorded in
// Result.Output and checked against Expect.ErrorCode. Run only returns an
// error when the scenario cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("list")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.Default().With("scenario", scenario.Name),
	}

	ctx := context.Background()

	files, err := specFiles(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	bundle, errs := compiler.LoadFiles(files, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errors.Join(errs...))
	}

	if err := h.seed(ctx, bundle, scenario.Catalogs); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	spec, ok := bundle.Query(scenario.Query)
	if !ok {
		return nil, fmt.Errorf("query %q is not declared in specs", scenario.Query)
	}

	out, err := h.compile(ctx, spec, scenario.Options)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Output = out
	for _, msg := range EvaluateExpectations(out, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario completed", "query", scenario.Query, "pass", result.Pass)
	return result, nil
}

// seed saves every declared list and then every YAML catalog.
func (h *Harness) seed(ctx context.Context, bundle *compiler.Bundle, catalogs []string) error {
	for _, l := range bundle.Lists {
		if err := h.store.SaveList(ctx, l.Name, l.Fields); err != nil {
			return err
		}
		h.logger.Debug("seeded list", "list", l.Name, "fields", len(l.Fields))
	}

	for _, path := range catalogs {
		static, err := catalog.LoadYAML(path)
		if err != nil {
			return err
		}
		// Map order is random; keep revisions and IDs reproducible.
		names := make([]string, 0, len(static))
		for name := range static {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := h.store.SaveList(ctx, name, static[name]); err != nil {
				return err
			}
			h.logger.Debug("seeded catalog", "list", name, "file", path)
		}
	}
	return nil
}

// compile snapshots the target list and renders the query.
func (h *Harness) compile(ctx context.Context, spec *compiler.QuerySpec, override *Options) (Output, error) {
	c, err := spec.Query.Finally(ctx, h.store)
	if err != nil {
		if out, ok := errorOutput(err); ok {
			return out, nil
		}
		return Output{}, fmt.Errorf("failed to finalize query %q: %w", spec.Name, err)
	}

	f, err := c.Fragments()
	if err != nil {
		if out, ok := errorOutput(err); ok {
			return out, nil
		}
		return Output{}, err
	}

	q, err := c.Query(queryOptions(spec.Options, override))
	if err != nil {
		return Output{}, err
	}

	return Output{
		View:           f.View,
		Filter:         f.Filter,
		OrderBy:        f.OrderBy,
		QueryText:      q.Text,
		Folder:         q.Folder,
		RowLimit:       q.RowLimit,
		ViewAttributes: q.ViewAttributes,
	}, nil
}

// queryOptions applies the scenario's overrides to the declared options.
func queryOptions(declared caml.QueryOptions, override *Options) caml.QueryOptions {
	if override == nil {
		return declared
	}
	opts := declared
	if override.RowLimit != nil {
		opts = opts.WithRowLimit(*override.RowLimit)
	}
	if override.Recursive != nil {
		opts.Recursive = *override.Recursive
	}
	return opts
}

// specFiles expands directories in paths to the CUE files they contain.
func specFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := compiler.FindCUEFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// errorOutput records a caml compile error as scenario output.
func errorOutput(err error) (Output, bool) {
	code := caml.Code(err)
	if code == "" {
		return Output{}, false
	}
	return Output{ErrorCode: string(code), Error: err.Error()}, true
}
