package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/store"
)

// runCatalog executes a catalog subcommand and returns its stdout.
func runCatalog(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCatalogCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func importCatalog(t *testing.T, opts *RootOptions, source string) {
	t.Helper()
	_, err := runCatalog(t, opts, "import", source)
	require.NoError(t, err)
}

func TestCatalogImportYAML(t *testing.T) {
	opts := testRootOptions(t, "text")

	out, err := runCatalog(t, opts, "import", filepath.Join("testdata", "catalogs", "budgets.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Imported 1 list(s) into "+opts.DB)
	assert.Contains(t, out, "Budgets: 2 field(s)")

	st, err := store.Open(opts.DB)
	require.NoError(t, err)
	defer st.Close()

	fields, err := st.Fields(t.Context(), "Budgets")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Entry{
		{Title: "Code", InternalName: "LineCode", Type: "Text"},
		{Title: "Amount", InternalName: "Amount", Type: "Number"},
	}, fields)
}

func TestCatalogImportSpecs(t *testing.T) {
	opts := testRootOptions(t, "json")

	out, err := runCatalog(t, opts, "import", filepath.Join("testdata", "specs"))
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []ImportedList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []ImportedList{{Name: "Grants", Fields: 4}}, resp.Data)
}

func TestCatalogImportTwiceBumpsRevision(t *testing.T) {
	opts := testRootOptions(t, "json")
	source := filepath.Join("testdata", "catalogs", "budgets.yaml")
	importCatalog(t, opts, source)
	importCatalog(t, opts, source)

	out, err := runCatalog(t, opts, "list")
	require.NoError(t, err)

	var resp struct {
		Data []store.ListInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Budgets", resp.Data[0].Name)
	assert.Equal(t, int64(2), resp.Data[0].Revision)
	assert.Equal(t, 2, resp.Data[0].Fields)
}

func TestCatalogImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			name:    "missing yaml",
			source:  filepath.Join("testdata", "catalogs", "missing.yaml"),
			wantErr: "E005",
		},
		{
			name:    "missing dir",
			source:  filepath.Join("testdata", "nope"),
			wantErr: "E005",
		},
		{
			name:    "specs without lists",
			source:  filepath.Join("testdata", "store_only"),
			wantErr: "no lists declared",
		},
		{
			name:    "invalid specs",
			source:  filepath.Join("testdata", "invalid"),
			wantErr: "E102",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCatalog(t, testRootOptions(t, "text"), "import", tt.source)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalogListText(t *testing.T) {
	opts := testRootOptions(t, "text")
	importCatalog(t, opts, filepath.Join("testdata", "specs"))
	importCatalog(t, opts, filepath.Join("testdata", "catalogs", "budgets.yaml"))

	out, err := runCatalog(t, opts, "list")
	require.NoError(t, err)
	assert.Equal(t, "Budgets  rev 1  2 field(s)\nGrants  rev 1  4 field(s)\n", out)

	out, err = runCatalog(t, opts, "list", "Grants")
	require.NoError(t, err)
	assert.Contains(t, out, "Grants:\n")
	assert.Contains(t, out, "  Fund  Fund_x002d_Name  (Text)\n")
}

func TestCatalogListFieldsJSON(t *testing.T) {
	opts := testRootOptions(t, "json")
	importCatalog(t, opts, filepath.Join("testdata", "catalogs", "budgets.yaml"))

	out, err := runCatalog(t, opts, "list", "Budgets")
	require.NoError(t, err)

	var resp struct {
		Data ListFields `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Budgets", resp.Data.Name)
	require.Len(t, resp.Data.Fields, 2)
	assert.Equal(t, "LineCode", resp.Data.Fields[0].InternalName)
}

func TestCatalogListEmptyStore(t *testing.T) {
	opts := testRootOptions(t, "text")
	importCatalog(t, opts, filepath.Join("testdata", "catalogs", "budgets.yaml"))
	_, err := runCatalog(t, opts, "delete", "Budgets")
	require.NoError(t, err)

	out, err := runCatalog(t, opts, "list")
	require.NoError(t, err)
	assert.Equal(t, "No lists stored\n", out)
}

func TestCatalogMissingStore(t *testing.T) {
	for _, args := range [][]string{{"list"}, {"list", "Grants"}, {"delete", "Grants"}} {
		t.Run(args[0]+"/"+args[len(args)-1], func(t *testing.T) {
			opts := testRootOptions(t, "text")
			out, err := runCatalog(t, opts, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "catalog store not found")
		})
	}
}

func TestCatalogUnknownList(t *testing.T) {
	opts := testRootOptions(t, "text")
	importCatalog(t, opts, filepath.Join("testdata", "catalogs", "budgets.yaml"))

	for _, sub := range []string{"list", "delete"} {
		t.Run(sub, func(t *testing.T) {
			out, err := runCatalog(t, opts, sub, "Grants")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, `list "Grants" is not in the catalog store`)
		})
	}
}

func TestCatalogDelete(t *testing.T) {
	opts := testRootOptions(t, "text")
	importCatalog(t, opts, filepath.Join("testdata", "catalogs", "budgets.yaml"))

	out, err := runCatalog(t, opts, "delete", "Budgets")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted list Budgets")

	// Store-backed queries no longer resolve.
	_, err = compileJSON(t, &RootOptions{Format: "json", DB: opts.DB}, filepath.Join("testdata", "store_only"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
