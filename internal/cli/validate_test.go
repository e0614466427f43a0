package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
)

func TestValidateValidSpecs(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "specs")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All specs valid (1 list(s), 2 query(ies))")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "specs")})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Lists)
	assert.Equal(t, 2, resp.Data.Queries)
}

func TestValidateUndeclaredListIsStructuralOnly(t *testing.T) {
	// Budgets lives in a catalog store, so only structure can be checked.
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "store_only")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ All specs valid")
}

func TestValidateAmbiguousDisplayName(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "ambiguous")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Error  *CLIError        `json:"error"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)

	ve := resp.Data.Errors[0]
	assert.Equal(t, compiler.ErrQueryResolution, ve.Code)
	assert.Equal(t, "query.by_status.query", ve.Field)
	assert.Contains(t, ve.Message, "AMBIGUOUS_DISPLAY_NAME")
}

func TestValidateReportsAllErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "invalid")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "E102")
	assert.Contains(t, output, "E110")
}

func TestValidateDuplicateInternalName(t *testing.T) {
	dir := t.TempDir()
	spec := `
list: Grants: fields: [
	{title: "Title", internal: "Title", type: "Text"},
	{title: "Heading", internal: "Title", type: "Text"},
	{title: "When", internal: "When", type: "Timestamp"},
]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grants.cue"), []byte(spec), 0644))

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)

	output := buf.String()
	assert.Contains(t, output, "E103: list.Grants.fields[1].internal")
	assert.Contains(t, output, "E104: list.Grants.fields[2].type")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/directory/path"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
}

func TestValidateNothingDeclared(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.cue"), []byte("other: 1\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(testRootOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "no lists or queries found")
}

func TestWithContext(t *testing.T) {
	errs := withContext("query.q", []compiler.ValidationError{{Field: "list"}, {Field: "where[0]"}})
	assert.Equal(t, "query.q.list", errs[0].Field)
	assert.Equal(t, "query.q.where[0]", errs[1].Field)
	assert.Empty(t, withContext("list.L", nil))
}
