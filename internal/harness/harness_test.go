package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPritchard/FluentSharepoint/internal/caml"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"fellowships", "fellowships_first_page", "ambiguous_status", "status_by_internal_name", "budget_lines"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Envelope(t *testing.T) {
	result, err := Run(loadTestScenario(t, "fellowships"))
	require.NoError(t, err)

	out := result.Output
	assert.Equal(t, out.Filter+out.OrderBy, out.QueryText)
	assert.Equal(t, `Grants\2024`, out.Folder)
	require.NotNil(t, out.RowLimit)
	assert.Equal(t, uint32(50), *out.RowLimit)
	assert.Equal(t, "Scope='Recursive'", out.ViewAttributes)
	assert.Empty(t, out.ErrorCode)
}

func TestRun_OptionsOverride(t *testing.T) {
	result, err := Run(loadTestScenario(t, "fellowships_first_page"))
	require.NoError(t, err)

	require.NotNil(t, result.Output.RowLimit)
	assert.Equal(t, uint32(10), *result.Output.RowLimit)
	assert.Empty(t, result.Output.ViewAttributes)
}

func TestQueryOptions(t *testing.T) {
	limit := uint32(7)
	recursive := true
	declared := caml.QueryOptions{}.WithRowLimit(50)

	assert.Equal(t, declared, queryOptions(declared, nil))

	got := queryOptions(declared, &Options{Recursive: &recursive})
	require.NotNil(t, got.RowLimit)
	assert.Equal(t, uint32(50), *got.RowLimit)
	assert.True(t, got.Recursive)

	got = queryOptions(declared, &Options{RowLimit: &limit})
	assert.Equal(t, uint32(7), *got.RowLimit)
	assert.Equal(t, uint32(50), *declared.RowLimit, "declared options are not modified")
}

func TestRun_CompileErrorIsOutput(t *testing.T) {
	result, err := Run(loadTestScenario(t, "ambiguous_status"))
	require.NoError(t, err)

	assert.Equal(t, "AMBIGUOUS_DISPLAY_NAME", result.Output.ErrorCode)
	assert.Contains(t, result.Output.Error, `"Status"`)
	assert.Empty(t, result.Output.Filter)
}

func TestRun_ExpectationMismatchFails(t *testing.T) {
	s := loadTestScenario(t, "status_by_internal_name")
	wrong := "<Where></Where>"
	s.Expect.Filter = &wrong

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: filter")
}

func TestRun_UnexpectedCompileErrorFails(t *testing.T) {
	s := loadTestScenario(t, "ambiguous_status")
	s.Expect = &Expectation{}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "successful compilation")
}

func TestRun_NoExpectationPasses(t *testing.T) {
	s := loadTestScenario(t, "fellowships")
	s.Expect = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.NotEmpty(t, result.Output.Filter)
}

func TestRun_Errors(t *testing.T) {
	t.Run("undeclared query", func(t *testing.T) {
		s := loadTestScenario(t, "fellowships")
		s.Query = "missing"
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `query "missing" is not declared`)
	})

	t.Run("list without schema", func(t *testing.T) {
		s := loadTestScenario(t, "budget_lines")
		s.Catalogs = nil
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Budgets")
	})

	t.Run("spec does not compile", func(t *testing.T) {
		s := loadTestScenario(t, "fellowships")
		s.Specs = []string{filepath.Join(t.TempDir(), "missing.cue")}
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load specs")
	})
}
