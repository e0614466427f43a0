package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/query"
)

// =============================================================================
// ListSpec Validation Tests
// =============================================================================

func grantsList() *ListSpec {
	return &ListSpec{
		Name: "Grants",
		Fields: []catalog.Entry{
			{Title: "Fund", InternalName: "Fund_x002d_Name", Type: "Text"},
			{Title: "Title", InternalName: "Title", Type: "Text"},
			{Title: "Status", InternalName: "Status", Type: "Choice"},
			{Title: "Status", InternalName: "Status0", Type: "Text"},
		},
	}
}

func TestValidateListSpecValid(t *testing.T) {
	errs := Validate(grantsList())
	assert.Empty(t, errs, "repeated titles are allowed")

	errs = Validate(*grantsList())
	assert.Empty(t, errs, "value and pointer forms are both accepted")
}

func TestValidateListSpecErrors(t *testing.T) {
	testCases := []struct {
		name  string
		spec  *ListSpec
		codes []string
	}{
		{
			name:  "empty name and no fields",
			spec:  &ListSpec{},
			codes: []string{ErrListNameEmpty, ErrListNoFields},
		},
		{
			name: "duplicate internal name",
			spec: &ListSpec{Name: "L", Fields: []catalog.Entry{
				{Title: "A", InternalName: "X", Type: "Text"},
				{Title: "B", InternalName: "X", Type: "Text"},
			}},
			codes: []string{ErrDuplicateInternal},
		},
		{
			name: "unknown type",
			spec: &ListSpec{Name: "L", Fields: []catalog.Entry{
				{Title: "A", InternalName: "A", Type: "Float"},
			}},
			codes: []string{ErrInvalidFieldType},
		},
		{
			name: "incomplete field",
			spec: &ListSpec{Name: "L", Fields: []catalog.Entry{
				{Title: "", InternalName: "A", Type: "Text"},
				{Title: "B", InternalName: " ", Type: "Text"},
			}},
			codes: []string{ErrFieldIncomplete, ErrFieldIncomplete},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(tc.spec)
			got := make([]string, len(errs))
			for i, e := range errs {
				got[i] = e.Code
			}
			assert.Equal(t, tc.codes, got)
		})
	}
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a spec")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedSpecType, errs[0].Code)
}

// =============================================================================
// QuerySpec Validation Tests
// =============================================================================

func TestValidateQuerySpecStructure(t *testing.T) {
	spec := &QuerySpec{
		Name:  "broken",
		List:  "Grants",
		Query: query.On("Grants").When("Fund").IsNull().When("Title").IsNull(),
	}

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrQueryStructure, errs[0].Code)
	assert.Contains(t, errs[0].Message, "MALFORMED_DEFINITION")
}

func TestValidateAgainst(t *testing.T) {
	lists := map[string]*ListSpec{"Grants": grantsList()}

	testCases := []struct {
		name string
		q    *query.Query
		code string
	}{
		{"valid", query.On("Grants").When("Fund").IsEqualTo("A"), ""},
		{"unknown list", query.On("Budgets").When("Fund").IsEqualTo("A"), ErrQueryUnknownList},
		{"ambiguous title", query.On("Grants").When("Status").IsEqualTo("Open"), ErrQueryResolution},
		{"unknown title", query.On("Grants").When("Deadline").IsNull(), ErrQueryResolution},
		{"malformed", query.On("Grants").When("Fund").IsNull().And(), ErrQueryStructure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := &QuerySpec{Name: tc.name, List: tc.q.List(), Query: tc.q}
			errs := ValidateAgainst(spec, lists)
			if tc.code == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.code, errs[0].Code)
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "fields[0].type", Message: "bad", Code: ErrInvalidFieldType}
	assert.Equal(t, "[E104] fields[0].type: bad", e.Error())

	e.Line = 12
	assert.Equal(t, "[E104] line 12: fields[0].type: bad", e.Error())
}
