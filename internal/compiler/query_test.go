package compiler

import (
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
	"github.com/ChrisPritchard/FluentSharepoint/internal/queryir"
)

func compileQuerySrc(t *testing.T, src, name string) (*QuerySpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileQuery(v.LookupPath(cue.ParsePath("query." + name)))
}

func TestCompileQueryBasic(t *testing.T) {
	spec, err := compileQuerySrc(t, `
		query: fellowships: {
			list: "Grants"
			where: [
				{field: "Fund", op: "eq", value: "Fellowships"},
				{join: "and", field: "Title", op: "contains", value: "Environmental"},
			]
		}
	`, "fellowships")
	require.NoError(t, err)

	assert.Equal(t, "fellowships", spec.Name)
	assert.Equal(t, "Grants", spec.List)
	assert.Nil(t, spec.Options.RowLimit)
	assert.False(t, spec.Options.Recursive)

	cat := catalog.MustNew(
		catalog.Entry{Title: "Fund", InternalName: "Fund_x002d_Name", Type: "Text"},
		catalog.Entry{Title: "Title", InternalName: "Title", Type: "Text"},
	)
	c, err := spec.Query.FinallyWith(cat)
	require.NoError(t, err)

	filter, err := c.Filter()
	require.NoError(t, err)
	assert.Equal(t,
		`<Where><And><Eq><FieldRef Name="Fund_x002d_Name" /><Value Type="Text">Fellowships</Value></Eq>`+
			`<Contains><FieldRef Name="Title" /><Value Type="Text">Environmental</Value></Contains></And></Where>`,
		filter)
}

func TestCompileQueryFull(t *testing.T) {
	spec, err := compileQuerySrc(t, `
		query: "closing-soon": {
			list:   "Grants"
			folder: "2024"
			where: [
				{internal: "IsActive", op: "eq", value: true},
				{join: "or", field: "Amount", op: "gt", value: 1500},
				{join: "and", field: "Ratio", op: "leq", value: 0.5},
				{join: "and", field: "Closes", op: "lt", value: {date: "2024-06-30T17:00:00Z"}},
				{join: "or", field: "Closes", op: "geq", value: {raw: "<Today />"}},
				{join: "and", internal: "Author", op: "isnull"},
			]
			view: ["Title", {internal: "Contract_x0020_Ref"}, {field: "Fund"}]
			order_by: {internal: "Modified", direction: "desc"}
			row_limit: 100
			recursive: true
		}
	`, `"closing-soon"`)
	require.NoError(t, err)

	assert.Equal(t, "closing-soon", spec.Name)
	require.NotNil(t, spec.Options.RowLimit)
	assert.Equal(t, uint32(100), *spec.Options.RowLimit)
	assert.True(t, spec.Options.Recursive)

	want := &queryir.Definition{
		List:   "Grants",
		Folder: "2024",
		Conditions: []queryir.Condition{
			{Field: ir.InternalName("IsActive"), Operator: ir.Equals, Value: ir.Boolean(true)},
			{Field: ir.Display("Amount"), Operator: ir.GreaterThan, Value: ir.Int(1500)},
			{Field: ir.Display("Ratio"), Operator: ir.LessThanOrEqualTo, Value: ir.Float(0.5)},
			{Field: ir.Display("Closes"), Operator: ir.LessThan, Value: ir.DateTime(time.Date(2024, 6, 30, 17, 0, 0, 0, time.UTC))},
			{Field: ir.Display("Closes"), Operator: ir.GreaterThanOrEqualTo, Value: ir.Raw("<Today />")},
			{Field: ir.InternalName("Author"), Operator: ir.IsNull},
		},
		Combinators: []ir.Combinator{ir.Or, ir.And, ir.And, ir.Or, ir.And},
		ViewFields: []ir.FieldName{
			ir.Display("Title"),
			ir.InternalName("Contract_x0020_Ref"),
			ir.Display("Fund"),
		},
		OrderBy: &queryir.OrderBy{Field: ir.InternalName("Modified"), Direction: ir.Descending},
	}
	assert.Equal(t, want, spec.Query.Definition())
}

func TestCompileQueryExactNumbers(t *testing.T) {
	spec, err := compileQuerySrc(t, `
		query: ids: {
			list: "Grants"
			where: [
				{internal: "ID", op: "eq", value: 9007199254740993},
				{join: "or", internal: "ID", op: "eq", value: 18446744073709551615},
				{join: "or", internal: "Amount", op: "eq", value: 0.1},
				{join: "or", internal: "Amount", op: "eq", value: 12.75},
			]
		}
	`, "ids")
	require.NoError(t, err)

	conds := spec.Query.Definition().Conditions
	require.Len(t, conds, 4)

	want := []string{"9007199254740993", "18446744073709551615", "0.1", "12.75"}
	for i, w := range want {
		assert.Equal(t, "number", ir.Kind(conds[i].Value))
		assert.Equal(t, w, conds[i].Value.String(), "where[%d]", i)
	}
}

func TestCompileQueryNoWhere(t *testing.T) {
	spec, err := compileQuerySrc(t, `
		query: all: {
			list: "Grants"
			order_by: {field: "Title"}
		}
	`, "all")
	require.NoError(t, err)

	def := spec.Query.Definition()
	assert.Empty(t, def.Conditions)
	assert.Empty(t, def.ViewFields)
	assert.Equal(t, &queryir.OrderBy{Field: ir.Display("Title"), Direction: ir.Ascending}, def.OrderBy)
}

func TestCompileQueryErrors(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "missing list",
			body:   `where: []`,
			errMsg: "list is required",
		},
		{
			name:   "join on first condition",
			body:   `list: "L", where: [{join: "and", field: "A", op: "isnull"}]`,
			errMsg: "first condition cannot have a join",
		},
		{
			name:   "missing join",
			body:   `list: "L", where: [{field: "A", op: "isnull"}, {field: "B", op: "isnull"}]`,
			errMsg: "where[1].join",
		},
		{
			name:   "bad join",
			body:   `list: "L", where: [{field: "A", op: "isnull"}, {join: "xor", field: "B", op: "isnull"}]`,
			errMsg: "unknown combinator",
		},
		{
			name:   "field and internal",
			body:   `list: "L", where: [{field: "A", internal: "A", op: "isnull"}]`,
			errMsg: "not both",
		},
		{
			name:   "no field",
			body:   `list: "L", where: [{op: "isnull"}]`,
			errMsg: "field or internal is required",
		},
		{
			name:   "missing op",
			body:   `list: "L", where: [{field: "A"}]`,
			errMsg: "op is required",
		},
		{
			name:   "unknown op",
			body:   `list: "L", where: [{field: "A", op: "like", value: "x"}]`,
			errMsg: "unknown operator",
		},
		{
			name:   "missing value",
			body:   `list: "L", where: [{field: "A", op: "eq"}]`,
			errMsg: "value is required",
		},
		{
			name:   "value on isnull",
			body:   `list: "L", where: [{field: "A", op: "isnull", value: 1}]`,
			errMsg: "takes no value",
		},
		{
			name:   "bad date",
			body:   `list: "L", where: [{field: "A", op: "eq", value: {date: "next tuesday"}}]`,
			errMsg: "cannot parse",
		},
		{
			name:   "unknown struct value",
			body:   `list: "L", where: [{field: "A", op: "eq", value: {when: "x"}}]`,
			errMsg: "{raw: ...} or {date: ...}",
		},
		{
			name:   "list value",
			body:   `list: "L", where: [{field: "A", op: "eq", value: [1, 2]}]`,
			errMsg: "unsupported value kind",
		},
		{
			name:   "bad direction",
			body:   `list: "L", order_by: {field: "A", direction: "up"}`,
			errMsg: "unknown direction",
		},
		{
			name:   "negative row limit",
			body:   `list: "L", row_limit: -1`,
			errMsg: "row_limit must be between",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileQuerySrc(t, "query: q: {"+tc.body+"}", "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
