package testutil

import "github.com/ChrisPritchard/FluentSharepoint/internal/catalog"

// GrantsList is the name of the fixture list returned by GrantsProvider.
const GrantsList = "Grants"

// GrantsFields returns the field schema of the fixture list.
//
// "Status" is deliberately declared twice so tests can exercise ambiguous
// display names; every other title is unique.
func GrantsFields() []catalog.Entry {
	return []catalog.Entry{
		{Title: "Title", InternalName: "Title", Type: "Text"},
		{Title: "Fund", InternalName: "Fund_x002d_Name", Type: "Text"},
		{Title: "Contract", InternalName: "Contract_x0020_Ref", Type: "Text"},
		{Title: "Closes", InternalName: "CloseDate", Type: "DateTime"},
		{Title: "Active", InternalName: "IsActive", Type: "Boolean"},
		{Title: "Amount", InternalName: "Amount", Type: "Number"},
		{Title: "Modified", InternalName: "Modified", Type: "DateTime"},
		{Title: "Status", InternalName: "Status", Type: "Choice"},
		{Title: "Status", InternalName: "Status0", Type: "Text"},
	}
}

// GrantsProvider returns an in-memory catalog.Provider serving GrantsFields.
func GrantsProvider() catalog.Static {
	return catalog.Static{GrantsList: GrantsFields()}
}

// GrantsCatalog returns a snapshot of GrantsFields.
func GrantsCatalog() *catalog.Catalog {
	return catalog.MustNew(GrantsFields()...)
}
