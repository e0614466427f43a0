package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/query"
	"github.com/ChrisPritchard/FluentSharepoint/internal/testutil"
)

func TestSaveList_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	fields := testutil.GrantsFields()

	if err := s.SaveList(ctx, "Grants", fields); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}

	got, err := s.Fields(ctx, "Grants")
	if err != nil {
		t.Fatalf("Fields() failed: %v", err)
	}
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("Fields() = %v, want %v", got, fields)
	}
}

func TestSaveList_ReplacesFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Grants", testutil.GrantsFields()); err != nil {
		t.Fatalf("first SaveList() failed: %v", err)
	}
	replacement := []catalog.Entry{{Title: "Title", InternalName: "Title", Type: "Text"}}
	if err := s.SaveList(ctx, "Grants", replacement); err != nil {
		t.Fatalf("second SaveList() failed: %v", err)
	}

	got, err := s.Fields(ctx, "Grants")
	if err != nil {
		t.Fatalf("Fields() failed: %v", err)
	}
	if !reflect.DeepEqual(got, replacement) {
		t.Errorf("Fields() = %v, want %v", got, replacement)
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists() failed: %v", err)
	}
	want := []ListInfo{{ID: "list-0001", Name: "Grants", Revision: 2, Fields: 1}}
	if !reflect.DeepEqual(lists, want) {
		t.Errorf("Lists() = %+v, want %+v", lists, want)
	}
}

func TestSaveList_RejectsDuplicateInternalNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.SaveList(ctx, "Grants", []catalog.Entry{
		{Title: "A", InternalName: "X", Type: "Text"},
		{Title: "B", InternalName: "X", Type: "Text"},
	})
	var dup *catalog.DuplicateInternalNameError
	if !errors.As(err, &dup) {
		t.Fatalf("SaveList() error = %v, want DuplicateInternalNameError", err)
	}

	if _, err := s.Fields(ctx, "Grants"); !errors.Is(err, ErrListNotFound) {
		t.Errorf("rejected save left a list behind: %v", err)
	}
}

func TestSaveList_EmptyName(t *testing.T) {
	s := createTestStore(t)
	if err := s.SaveList(context.Background(), "", testutil.GrantsFields()); err == nil {
		t.Error("expected error for empty list name")
	}
}

func TestSaveList_EmptySchema(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Empty", nil); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}
	got, err := s.Fields(ctx, "Empty")
	if err != nil {
		t.Fatalf("Fields() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Fields() = %#v, want empty non-nil slice", got)
	}
}

func TestFields_UnknownList(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Fields(context.Background(), "Budgets")
	if !errors.Is(err, ErrListNotFound) {
		t.Errorf("Fields() error = %v, want ErrListNotFound", err)
	}
}

func TestFields_UnknownListMatchesCatalog(t *testing.T) {
	s := createTestStore(t)

	_, err := catalog.Snapshot(context.Background(), s, "Budgets")
	if !catalog.IsUnknownList(err) {
		t.Errorf("Snapshot() error = %v, want catalog.IsUnknownList", err)
	}
}

func TestFields_ListNamesAreCaseSensitive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Grants", testutil.GrantsFields()); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}
	if _, err := s.Fields(ctx, "grants"); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Fields(grants) error = %v, want ErrListNotFound", err)
	}
}

func TestLists_OrderedByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Grants", "Budgets", "Contacts"} {
		if err := s.SaveList(ctx, name, testutil.GrantsFields()[:2]); err != nil {
			t.Fatalf("SaveList(%q) failed: %v", name, err)
		}
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists() failed: %v", err)
	}

	var names []string
	for _, l := range lists {
		names = append(names, l.Name)
	}
	want := []string{"Budgets", "Contacts", "Grants"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Lists() names = %v, want %v", names, want)
	}
}

func TestLists_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	lists, err := s.Lists(context.Background())
	if err != nil {
		t.Fatalf("Lists() failed: %v", err)
	}
	if lists == nil || len(lists) != 0 {
		t.Errorf("Lists() = %#v, want empty non-nil slice", lists)
	}
}

func TestDeleteList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Grants", testutil.GrantsFields()); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}
	if err := s.DeleteList(ctx, "Grants"); err != nil {
		t.Fatalf("DeleteList() failed: %v", err)
	}

	if _, err := s.Fields(ctx, "Grants"); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Fields() after delete error = %v, want ErrListNotFound", err)
	}

	var orphans int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fields").Scan(&orphans); err != nil {
		t.Fatalf("count fields: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d field rows survived the cascade", orphans)
	}

	if err := s.DeleteList(ctx, "Grants"); !errors.Is(err, ErrListNotFound) {
		t.Errorf("second DeleteList() error = %v, want ErrListNotFound", err)
	}
}

func TestStore_AsCatalogProvider(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Grants", testutil.GrantsFields()); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}

	c, err := query.On("Grants").
		When("Fund").IsEqualTo("Fellowships").
		WithViewContaining("Contract").Only().
		Finally(ctx, s)
	if err != nil {
		t.Fatalf("Finally() failed: %v", err)
	}

	f, err := c.Fragments()
	if err != nil {
		t.Fatalf("Fragments() failed: %v", err)
	}
	if want := `<FieldRef Name="Contract_x0020_Ref" />`; f.View != want {
		t.Errorf("View = %q, want %q", f.View, want)
	}
	if want := `<Where><Eq><FieldRef Name="Fund_x002d_Name" /><Value Type="Text">Fellowships</Value></Eq></Where>`; f.Filter != want {
		t.Errorf("Filter = %q, want %q", f.Filter, want)
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveList(ctx, "Grants", testutil.GrantsFields()); err != nil {
		t.Fatalf("SaveList() failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := catalog.Snapshot(ctx, s, "Grants"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent snapshot failed: %v", err)
	}
}
