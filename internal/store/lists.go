package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
)

// ErrListNotFound is returned when a list has never been saved.
// It matches catalog.ErrUnknownList, so the store can sit in a catalog.Chain.
var ErrListNotFound = fmt.Errorf("list not found: %w", catalog.ErrUnknownList)

// ListInfo summarises a stored list.
type ListInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Revision int64  `json:"revision"`
	Fields   int    `json:"fields"`
}

// SaveList stores the schema of list, replacing any fields saved before.
//
// The entries are checked with catalog.New first, so a schema the store
// accepts always yields a valid snapshot. Saving an existing list keeps its
// ID and increments its revision. The replacement is atomic.
func (s *Store) SaveList(ctx context.Context, name string, entries []catalog.Entry) error {
	if name == "" {
		return fmt.Errorf("save list: name is required")
	}
	if _, err := catalog.New(entries...); err != nil {
		return fmt.Errorf("save list %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save list %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM lists WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = s.ids.Generate()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lists (id, name, revision) VALUES (?, ?, 1)`, id, name); err != nil {
			return fmt.Errorf("save list %q: insert: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("save list %q: lookup: %w", name, err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE lists SET revision = revision + 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("save list %q: update: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM fields WHERE list_id = ?`, id); err != nil {
			return fmt.Errorf("save list %q: clear fields: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fields (list_id, position, title, internal, type)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save list %q: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.Title, e.InternalName, e.Type); err != nil {
			return fmt.Errorf("save list %q: field %q: %w", name, e.InternalName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save list %q: commit: %w", name, err)
	}

	slog.Debug("saved list schema", "list", name, "id", id, "fields", len(entries))
	return nil
}

// Fields returns the stored fields of list in the order they were saved.
// Implements catalog.Provider.
func (s *Store) Fields(ctx context.Context, list string) ([]catalog.Entry, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE name = ?`, list).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %q: %w", list, ErrListNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query list %q: %w", list, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT title, internal, type
		FROM fields
		WHERE list_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query fields of %q: %w", list, err)
	}
	defer rows.Close()

	entries := []catalog.Entry{}
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.Title, &e.InternalName, &e.Type); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}

	return entries, nil
}

// Lists returns every stored list, ordered by name.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) Lists(ctx context.Context) ([]ListInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.revision, COUNT(f.position)
		FROM lists l
		LEFT JOIN fields f ON f.list_id = l.id
		GROUP BY l.id, l.name, l.revision
		ORDER BY l.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	lists := []ListInfo{}
	for rows.Next() {
		var li ListInfo
		if err := rows.Scan(&li.ID, &li.Name, &li.Revision, &li.Fields); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}

	return lists, nil
}

// DeleteList removes a list and its fields.
func (s *Store) DeleteList(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete list %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete list %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("list %q: %w", name, ErrListNotFound)
	}
	return nil
}

var _ catalog.Provider = (*Store)(nil)
