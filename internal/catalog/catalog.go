package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
)

// Entry describes one field of a list schema.
type Entry struct {
	Title        string `json:"title" yaml:"title"`
	InternalName string `json:"internal" yaml:"internal"`
	Type         string `json:"type" yaml:"type"`
}

// Catalog is a read-only snapshot of a list's fields.
//
// A Catalog is unique by internal name. Display titles are not guaranteed
// to be unique and are only checked when a display-kind reference is
// resolved. Catalogs are never mutated after New returns and may be shared
// between goroutines.
type Catalog struct {
	entries    []Entry
	byInternal map[string]int
	byTitle    map[string][]int // exact title -> entry indexes
	byNFC      map[string][]int // NFC title -> entry indexes, for diagnostics
}

// New builds a Catalog snapshot from entries.
// Returns a *DuplicateInternalNameError if two entries share an internal name.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries:    make([]Entry, len(entries)),
		byInternal: make(map[string]int, len(entries)),
		byTitle:    make(map[string][]int, len(entries)),
		byNFC:      make(map[string][]int, len(entries)),
	}
	copy(c.entries, entries)

	for i, e := range c.entries {
		if _, dup := c.byInternal[e.InternalName]; dup {
			return nil, &DuplicateInternalNameError{InternalName: e.InternalName}
		}
		c.byInternal[e.InternalName] = i
		c.byTitle[e.Title] = append(c.byTitle[e.Title], i)
		key := norm.NFC.String(e.Title)
		c.byNFC[key] = append(c.byNFC[key], i)
	}

	return c, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of fields in the snapshot.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the snapshot's entries in their original order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Resolve maps a field reference to its internal name.
//
// Internal-kind names are returned unchanged without any lookup. Display-kind
// names must match exactly one entry title byte for byte; zero matches
// yield *UnknownFieldError and several yield *AmbiguousDisplayNameError.
func (c *Catalog) Resolve(f ir.FieldName) (string, error) {
	if f.Kind == ir.Internal {
		return f.Name, nil
	}

	matches := c.byTitle[f.Name]
	switch len(matches) {
	case 0:
		return "", &UnknownFieldError{Name: f.Name, Kind: f.Kind, Equivalent: c.equivalentTitles(f.Name)}
	case 1:
		return c.entries[matches[0]].InternalName, nil
	default:
		return "", &AmbiguousDisplayNameError{DisplayName: f.Name, Matches: len(matches)}
	}
}

// Lookup returns the entry for an internal name.
func (c *Catalog) Lookup(internalName string) (Entry, bool) {
	i, ok := c.byInternal[internalName]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// TypeOf returns the declared value type of an internal name.
func (c *Catalog) TypeOf(internalName string) (string, error) {
	e, ok := c.Lookup(internalName)
	if !ok {
		return "", &UnknownFieldError{Name: internalName, Kind: ir.Internal}
	}
	return e.Type, nil
}

// equivalentTitles returns the titles that spell name in another Unicode
// normalization form. They never match, but are worth pointing out.
func (c *Catalog) equivalentTitles(name string) []string {
	var out []string
	for _, i := range c.byNFC[norm.NFC.String(name)] {
		out = append(out, c.entries[i].Title)
	}
	return out
}

// Provider supplies the field schema of a list.
// Implementations perform whatever I/O is needed to read the schema.
type Provider interface {
	Fields(ctx context.Context, list string) ([]Entry, error)
}

// Snapshot reads a list's schema from p and freezes it into a Catalog.
func Snapshot(ctx context.Context, p Provider, list string) (*Catalog, error) {
	entries, err := p.Fields(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("read fields of list %q: %w", list, err)
	}

	c, err := New(entries...)
	if err != nil {
		return nil, fmt.Errorf("snapshot list %q: %w", list, err)
	}

	slog.Debug("catalog snapshot", "list", list, "fields", c.Len())
	return c, nil
}

// Static is an in-memory Provider keyed by list name.
type Static map[string][]Entry

// Fields implements Provider.
func (s Static) Fields(_ context.Context, list string) ([]Entry, error) {
	entries, ok := s[list]
	if !ok {
		return nil, &UnknownListError{List: list}
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Chain is a Provider that asks each provider in turn and returns the first
// schema found. Only unknown-list errors fall through to the next provider.
type Chain []Provider

// Fields implements Provider.
func (c Chain) Fields(ctx context.Context, list string) ([]Entry, error) {
	for _, p := range c {
		entries, err := p.Fields(ctx, list)
		if err == nil {
			return entries, nil
		}
		if !IsUnknownList(err) {
			return nil, err
		}
	}
	return nil, &UnknownListError{List: list}
}
