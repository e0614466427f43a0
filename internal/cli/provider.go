package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
	"github.com/ChrisPritchard/FluentSharepoint/internal/compiler"
	"github.com/ChrisPritchard/FluentSharepoint/internal/store"
)

// ErrNoStore is returned by openStore when the database file does not exist.
var ErrNoStore = errors.New("catalog store not found")

// openStore opens an existing catalog store. Commands that only read the
// store never create one as a side effect.
func openStore(path string) (*store.Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNoStore
			}
			return nil, err
		}
	}
	return store.Open(path)
}

// declaredCatalog returns the lists a bundle declares as a static provider.
func declaredCatalog(bundle *compiler.Bundle) catalog.Static {
	static := make(catalog.Static, len(bundle.Lists))
	for _, l := range bundle.Lists {
		static[l.Name] = l.Fields
	}
	return static
}

// resolveProvider chains the lists declared in bundle ahead of the store at
// db. A missing store is not an error: queries against declared lists still
// compile. The returned close func is never nil.
func resolveProvider(bundle *compiler.Bundle, db string) (catalog.Provider, func(), error) {
	chain := catalog.Chain{declaredCatalog(bundle)}

	st, err := openStore(db)
	switch {
	case errors.Is(err, ErrNoStore):
		slog.Debug("no catalog store, using declared lists only", "db", db)
		return chain, func() {}, nil
	case err != nil:
		return nil, func() {}, err
	}

	slog.Debug("using catalog store", "db", db)
	return append(chain, st), func() { st.Close() }, nil
}
