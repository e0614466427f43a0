package caml

// RecursiveScope is the view attribute that makes a query ignore folders.
const RecursiveScope = "Scope='Recursive'"

// QueryOptions are the execution parameters that are not part of the
// definition itself.
type QueryOptions struct {
	RowLimit  *uint32 // nil = no limit
	Recursive bool    // search all folders instead of one level
}

// WithRowLimit returns a copy of o with the row limit set to n.
func (o QueryOptions) WithRowLimit(n uint32) QueryOptions {
	o.RowLimit = &n
	return o
}

// Query is the parameter set handed to the list query API.
type Query struct {
	Text           string  `json:"query"`
	ViewFields     string  `json:"view_fields"`
	RowLimit       *uint32 `json:"row_limit,omitempty"`
	ViewAttributes string  `json:"view_attributes,omitempty"`
	Folder         string  `json:"folder,omitempty"`
}

// Query compiles the definition into a ready-to-execute query envelope.
func (c *Compiler) Query(opts QueryOptions) (Query, error) {
	f, err := c.Fragments()
	if err != nil {
		return Query{}, err
	}

	q := Query{
		Text:       f.QueryText(),
		ViewFields: f.View,
		Folder:     c.def.FolderPath(),
	}
	if opts.RowLimit != nil {
		limit := *opts.RowLimit
		q.RowLimit = &limit
	}
	if opts.Recursive {
		q.ViewAttributes = RecursiveScope
	}

	return q, nil
}
