package features

// Kind classifies a column's data type as far as feature selection cares.
type Kind int

const (
	KindOther Kind = iota
	KindNumeric
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	default:
		return "other"
	}
}

// DataSource is the read-only view of a tabular dataset the sanitizer needs:
// ordered column names and a per-column kind.
type DataSource interface {
	Columns() []string
	Kind(column string) Kind
}

// Columns is a DataSource backed by an ordered slice of names and a kind map.
// Columns absent from Kinds are KindOther.
type Columns struct {
	Names []string
	Kinds map[string]Kind
}

func (c Columns) Columns() []string { return c.Names }

func (c Columns) Kind(column string) Kind { return c.Kinds[column] }

// columnIndex maps normalized names to the data source's spelling. When two
// columns normalize to the same form the later one wins.
type columnIndex struct {
	exact map[string]struct{}
	norm  map[string]string
}

func newColumnIndex(cols []string) columnIndex {
	idx := columnIndex{
		exact: make(map[string]struct{}, len(cols)),
		norm:  make(map[string]string, len(cols)),
	}
	for _, c := range cols {
		idx.exact[c] = struct{}{}
		idx.norm[Normalize(c)] = c
	}
	return idx
}

// resolve prefers an exact match, then the normalized lookup.
func (idx columnIndex) resolve(name string) (string, bool) {
	if _, ok := idx.exact[name]; ok {
		return name, true
	}
	actual, ok := idx.norm[Normalize(name)]
	return actual, ok
}
