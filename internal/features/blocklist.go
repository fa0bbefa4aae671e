package features

import "sort"

// BaseBlocklist holds column names that leak or duplicate the price target.
// They are always excluded from feature lists.
var BaseBlocklist = []string{
	"price tier",
	"price_tier",
	"price category",
	"price_category",
	"price bin",
	"price_bin",
	"online price",
	"on line price",
	"repair_to_price",
	"predicted_price",
	"target",
}

// Blocklist is a set of excluded columns. Entries keep the data source's
// spelling when one matched; membership is tested by normalized form.
type Blocklist struct {
	entries map[string]struct{}
	norm    map[string]struct{}
}

// NewBlocklist returns a blocklist holding the given entries verbatim.
func NewBlocklist(entries ...string) *Blocklist {
	b := &Blocklist{
		entries: make(map[string]struct{}),
		norm:    make(map[string]struct{}),
	}
	for _, e := range entries {
		b.Add(e)
	}
	return b
}

// ResolveBlocklist unions BaseBlocklist with extra and rewrites every entry
// that matches a column of src to that column's actual spelling. Entries that
// match nothing are kept as given.
func ResolveBlocklist(src DataSource, extra []string) *Blocklist {
	idx := newColumnIndex(src.Columns())
	b := NewBlocklist()
	for _, set := range [][]string{BaseBlocklist, extra} {
		for _, entry := range set {
			if actual, ok := idx.norm[Normalize(entry)]; ok {
				b.Add(actual)
				continue
			}
			b.Add(entry)
		}
	}
	return b
}

// Add records name as blocklisted.
func (b *Blocklist) Add(name string) {
	b.entries[name] = struct{}{}
	b.norm[Normalize(name)] = struct{}{}
}

// Contains reports whether name normalizes to a blocklisted entry.
func (b *Blocklist) Contains(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.norm[Normalize(name)]
	return ok
}

// Len returns the number of distinct stored entries.
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Entries returns the stored spellings sorted lexicographically.
func (b *Blocklist) Entries() []string {
	if b == nil {
		return []string{}
	}
	out := make([]string, 0, len(b.entries))
	for e := range b.entries {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
