// Package features resolves requested feature columns against a dataset,
// strips target-leaking columns and discovers extra numeric features.
package features

const (
	// DefaultTarget is the label column that never becomes a feature.
	DefaultTarget = "price"
	// DefaultPartColumn is the part-identifier column dropped by DropPart.
	DefaultPartColumn = "part"
)

// Options controls a Sanitize call.
type Options struct {
	// Blocklist extends BaseBlocklist.
	Blocklist []string
	// DropPart excludes the part-identifier column from both lists.
	DropPart bool
	// Target overrides DefaultTarget when non-empty.
	Target string
	// PartColumn overrides DefaultPartColumn when non-empty.
	PartColumn string
}

// Result is the sanitized feature schema.
type Result struct {
	Categorical []string
	Numerical   []string
	Blocklist   *Blocklist
	// Unresolved lists requested names that matched no column, in request
	// order. They are dropped, not treated as errors.
	Unresolved []string
}

// Sanitize resolves rawCategorical and rawNumerical against src, drops
// blocklisted, target and (optionally) part columns, and appends numeric or
// boolean columns of src not already selected to the numerical list.
//
// Columns that were requested or discovered but turned out to be blocklisted
// are added to the returned blocklist in their actual spelling.
func Sanitize(src DataSource, rawCategorical, rawNumerical []string, opts Options) Result {
	r := newResolver(src, opts)
	cat := r.resolveList(rawCategorical, nil)
	catNorm := make(map[string]struct{}, len(cat))
	for _, c := range cat {
		catNorm[Normalize(c)] = struct{}{}
	}
	num := r.resolveList(rawNumerical, catNorm)
	num = r.discoverNumeric(num, catNorm)
	if cat == nil {
		cat = []string{}
	}
	return Result{
		Categorical: cat,
		Numerical:   num,
		Blocklist:   r.blocklist,
		Unresolved:  r.unresolved,
	}
}

type resolver struct {
	src        DataSource
	idx        columnIndex
	blocklist  *Blocklist
	target     string
	part       string
	dropPart   bool
	unresolved []string
}

func newResolver(src DataSource, opts Options) *resolver {
	target := opts.Target
	if target == "" {
		target = DefaultTarget
	}
	part := opts.PartColumn
	if part == "" {
		part = DefaultPartColumn
	}
	return &resolver{
		src:       src,
		idx:       newColumnIndex(src.Columns()),
		blocklist: ResolveBlocklist(src, opts.Blocklist),
		target:    Normalize(target),
		part:      Normalize(part),
		dropPart:  opts.DropPart,
	}
}

// excluded applies the rules shared by explicit and discovered columns. It
// records blocklisted columns as a side effect.
func (r *resolver) excluded(col string, skip map[string]struct{}) bool {
	n := Normalize(col)
	if r.dropPart && n == r.part {
		return true
	}
	if _, ok := skip[n]; ok {
		return true
	}
	if n == r.target {
		return true
	}
	if r.blocklist.Contains(col) {
		r.blocklist.Add(col)
		return true
	}
	return false
}

// resolveList maps raw names onto actual columns, keeping first-seen order.
// Columns whose normalized form is in skip are dropped.
func (r *resolver) resolveList(raw []string, skip map[string]struct{}) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(raw))
	for _, name := range raw {
		col, ok := r.idx.resolve(name)
		if !ok {
			r.unresolved = append(r.unresolved, name)
			continue
		}
		if r.excluded(col, skip) {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return out
}

// discoverNumeric appends numeric and boolean columns of the data source, in
// column order, that pass the exclusion rules and are not yet in num.
func (r *resolver) discoverNumeric(num []string, catNorm map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(num))
	for _, c := range num {
		seen[c] = struct{}{}
	}
	for _, col := range r.src.Columns() {
		switch r.src.Kind(col) {
		case KindNumeric, KindBoolean:
		default:
			continue
		}
		if r.excluded(col, catNorm) {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		num = append(num, col)
	}
	return num
}
