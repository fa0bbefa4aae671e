package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/schemalock-cli/internal/features"
)

// Column kinds inferred from cell values.
const (
	KindNumeric     = "numeric"
	KindBoolean     = "boolean"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Options controls profiling of tabular data.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SampleRows: 5,
	}
}

// Profile describes the columns of a tabular file. It implements
// features.DataSource: numeric and boolean columns are candidates for
// automatic numeric features.
type Profile struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnProfile
	Samples   [][]string
	Warnings  []string

	kinds map[string]features.Kind
}

// ColumnProfile captures the inferred kind and statistics of one column.
type ColumnProfile struct {
	// Name is the header exactly as it appears in the file.
	Name    string
	Kind    string
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// Columns returns the header names in file order.
func (p *Profile) Columns() []string {
	out := make([]string, len(p.Cols))
	for i, c := range p.Cols {
		out[i] = c.Name
	}
	return out
}

// Kind maps the inferred kind of column onto the feature classification.
func (p *Profile) Kind(column string) features.Kind {
	if p.kinds == nil {
		p.kinds = make(map[string]features.Kind, len(p.Cols))
		for _, c := range p.Cols {
			p.kinds[c.Name] = featureKind(c.Kind)
		}
	}
	return p.kinds[column]
}

func featureKind(kind string) features.Kind {
	switch kind {
	case KindNumeric:
		return features.KindNumeric
	case KindBoolean:
		return features.KindBoolean
	default:
		return features.KindOther
	}
}

// colAcc accumulates values for one column.
type colAcc struct {
	name   string
	unit   string
	nonNil int
	miss   int

	// numeric stats via Welford
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64

	numCnt  int
	boolCnt int
	dtCnt   int
	txtCnt  int
	cats    map[string]int
	exText  []string
}

// profiler turns a header and a stream of rows into a Profile. CSV and XLSX
// readers share it.
type profiler struct {
	opt     Options
	cols    []*colAcc
	rep     *Profile
	maxRows int
}

func newProfiler(name string, header []string, opt Options) *profiler {
	cols := make([]*colAcc, len(header))
	for i, h := range header {
		_, unit := splitUnits(h)
		cols[i] = &colAcc{name: h, unit: unit, min: math.Inf(1), max: math.Inf(-1), cats: make(map[string]int)}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	if opt.SampleRows < 0 {
		opt.SampleRows = 0
	}
	return &profiler{opt: opt, cols: cols, rep: &Profile{Name: name}, maxRows: maxRows}
}

func (p *profiler) add(rec []string) {
	ncol := len(p.cols)
	p.rep.Rows++
	if len(rec) < ncol {
		tmp := make([]string, ncol)
		copy(tmp, rec)
		rec = tmp
	}
	if p.rep.Processed >= p.maxRows {
		return
	}
	p.rep.Processed++
	if len(p.rep.Samples) < p.opt.SampleRows {
		row := make([]string, ncol)
		copy(row, rec[:ncol])
		p.rep.Samples = append(p.rep.Samples, row)
	}
	for j, c := range p.cols {
		v := strings.TrimSpace(rec[j])
		if v == "" {
			c.miss++
			continue
		}
		c.nonNil++
		if strings.Contains(v, "%") && c.unit == "" {
			c.unit = "%"
		}
		if parseBool(v) {
			c.boolCnt++
			continue
		}
		if x, ok := parseNumeric(v, p.opt); ok {
			c.numCnt++
			c.n++
			if x < c.min {
				c.min = x
			}
			if x > c.max {
				c.max = x
			}
			delta := x - c.mean
			c.mean += delta / float64(c.n)
			c.m2 += delta * (x - c.mean)
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			c.dtCnt++
			continue
		}
		c.txtCnt++
		if len(c.cats) <= 10000 && len(v) <= 64 {
			c.cats[v]++
		}
		if len(c.exText) < 3 {
			c.exText = append(c.exText, v)
		}
	}
}

// finish decides each column's kind. A column is numeric or boolean only
// when every non-empty value parses as such; mixed columns fall back to the
// predominant non-numeric kind.
func (p *profiler) finish() *Profile {
	rep := p.rep
	rep.Cols = make([]ColumnProfile, 0, len(p.cols))
	for _, c := range p.cols {
		s := ColumnProfile{Name: c.name, Unit: c.unit, NonNull: c.nonNil, Missing: c.miss}
		switch {
		case c.nonNil == 0:
			s.Kind = KindUnknown
		case c.boolCnt == c.nonNil:
			s.Kind = KindBoolean
		case c.numCnt == c.nonNil:
			s.Kind = KindNumeric
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
		case c.dtCnt >= c.txtCnt && c.dtCnt > 0:
			s.Kind = KindDatetime
		case len(c.cats) > 0:
			s.Kind = KindCategorical
			s.TopValues = topValues(c.cats, 8)
			s.Unique = len(c.cats)
		default:
			s.Kind = KindText
			s.ExampleTexts = c.exText
		}
		if s.Kind == KindText && len(c.exText) == 0 {
			s.Kind = KindUnknown
		}
		rep.Cols = append(rep.Cols, s)
	}
	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}
	return rep
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|km|mi|%|ppm|ppb|USD|EUR)$`), 2},
}

// splitUnits extracts a unit suffix from a header for display. The header
// itself is never rewritten: feature names must match the file.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
