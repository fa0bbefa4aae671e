// Package source opens datasets (files or database tables) and exposes their
// column layout for feature resolution.
package source

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/KaramelBytes/schemalock-cli/internal/analysis"
	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/features"
)

// Spec identifies a dataset.
type Spec struct {
	// Path is a file path or a URL-style reference ("sqlite:data.db",
	// "duckdb:warehouse.duckdb", "postgres://...").
	Path string
	// Table is required for database sources; "schema.table" is accepted.
	Table      string
	Sheet      string
	SheetIndex int
	Delimiter  rune
	Profile    analysis.Options
	Logger     *slog.Logger
}

// Column is one column of a dataset.
type Column struct {
	Name     string
	Type     string
	Kind     features.Kind
	Nullable bool
}

// Table is the column layout of an opened dataset. It implements
// features.DataSource.
type Table struct {
	Name string
	Cols []Column
	// Profile is set for file sources that were scanned row by row.
	Profile *analysis.Profile
}

// Columns returns column names in dataset order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		out[i] = c.Name
	}
	return out
}

// Kind returns the classification of column, KindOther when unknown.
func (t *Table) Kind(column string) features.Kind {
	for _, c := range t.Cols {
		if c.Name == column {
			return c.Kind
		}
	}
	return features.KindOther
}

// Opener opens one family of datasets.
type Opener interface {
	CanOpen(path string) bool
	Open(ctx context.Context, spec Spec) (*Table, error)
}

var registry []Opener

// Register adds an opener to the registry.
func Register(o Opener) {
	registry = append(registry, o)
}

// Open selects an opener based on spec.Path and returns the dataset layout.
func Open(ctx context.Context, spec Spec) (*Table, error) {
	if strings.TrimSpace(spec.Path) == "" {
		return nil, apperr.InvalidValue("dataset path is required")
	}
	if spec.Logger == nil {
		spec.Logger = slog.New(slog.DiscardHandler)
	}
	if spec.Profile == (analysis.Options{}) {
		spec.Profile = analysis.DefaultOptions()
	}
	for _, o := range registry {
		if o.CanOpen(spec.Path) {
			t, err := o.Open(ctx, spec)
			if err != nil {
				return nil, err
			}
			if len(t.Cols) == 0 {
				return nil, apperr.InvalidValue("dataset %s has no columns", t.Name)
			}
			return t, nil
		}
	}
	return nil, apperr.Unsupported("unsupported dataset %q (expected .csv, .tsv, .xlsx, .parquet, sqlite:, duckdb: or postgres://)", spec.Path)
}

func init() {
	Register(csvOpener{})
	Register(xlsxOpener{})
	Register(sqliteOpener{})
	Register(duckdbOpener{})
	Register(parquetOpener{})
	Register(postgresOpener{})
}

// LocalPath returns the file behind a dataset reference, stripping the
// "sqlite:" and "duckdb:" schemes. Network references report false.
func LocalPath(ref string) (string, bool) {
	if (postgresOpener{}).CanOpen(ref) {
		return "", false
	}
	for _, scheme := range []string{"sqlite", "duckdb"} {
		if p, ok := trimScheme(ref, scheme); ok {
			return p, p != ""
		}
	}
	return ref, strings.TrimSpace(ref) != ""
}

// requireFile reports a not-found error for a missing local file.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("dataset not found: "+path, err)
		}
		return apperr.Source("stat dataset", err)
	}
	return nil
}

func hasSuffixFold(path string, exts ...string) bool {
	p := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(p, e) {
			return true
		}
	}
	return false
}

// trimScheme strips a "scheme:" prefix, reporting whether it was present.
func trimScheme(path, scheme string) (string, bool) {
	prefix := scheme + ":"
	if len(path) >= len(prefix) && strings.EqualFold(path[:len(prefix)], prefix) {
		return strings.TrimPrefix(path[len(prefix):], "//"), true
	}
	return path, false
}

func fromProfile(p *analysis.Profile) *Table {
	t := &Table{Name: p.Name, Profile: p, Cols: make([]Column, len(p.Cols))}
	for i, c := range p.Cols {
		t.Cols[i] = Column{Name: c.Name, Type: c.Kind, Kind: p.Kind(c.Name), Nullable: c.Missing > 0}
	}
	return t
}
