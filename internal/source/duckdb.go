package source

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

type duckdbOpener struct{}

func (duckdbOpener) CanOpen(path string) bool {
	if _, ok := trimScheme(path, "duckdb"); ok {
		return true
	}
	return hasSuffixFold(path, ".duckdb")
}

func (duckdbOpener) Open(ctx context.Context, spec Spec) (*Table, error) {
	path, _ := trimScheme(spec.Path, "duckdb")
	if err := requireTable(spec); err != nil {
		return nil, err
	}
	if err := requireFile(path); err != nil {
		return nil, err
	}
	db, err := connect(ctx, "duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	spec.Logger.Debug("describing duckdb table", slog.String("path", path), slog.String("table", spec.Table))
	cols, err := duckdbColumns(ctx, db, spec.Table)
	if err != nil {
		return nil, err
	}
	return &Table{Name: filepath.Base(path) + ":" + spec.Table, Cols: cols}, nil
}

const duckdbColumnsQuery = `
	SELECT
		column_name,
		data_type,
		is_nullable
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ?
	ORDER BY ordinal_position
`

func duckdbColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	schema, name := splitTable(table, "main")
	return describe(ctx, db, table, duckdbColumnsQuery, schema, name)
}

// parquetOpener reads the schema of a Parquet file through an in-memory
// DuckDB connection.
type parquetOpener struct{}

func (parquetOpener) CanOpen(path string) bool { return hasSuffixFold(path, ".parquet") }

func (parquetOpener) Open(ctx context.Context, spec Spec) (*Table, error) {
	if err := requireFile(spec.Path); err != nil {
		return nil, err
	}
	db, err := connect(ctx, "duckdb", "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	spec.Logger.Debug("describing parquet file", slog.String("path", spec.Path))
	cols, err := parquetColumns(ctx, db, spec.Path)
	if err != nil {
		return nil, err
	}
	return &Table{Name: filepath.Base(spec.Path), Cols: cols}, nil
}

// DESCRIBE does not take bind parameters, so the path is inlined as a
// quoted string literal.
func parquetColumns(ctx context.Context, db *sql.DB, path string) ([]Column, error) {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	query := `SELECT column_name, column_type, "null" FROM (DESCRIBE SELECT * FROM read_parquet(` + literal + `))`
	return describe(ctx, db, path, query)
}
