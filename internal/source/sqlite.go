package source

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
)

type sqliteOpener struct{}

func (sqliteOpener) CanOpen(path string) bool {
	if _, ok := trimScheme(path, "sqlite"); ok {
		return true
	}
	return hasSuffixFold(path, ".db", ".sqlite", ".sqlite3")
}

func (sqliteOpener) Open(ctx context.Context, spec Spec) (*Table, error) {
	path, _ := trimScheme(spec.Path, "sqlite")
	if err := requireTable(spec); err != nil {
		return nil, err
	}
	if err := requireFile(path); err != nil {
		return nil, err
	}
	dsn, err := sqliteURI(path, "ro")
	if err != nil {
		return nil, err
	}
	db, err := connect(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	spec.Logger.Debug("describing sqlite table", slog.String("path", path), slog.String("table", spec.Table))
	cols, err := sqliteColumns(ctx, db, spec.Table)
	if err != nil {
		return nil, err
	}
	return &Table{Name: filepath.Base(path) + ":" + spec.Table, Cols: cols}, nil
}

// sqliteURI builds a "file:" URI so that '?' and '#' in the path are
// escaped instead of read as query or fragment.
func sqliteURI(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", apperr.Source("resolve sqlite path", err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: url.Values{"mode": {mode}}.Encode()}
	return u.String(), nil
}

const sqliteColumnsQuery = `
	SELECT
		name,
		type,
		CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END
	FROM pragma_table_info(?)
	ORDER BY cid
`

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	return describe(ctx, db, table, sqliteColumnsQuery, table)
}
