package source

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

type postgresOpener struct{}

func (postgresOpener) CanOpen(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "postgres://") || strings.HasPrefix(p, "postgresql://")
}

func (postgresOpener) Open(ctx context.Context, spec Spec) (*Table, error) {
	if err := requireTable(spec); err != nil {
		return nil, err
	}
	db, err := connect(ctx, "pgx", spec.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	host := ""
	if u, err := url.Parse(spec.Path); err == nil {
		host = u.Host
	}
	spec.Logger.Debug("describing postgres table", slog.String("host", host), slog.String("table", spec.Table))
	cols, err := postgresColumns(ctx, db, spec.Table)
	if err != nil {
		return nil, err
	}
	return &Table{Name: spec.Table, Cols: cols}, nil
}

const postgresColumnsQuery = `
	SELECT
		column_name,
		data_type,
		is_nullable
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position
`

func postgresColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	schema, name := splitTable(table, "public")
	return describe(ctx, db, table, postgresColumnsQuery, schema, name)
}
