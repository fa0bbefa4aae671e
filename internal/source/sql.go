package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/features"
)

// describe runs a metadata query whose rows are (name, type, is_nullable)
// and converts them to columns. An empty result means the table is missing.
func describe(ctx context.Context, db *sql.DB, table, query string, args ...any) ([]Column, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Source("query column metadata", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable sql.NullString
		if err := rows.Scan(&c.Name, &c.Type, &nullable); err != nil {
			return nil, apperr.Source("scan column metadata", err)
		}
		c.Nullable = strings.EqualFold(nullable.String, "YES")
		c.Kind = ClassifyType(c.Type)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Source("iterate column metadata", err)
	}
	if len(cols) == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("table %s not found", table), nil)
	}
	return cols, nil
}

// connect opens and pings a database handle.
func connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperr.Source("open "+driver+" connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperr.Source("ping "+driver, err)
	}
	return db, nil
}

// splitTable splits "schema.table", falling back to defaultSchema.
func splitTable(table, defaultSchema string) (string, string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

func requireTable(spec Spec) error {
	if strings.TrimSpace(spec.Table) == "" {
		return apperr.InvalidValue("a table name is required for %s (use --table)", spec.Path)
	}
	return nil
}

var numericTypes = map[string]struct{}{
	"INT": {}, "INTEGER": {}, "BIGINT": {}, "SMALLINT": {}, "TINYINT": {}, "MEDIUMINT": {},
	"HUGEINT": {}, "UHUGEINT": {}, "UBIGINT": {}, "UINTEGER": {}, "USMALLINT": {}, "UTINYINT": {},
	"INT1": {}, "INT2": {}, "INT4": {}, "INT8": {}, "SERIAL": {}, "BIGSERIAL": {}, "SMALLSERIAL": {},
	"REAL": {}, "FLOAT": {}, "FLOAT4": {}, "FLOAT8": {}, "DOUBLE": {}, "DOUBLE PRECISION": {},
	"DECIMAL": {}, "NUMERIC": {}, "NUMBER": {}, "MONEY": {},
}

// ClassifyType maps a declared SQL column type onto the feature
// classification. Parameters such as DECIMAL(18,3) are ignored; array and
// composite types are never numeric.
func ClassifyType(sqlType string) features.Kind {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.Join(strings.Fields(t), " ")
	switch t {
	case "BOOL", "BOOLEAN":
		return features.KindBoolean
	}
	if _, ok := numericTypes[t]; ok {
		return features.KindNumeric
	}
	// SQLite affinity: declared types ending in INT ("UNSIGNED BIG INT").
	if strings.HasSuffix(t, " INT") || strings.HasSuffix(t, " INTEGER") {
		return features.KindNumeric
	}
	return features.KindOther
}
