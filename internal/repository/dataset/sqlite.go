package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

func readSQLite(ctx context.Context, path, table string, columns []string) ([][]string, []int, error) {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("stat: %w", err)
	}

	conn, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	header, err := tableColumns(ctx, conn, table)
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("table %q not found", table)
	}
	idx, missing := resolveColumns(header, columns)

	selects := make([]string, len(columns))
	for i, c := range idx {
		if c < 0 {
			selects[i] = "''"
			continue
		}
		selects[i] = fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", quoteIdent(header[c]))
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", //nolint:gosec // identifiers are quoted
		strings.Join(selects, ", "), quoteIdent(table))

	rs, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rs.Close() }()

	var rows [][]string
	for rs.Next() {
		row := make([]string, len(columns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rows, missing, nil
}

func tableColumns(ctx context.Context, conn *sql.DB, table string) ([]string, error) {
	rs, err := conn.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer func() { _ = rs.Close() }()

	var cols []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
