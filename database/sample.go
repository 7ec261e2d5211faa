package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
)

var _ Sampler = (*SQLStore)(nil)

// tableRef quotes table for use in a statement. Configured tables are
// validated identifiers and may be schema-qualified; any other name is taken
// verbatim from the catalog.
func (s *SQLStore) tableRef(table string) string {
	if s.isConfigured(table) {
		return s.dialect.quote(table)
	}
	return s.dialect.quoteName(table)
}

// catalogName splits table into the schema and name used in catalog lookups.
func (s *SQLStore) catalogName(table string) (schema, name string) {
	if s.isConfigured(table) {
		return splitIdentifier(table)
	}
	return "", table
}

func (s *SQLStore) isConfigured(table string) bool {
	return table == s.Tables.Reference || table == s.Tables.Detail
}

// SampleRows returns up to limit rows of table as column -> value maps.
func (s *SQLStore) SampleRows(ctx context.Context, table string, limit int64) ([]map[string]interface{}, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query := s.dialect.rebind(fmt.Sprintf("SELECT * FROM %s LIMIT ?", s.tableRef(table)))
	rows, err := db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "sample %s", table)
	}
	defer rows.Close()

	var samples []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, errors.Wrapf(err, "scan sample of %s", table)
		}
		//convert []byte to string
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		samples = append(samples, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "sample %s", table)
	}
	return samples, nil
}

// TableDDL returns the CREATE TABLE statement of table. Postgres has no
// stored DDL, so one is rebuilt from information_schema.columns.
func (s *SQLStore) TableDDL(ctx context.Context, table string) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	schema, name := s.catalogName(table)

	switch {
	case s.dialect.isMySQL():
		var tableName, ddl string
		row := db.QueryRowxContext(ctx, "SHOW CREATE TABLE "+s.tableRef(table))
		if err := row.Scan(&tableName, &ddl); err != nil {
			return "", errors.Wrapf(err, "show create table %s", table)
		}
		return ddl, nil
	case s.dialect.isPostgres():
		return s.postgresDDL(ctx, db, table, schema, name)
	default:
		var ddl string
		query := "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE"
		if err := db.GetContext(ctx, &ddl, query, name); err != nil {
			return "", errors.Wrapf(err, "read definition of %s", table)
		}
		return ddl, nil
	}
}

type columnDefinition struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable string `db:"is_nullable"`
}

func (s *SQLStore) postgresDDL(ctx context.Context, db *sqlx.DB, table, schema, name string) (string, error) {
	query := "SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position"
	args := []interface{}{name}
	if schema != "" {
		query = "SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position"
		args = []interface{}{schema, name}
	}

	var columns []columnDefinition
	if err := db.SelectContext(ctx, &columns, s.dialect.rebind(query), args...); err != nil {
		return "", errors.Wrapf(err, "read columns of %s", table)
	}
	if len(columns) == 0 {
		return "", errors.Errorf("table %s not found", table)
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		def := fmt.Sprintf("  %s %s", s.dialect.quoteName(col.Name), strings.ToUpper(col.DataType))
		if col.Nullable == "NO" {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", s.tableRef(table), strings.Join(defs, ",\n")), nil
}
