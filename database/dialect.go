package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// dialect holds the per-engine SQL differences: identifier quoting,
// conflict clauses and catalog queries. Statements are written with '?'
// placeholders and rebound for the driver.
type dialect struct {
	driver string
	bind   int
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return dialect{driver: "sqlite", bind: sqlx.QUESTION}, nil
	case "mysql":
		return dialect{driver: "mysql", bind: sqlx.QUESTION}, nil
	case "postgres", "pgx":
		return dialect{driver: strings.ToLower(driver), bind: sqlx.DOLLAR}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func (d dialect) isMySQL() bool { return d.driver == "mysql" }

func (d dialect) isPostgres() bool { return d.driver == "postgres" || d.driver == "pgx" }

func (d dialect) rebind(query string) string {
	return sqlx.Rebind(d.bind, query)
}

// quote quotes each dot-separated part of a configured identifier.
func (d dialect) quote(identifier string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = d.quoteName(part)
	}
	return strings.Join(parts, ".")
}

// quoteName quotes a name read back from the catalog as a single identifier,
// dots included.
func (d dialect) quoteName(name string) string {
	if d.isMySQL() {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d dialect) quoteAll(identifiers []string) []string {
	quoted := make([]string, len(identifiers))
	for i, id := range identifiers {
		quoted[i] = d.quote(id)
	}
	return quoted
}

// insertStatement builds a single-row insert for columns (key first) that
// either skips or overwrites a row whose key already exists.
func (d dialect) insertStatement(table string, columns []string, policy ConflictPolicy) string {
	key := d.quote(columns[0])
	quoted := d.quoteAll(columns)

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		d.quote(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if d.isMySQL() {
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
		if policy == ConflictUpdate {
			sets := make([]string, 0, len(quoted)-1)
			for _, col := range quoted[1:] {
				sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", col, col))
			}
			b.WriteString(strings.Join(sets, ", "))
		} else {
			// assigning the key to itself is a no-op that leaves the row untouched
			fmt.Fprintf(&b, "%s = %s", key, key)
		}
		return d.rebind(b.String())
	}

	fmt.Fprintf(&b, " ON CONFLICT (%s) ", key)
	if policy == ConflictUpdate {
		sets := make([]string, 0, len(quoted)-1)
		for _, col := range quoted[1:] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
		}
		b.WriteString("DO UPDATE SET " + strings.Join(sets, ", "))
	} else {
		b.WriteString("DO NOTHING")
	}
	return d.rebind(b.String())
}

func (d dialect) selectAllStatement(table, orderBy string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s", d.quote(table), d.quote(orderBy))
}

func (d dialect) selectPageStatement(table, orderBy string) string {
	return d.rebind(fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT ? OFFSET ?", d.quote(table), d.quote(orderBy)))
}

func (d dialect) countStatement(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.quote(table))
}

func (d dialect) countCatalogStatement(name string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.quoteName(name))
}

func (d dialect) listTablesStatement() string {
	switch {
	case d.isMySQL():
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name"
	case d.isPostgres():
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name"
	default:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	}
}

// hasTableStatement returns a query yielding a single count (> 0 when the
// table exists) together with its arguments.
func (d dialect) hasTableStatement(table string) (string, []interface{}) {
	schema, name := splitIdentifier(table)

	switch {
	case d.isMySQL():
		if schema == "" {
			return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
				[]interface{}{name}
		}
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			[]interface{}{schema, name}
	case d.isPostgres():
		if schema == "" {
			return d.rebind("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"),
				[]interface{}{name}
		}
		return d.rebind("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"),
			[]interface{}{schema, name}
	default:
		// sqlite resolves table names case-insensitively
		return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE", []interface{}{name}
	}
}

func splitIdentifier(identifier string) (schema, name string) {
	if i := strings.LastIndex(identifier, "."); i >= 0 {
		return identifier[:i], identifier[i+1:]
	}
	return "", identifier
}
