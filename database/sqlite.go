package database

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver, registered as "sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLiteDSN turns a file path into a modernc sqlite DSN. Read-only sources
// are opened with mode=ro so a wrong path fails instead of creating an empty file.
func SQLiteDSN(path string, readOnly bool) string {
	if !readOnly || strings.Contains(path, "mode=") {
		return path
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&mode=ro"
	}
	return dsn + "?mode=ro"
}

// create a sqlite store for the file at path
func NewSQLiteStore(path string, readOnly bool, tables Tables, policy ConflictPolicy) (*SQLStore, error) {
	return NewSQLStore("sqlite", SQLiteDSN(path, readOnly), tables, policy)
}
