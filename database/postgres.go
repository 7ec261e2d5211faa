package database

import (
	"fmt"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
)

// PostgresDSN returns cfg.DSN when set, otherwise a keyword/value DSN that
// both lib/pq and pgx accept.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.DBName, sslmode)
}

// create a PostgreSQL store from config; driver is "postgres" (lib/pq) or "pgx"
func NewPostgresStoreFromConfig(cfg config.DatabaseConfig, tables Tables, policy ConflictPolicy) (*SQLStore, error) {
	driver := cfg.Driver
	if driver != "pgx" {
		driver = "postgres"
	}
	return NewSQLStore(driver, PostgresDSN(cfg), tables, policy)
}
