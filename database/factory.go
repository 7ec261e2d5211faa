package database

import (
	"strings"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	"github.com/go-faster/errors"
)

// TablesFromConfig returns the table pair a run copies.
func TablesFromConfig(cfg *config.Config) Tables {
	return Tables{
		Reference: cfg.Replication.ReferenceTable,
		Detail:    cfg.Replication.DetailTable,
	}
}

// NewSource builds the read side of a run. SQLite sources are opened read-only.
func NewSource(cfg config.DatabaseConfig, tables Tables) (*SQLStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLiteStore(cfg.DSN, true, tables, ConflictSkip)
	case "mysql":
		return NewMySQLStoreFromConfig(cfg, tables, ConflictSkip)
	case "postgres", "pgx":
		return NewPostgresStoreFromConfig(cfg, tables, ConflictSkip)
	default:
		return nil, errors.Errorf("unsupported source driver %q", cfg.Driver)
	}
}

// NewDestination builds the write side of a run.
func NewDestination(cfg config.DatabaseConfig, tables Tables, policy ConflictPolicy) (DestinationStore, error) {
	var (
		store DestinationStore
		err   error
	)
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		store, err = NewSQLiteStore(cfg.DSN, false, tables, policy)
	case "mysql":
		store, err = NewMySQLStoreFromConfig(cfg, tables, policy)
	case "postgres", "pgx":
		store, err = NewPostgresStoreFromConfig(cfg, tables, policy)
	case "mongodb":
		store, err = NewMongoStoreFromConfig(cfg, tables, policy)
	default:
		return nil, errors.Errorf("unsupported destination driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
