package database

import (
	"context"
	"time"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
)

// SQLStore is a Source, Destination and Inspector backed by database/sql.
// The same type serves sqlite, mysql, postgres (lib/pq) and pgx; only the
// dialect differs.
type SQLStore struct {
	Driver string
	DSN    string
	Tables Tables
	Policy ConflictPolicy
	DB     *sqlx.DB

	dialect         dialect
	referenceInsert string
	detailInsert    string
}

var (
	_ Source           = (*SQLStore)(nil)
	_ DestinationStore = (*SQLStore)(nil)
)

// NewSQLStore creates an unconnected store for driver/dsn.
func NewSQLStore(driver, dsn string, tables Tables, policy ConflictPolicy) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	for _, table := range []string{tables.Reference, tables.Detail} {
		if !config.IsValidIdentifier(table) {
			return nil, errors.Errorf("invalid table name %q", table)
		}
	}
	if policy == "" {
		policy = ConflictSkip
	}

	return &SQLStore{
		Driver:          d.driver,
		DSN:             dsn,
		Tables:          tables,
		Policy:          policy,
		dialect:         d,
		referenceInsert: d.insertStatement(tables.Reference, referenceColumns, policy),
		detailInsert:    d.insertStatement(tables.Detail, detailColumns, policy),
	}, nil
}

// NewSQLStoreFromDB wraps an already open handle, mostly for tests.
func NewSQLStoreFromDB(db *sqlx.DB, tables Tables, policy ConflictPolicy) (*SQLStore, error) {
	store, err := NewSQLStore(db.DriverName(), "", tables, policy)
	if err != nil {
		return nil, err
	}
	store.DB = db.Unsafe()
	return store, nil
}

// Connect opens the handle and pings it.
func (s *SQLStore) Connect(ctx context.Context) error {
	db, err := sqlx.Open(s.Driver, s.DSN)
	if err != nil {
		return errors.Wrapf(err, "open %s connection", s.Driver)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "ping %s database", s.Driver)
	}

	configurePool(db)

	// SELECT * may return columns the records do not map; ignore them
	s.DB = db.Unsafe()
	return nil
}

// a run issues one statement at a time, so one connection per store is enough
func configurePool(db *sqlx.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
}

// Close closes the handle if it was opened.
func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *SQLStore) conn() (*sqlx.DB, error) {
	if s.DB == nil {
		return nil, errors.New("db connection not established")
	}
	return s.DB, nil
}

// HasTable reports whether table exists in the connected database.
func (s *SQLStore) HasTable(ctx context.Context, table string) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	query, args := s.dialect.hasTableStatement(table)

	var count int64
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return false, errors.Wrapf(err, "look up table %s", table)
	}
	return count > 0, nil
}

// FetchReferenceRecords reads the whole reference table in one query.
func (s *SQLStore) FetchReferenceRecords(ctx context.Context) ([]ReferenceRecord, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var records []ReferenceRecord
	query := s.dialect.selectAllStatement(s.Tables.Reference, referenceColumns[0])
	if err := db.SelectContext(ctx, &records, query); err != nil {
		return nil, errors.Wrapf(err, "select from %s", s.Tables.Reference)
	}
	return records, nil
}

// CountDetailRecords returns the number of rows in the detail table.
func (s *SQLStore) CountDetailRecords(ctx context.Context) (int64, error) {
	return s.CountRows(ctx, s.Tables.Detail)
}

// FetchDetailPage returns up to limit detail rows starting at offset, in key order.
func (s *SQLStore) FetchDetailPage(ctx context.Context, offset, limit int64) ([]DetailRecord, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var records []DetailRecord
	query := s.dialect.selectPageStatement(s.Tables.Detail, detailColumns[0])
	if err := db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, errors.Wrapf(err, "select page of %s at offset %d", s.Tables.Detail, offset)
	}
	return records, nil
}

// InsertReferenceRecord writes one reference row under the store's conflict policy.
func (s *SQLStore) InsertReferenceRecord(ctx context.Context, record ReferenceRecord) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, s.referenceInsert, record.Values()...); err != nil {
		return errors.Wrapf(err, "insert %s %d", s.Tables.Reference, record.ID)
	}
	return nil
}

// InsertDetailRecord writes one detail row under the store's conflict policy.
func (s *SQLStore) InsertDetailRecord(ctx context.Context, record DetailRecord) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, s.detailInsert, record.Values()...); err != nil {
		return errors.Wrapf(err, "insert %s %d", s.Tables.Detail, record.ID)
	}
	return nil
}

// CountRows returns the row count of any table in the connected database.
func (s *SQLStore) CountRows(ctx context.Context, table string) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	return s.count(ctx, db, s.dialect.countStatement(table), table)
}

func (s *SQLStore) count(ctx context.Context, db *sqlx.DB, query, table string) (int64, error) {
	var count int64
	if err := db.GetContext(ctx, &count, query); err != nil {
		return 0, errors.Wrapf(err, "count rows of %s", table)
	}
	return count, nil
}

// ListTables lists the user tables of the connected database with their row counts.
func (s *SQLStore) ListTables(ctx context.Context) ([]TableInfo, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var names []string
	if err := db.SelectContext(ctx, &names, s.dialect.listTablesStatement()); err != nil {
		return nil, errors.Wrap(err, "list tables")
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		// catalog names are taken verbatim, a dot is part of the name
		count, err := s.count(ctx, db, s.dialect.countCatalogStatement(name), name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{Name: name, Rows: count})
	}
	return tables, nil
}
