package database

import "context"

// Store is the lifecycle shared by every client.
type Store interface {
	Connect(ctx context.Context) error
	Close() error
}

// Source is a readable store holding the reference and detail tables.
type Source interface {
	Store
	HasTable(ctx context.Context, table string) (bool, error)
	FetchReferenceRecords(ctx context.Context) ([]ReferenceRecord, error)
	CountDetailRecords(ctx context.Context) (int64, error)
	FetchDetailPage(ctx context.Context, offset, limit int64) ([]DetailRecord, error)
}

// Destination accepts single-row writes under a unique-key conflict policy.
type Destination interface {
	Store
	InsertReferenceRecord(ctx context.Context, record ReferenceRecord) error
	InsertDetailRecord(ctx context.Context, record DetailRecord) error
}

// Inspector reports tables and row counts.
type Inspector interface {
	Store
	ListTables(ctx context.Context) ([]TableInfo, error)
	CountRows(ctx context.Context, table string) (int64, error)
}

// Sampler shows what a table holds: its definition and its first rows.
type Sampler interface {
	TableDDL(ctx context.Context, table string) (string, error)
	SampleRows(ctx context.Context, table string, limit int64) ([]map[string]interface{}, error)
}

// DestinationStore is what the factory hands back for the write side.
type DestinationStore interface {
	Destination
	Inspector
	Sampler
}
