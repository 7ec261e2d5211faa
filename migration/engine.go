package migration

import (
	"context"
	"time"

	"github.com/SusheelSathyaraj/TableReplicator/database"
	"github.com/SusheelSathyaraj/TableReplicator/monitoring"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

const DefaultPageSize = 1000

// Options tune a run.
type Options struct {
	PageSize          int64
	SkipMissingTables bool
}

// Replicator copies the reference table whole and the detail table page by
// page from Source to Destination. It is single-threaded: every call
// finishes before the next one starts.
type Replicator struct {
	Source      database.Source
	Destination database.Destination
	Tables      database.Tables
	Options     Options
	Logger      logrus.FieldLogger
	Metrics     *monitoring.Metrics
}

// per-table outcome of a run
type TableResult struct {
	Table       string        `json:"table"`
	SourceRows  int64         `json:"source_rows"`
	RowsWritten int64         `json:"rows_written"`
	Pages       int64         `json:"pages"`
	Skipped     bool          `json:"skipped,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Results of the run
type RunResult struct {
	Success   bool          `json:"success"`
	Reference TableResult   `json:"reference"`
	Detail    TableResult   `json:"detail"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// creating a new replicator; a nil logger discards output, metrics may be nil
func NewReplicator(source database.Source, destination database.Destination, tables database.Tables, opts Options, logger logrus.FieldLogger, metrics *monitoring.Metrics) *Replicator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		logger = discard
	}
	return &Replicator{
		Source:      source,
		Destination: destination,
		Tables:      tables,
		Options:     opts,
		Logger:      logger,
		Metrics:     metrics,
	}
}

// Run connects both stores, replicates the reference table and then the
// detail table, and closes both stores whatever happened.
func (r *Replicator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{StartTime: time.Now()}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		r.Metrics.SetRunResult(result.Success)
	}()

	r.Logger.Info("Connecting to source database")
	if err := r.Source.Connect(ctx); err != nil {
		return result, newError(KindConnect, "", errors.Wrap(err, "source"))
	}
	defer r.closeStore("source", r.Source)

	r.Logger.Info("Connecting to destination database")
	if err := r.Destination.Connect(ctx); err != nil {
		return result, newError(KindConnect, "", errors.Wrap(err, "destination"))
	}
	defer r.closeStore("destination", r.Destination)

	reference, err := r.ReplicateReferenceTable(ctx)
	result.Reference = reference
	if err != nil {
		return result, err
	}

	detail, err := r.ReplicateDetailTable(ctx)
	result.Detail = detail
	if err != nil {
		return result, err
	}

	result.Success = true
	r.Logger.WithFields(logrus.Fields{
		r.Tables.Reference: reference.RowsWritten,
		r.Tables.Detail:    detail.RowsWritten,
		"duration":         monitoring.FormatDuration(time.Since(result.StartTime)),
	}).Info("Replication completed")
	return result, nil
}

func (r *Replicator) closeStore(name string, store database.Store) {
	if err := store.Close(); err != nil {
		r.Logger.WithError(err).Warnf("Failed to close %s database", name)
	}
}

// skipTable reports whether table is absent from the source and missing
// tables are allowed to be skipped.
func (r *Replicator) skipTable(ctx context.Context, table string) (bool, error) {
	if !r.Options.SkipMissingTables {
		return false, nil
	}
	exists, err := r.Source.HasTable(ctx, table)
	if err != nil {
		return false, newError(KindQuery, table, err)
	}
	if !exists {
		r.Logger.WithField("table", table).Warn("Table not found in source, skipping")
	}
	return !exists, nil
}

// ReplicateReferenceTable reads the whole reference table in one query and
// writes every row with a conflict-safe insert.
func (r *Replicator) ReplicateReferenceTable(ctx context.Context) (result TableResult, err error) {
	table := r.Tables.Reference
	result = TableResult{Table: table}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	skip, err := r.skipTable(ctx, table)
	if err != nil || skip {
		result.Skipped = skip
		return result, err
	}

	records, err := r.Source.FetchReferenceRecords(ctx)
	if err != nil {
		return result, newError(KindQuery, table, err)
	}
	result.SourceRows = int64(len(records))
	r.Logger.WithField("table", table).Infof("Found %d records", len(records))

	tracker := monitoring.NewProgressTracker(table, result.SourceRows, r.Logger, r.Metrics)
	for _, record := range records {
		if err := r.Destination.InsertReferenceRecord(ctx, record); err != nil {
			return result, newError(KindWrite, table, err)
		}
		tracker.RowWritten()
		result.RowsWritten++
	}
	result.Pages = 1
	tracker.Finish()
	return result, nil
}

// ReplicateDetailTable counts the detail table, then walks it with
// LIMIT/OFFSET pages of Options.PageSize rows until offset reaches the
// count, logging progress after every page.
func (r *Replicator) ReplicateDetailTable(ctx context.Context) (result TableResult, err error) {
	table := r.Tables.Detail
	result = TableResult{Table: table}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	skip, err := r.skipTable(ctx, table)
	if err != nil || skip {
		result.Skipped = skip
		return result, err
	}

	total, err := r.Source.CountDetailRecords(ctx)
	if err != nil {
		return result, newError(KindQuery, table, err)
	}
	result.SourceRows = total
	r.Logger.WithField("table", table).Infof("Found %d records", total)

	pageSize := r.Options.PageSize
	tracker := monitoring.NewProgressTracker(table, total, r.Logger, r.Metrics)

	for offset := int64(0); offset < total; offset += pageSize {
		page, err := r.Source.FetchDetailPage(ctx, offset, pageSize)
		if err != nil {
			return result, newError(KindQuery, table, err)
		}
		result.Pages++

		for _, record := range page {
			if err := r.Destination.InsertDetailRecord(ctx, record); err != nil {
				return result, newError(KindWrite, table, err)
			}
			tracker.RowWritten()
			result.RowsWritten++
		}
		tracker.PageCompleted(offset + pageSize)
	}
	tracker.Finish()
	return result, nil
}
