package monitoring

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ProgressTracker follows the replication of one table.
type ProgressTracker struct {
	table        string
	totalRows    int64
	writtenRows  int64
	reportedRows int64
	pagesFetched int64
	startTime    time.Time
	logger       logrus.FieldLogger
	metrics      *Metrics
}

// struct holding a point-in-time view of a tracker
type ProgressMetrics struct {
	Table           string        `json:"table"`
	TotalRows       int64         `json:"total_rows"`
	WrittenRows     int64         `json:"written_rows"`
	ReportedRows    int64         `json:"reported_rows"`
	PagesFetched    int64         `json:"pages_fetched"`
	RowsPerSecond   float64       `json:"rows_per_second"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
	ProgressPercent float64       `json:"progress_percent"`
}

// creating a new progress tracker; metrics may be nil
func NewProgressTracker(table string, totalRows int64, logger logrus.FieldLogger, metrics *Metrics) *ProgressTracker {
	metrics.setTableRows(table, totalRows)
	return &ProgressTracker{
		table:     table,
		totalRows: totalRows,
		startTime: time.Now(),
		logger:    logger.WithField("table", table),
		metrics:   metrics,
	}
}

// RowWritten counts one row handed to the destination.
func (pt *ProgressTracker) RowWritten() {
	atomic.AddInt64(&pt.writtenRows, 1)
	pt.metrics.addRowWritten(pt.table)
}

// PageCompleted records a finished page and logs "Progress: written/total",
// where written is the next offset capped at the table size.
func (pt *ProgressTracker) PageCompleted(nextOffset int64) {
	atomic.AddInt64(&pt.pagesFetched, 1)
	pt.metrics.addPage(pt.table)

	reported := nextOffset
	if reported > pt.totalRows {
		reported = pt.totalRows
	}
	atomic.StoreInt64(&pt.reportedRows, reported)

	pt.logger.WithField("pages", atomic.LoadInt64(&pt.pagesFetched)).
		Infof("Progress: %d/%d", reported, pt.totalRows)
}

// returning current metrics
func (pt *ProgressTracker) GetMetrics() ProgressMetrics {
	written := atomic.LoadInt64(&pt.writtenRows)
	elapsed := time.Since(pt.startTime)

	var progressPercent float64
	if pt.totalRows > 0 {
		progressPercent = float64(atomic.LoadInt64(&pt.reportedRows)) / float64(pt.totalRows) * 100
	}

	var rowsPerSecond float64
	if elapsed.Seconds() > 0 {
		rowsPerSecond = float64(written) / elapsed.Seconds()
	}

	return ProgressMetrics{
		Table:           pt.table,
		TotalRows:       pt.totalRows,
		WrittenRows:     written,
		ReportedRows:    atomic.LoadInt64(&pt.reportedRows),
		PagesFetched:    atomic.LoadInt64(&pt.pagesFetched),
		RowsPerSecond:   rowsPerSecond,
		ElapsedTime:     elapsed,
		ProgressPercent: progressPercent,
	}
}

// Finish logs the per-table summary.
func (pt *ProgressTracker) Finish() ProgressMetrics {
	metrics := pt.GetMetrics()
	pt.logger.WithFields(logrus.Fields{
		"rows":     metrics.WrittenRows,
		"pages":    metrics.PagesFetched,
		"duration": FormatDuration(metrics.ElapsedTime),
		"rate":     fmt.Sprintf("%.0f rows/sec", metrics.RowsPerSecond),
	}).Infof("%d rows replicated", metrics.WrittenRows)
	return metrics
}

// formats the duration in a human readable way
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	} else if seconds > 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
