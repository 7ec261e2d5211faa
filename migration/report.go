package migration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// RunReport is the on-disk record of one replication run.
type RunReport struct {
	ID          string        `json:"id"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time,omitempty"`
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Status      string        `json:"status"`
	Tables      []TableResult `json:"tables,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewRunReport starts an in-progress report for a run between two drivers.
func NewRunReport(source, destination string, start time.Time) *RunReport {
	return &RunReport{
		ID:          fmt.Sprintf("replication_%s_to_%s_%d", source, destination, start.UnixNano()),
		StartTime:   start,
		Source:      source,
		Destination: destination,
		Status:      StatusInProgress,
	}
}

// Complete fills the report from a finished run.
func (rr *RunReport) Complete(result *RunResult, runErr error) {
	rr.EndTime = time.Now()
	if result != nil {
		rr.Tables = []TableResult{result.Reference, result.Detail}
	}
	if runErr != nil {
		rr.Status = StatusFailed
		rr.Error = runErr.Error()
		return
	}
	rr.Status = StatusCompleted
}

// ReportStore keeps run reports as JSON files in a directory.
type ReportStore struct {
	dir    string
	logger logrus.FieldLogger
}

// creating a report store, the directory is created if not present
func NewReportStore(dir string, logger logrus.FieldLogger) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create report directory %s", dir)
	}
	return &ReportStore{dir: dir, logger: logger}, nil
}

func (rs *ReportStore) path(id string) string {
	return filepath.Join(rs.dir, id+".json")
}

// Save writes the report, replacing any previous version.
func (rs *ReportStore) Save(report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	if err := os.WriteFile(rs.path(report.ID), data, 0o644); err != nil {
		return errors.Wrap(err, "write report file")
	}
	return nil
}

// Load reads one report by id.
func (rs *ReportStore) Load(id string) (*RunReport, error) {
	data, err := os.ReadFile(rs.path(id))
	if err != nil {
		return nil, errors.Wrap(err, "read report file")
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, "unmarshal report")
	}
	return &report, nil
}

// List returns every readable report, oldest first. Unreadable files are
// logged and skipped.
func (rs *ReportStore) List() ([]RunReport, error) {
	files, err := filepath.Glob(filepath.Join(rs.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}

	reports := make([]RunReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			rs.logger.WithError(err).Warnf("Could not read report file %s", file)
			continue
		}
		var report RunReport
		if err := json.Unmarshal(data, &report); err != nil {
			rs.logger.WithError(err).Warnf("Could not parse report file %s", file)
			continue
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})
	return reports, nil
}

// Prune removes finished reports older than maxAge and returns how many were removed.
func (rs *ReportStore) Prune(maxAge time.Duration) (int, error) {
	reports, err := rs.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, report := range reports {
		if report.Status == StatusInProgress || !report.StartTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(rs.path(report.ID)); err != nil {
			rs.logger.WithError(err).Warnf("Could not remove report %s", report.ID)
			continue
		}
		removed++
	}
	return removed, nil
}
