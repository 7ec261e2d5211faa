package validation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SusheelSathyaraj/TableReplicator/database"
	"github.com/sirupsen/logrus"
)

// Represents the result of the validation check for one table
type ValidationResult struct {
	TableName    string
	IsValid      bool
	Skipped      bool
	ErrorMessage string
	SourceRows   int64
	TargetRows   int64
	TimeStamp    time.Time
}

// Compares source and target row counts after a run. The stores must
// already be connected.
type ReplicationValidator struct {
	Source database.Inspector
	Target database.Inspector
	Logger logrus.FieldLogger

	// tables absent from the source pass instead of failing the count
	SkipMissingTables bool
}

// implemented by sources that can tell whether a table exists
type tableChecker interface {
	HasTable(ctx context.Context, table string) (bool, error)
}

// Creating a new validator instance
func NewReplicationValidator(source, target database.Inspector, logger logrus.FieldLogger) *ReplicationValidator {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &ReplicationValidator{Source: source, Target: target, Logger: logger}
}

// Validate counts every table on both sides. A table is valid when the target
// holds at least as many rows as the source; extra target rows are allowed
// because replication never deletes.
func (v *ReplicationValidator) Validate(ctx context.Context, tables []string) []ValidationResult {
	v.Logger.Info("Starting post replication validation...")

	results := make([]ValidationResult, 0, len(tables))
	for _, table := range tables {
		result := ValidationResult{
			TableName: table,
			TimeStamp: time.Now(),
		}

		skip, err := v.missingFromSource(ctx, table)
		if err != nil {
			result.ErrorMessage = fmt.Sprintf("failed to look up source table %s: %v", table, err)
			results = append(results, result)
			continue
		}
		if skip {
			result.IsValid = true
			result.Skipped = true
			v.Logger.WithField("table", table).Warn("Table not found in source, skipping")
			results = append(results, result)
			continue
		}

		sourceRows, err := v.Source.CountRows(ctx, table)
		if err != nil {
			result.ErrorMessage = fmt.Sprintf("failed to count source table %s: %v", table, err)
			results = append(results, result)
			continue
		}
		result.SourceRows = sourceRows

		targetRows, err := v.Target.CountRows(ctx, table)
		if err != nil {
			result.ErrorMessage = fmt.Sprintf("failed to count target table %s: %v", table, err)
			results = append(results, result)
			continue
		}
		result.TargetRows = targetRows

		if targetRows < sourceRows {
			result.ErrorMessage = fmt.Sprintf("row count mismatch, source: %d, target: %d", sourceRows, targetRows)
			results = append(results, result)
			continue
		}

		result.IsValid = true
		v.Logger.WithFields(logrus.Fields{
			"table":  table,
			"source": sourceRows,
			"target": targetRows,
		}).Info("Table verified")
		results = append(results, result)
	}
	return results
}

func (v *ReplicationValidator) missingFromSource(ctx context.Context, table string) (bool, error) {
	if !v.SkipMissingTables {
		return false, nil
	}
	checker, ok := v.Source.(tableChecker)
	if !ok {
		return false, nil
	}
	exists, err := checker.HasTable(ctx, table)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// struct for validation result summary
type ValidationSummary struct {
	TotalTables    int
	ValidTables    int
	InvalidTables  int
	SkippedTables  int
	TotalRows      int64
	ValidationTime time.Duration
	Errors         []string
}

// creating a summary of the validation result
func GenerateValidationSummary(results []ValidationResult, startTime time.Time) ValidationSummary {
	summary := ValidationSummary{
		TotalTables:    len(results),
		ValidationTime: time.Since(startTime),
		Errors:         make([]string, 0),
	}

	for _, result := range results {
		summary.TotalRows += result.SourceRows

		if result.Skipped {
			summary.SkippedTables++
		}
		if result.IsValid {
			summary.ValidTables++
		} else {
			summary.InvalidTables++
			summary.Errors = append(summary.Errors, fmt.Sprintf("Table %s: %s", result.TableName, result.ErrorMessage))
		}
	}
	return summary
}

func (s ValidationSummary) OK() bool { return s.InvalidTables == 0 }

// printing the formatted summary
func (s ValidationSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "== Validation Summary ==")
	fmt.Fprintf(w, "Total Tables: %d\n", s.TotalTables)
	fmt.Fprintf(w, "Valid Tables: %d\n", s.ValidTables)
	fmt.Fprintf(w, "Invalid Tables: %d\n", s.InvalidTables)
	if s.SkippedTables > 0 {
		fmt.Fprintf(w, "Skipped Tables: %d\n", s.SkippedTables)
	}
	fmt.Fprintf(w, "Total Source Rows: %d\n", s.TotalRows)
	fmt.Fprintf(w, "Validation Time: %v\n", s.ValidationTime)

	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range s.Errors {
			fmt.Fprintf(w, "- %s\n", err)
		}
	}
}
