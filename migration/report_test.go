package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportComplete(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	report := NewRunReport("sqlite", "postgres", start)
	assert.Equal(t, StatusInProgress, report.Status)
	assert.Contains(t, report.ID, "replication_sqlite_to_postgres_")

	result := &RunResult{
		Reference: TableResult{Table: "books", RowsWritten: 66},
		Detail:    TableResult{Table: "words", RowsWritten: 2500, Pages: 3},
	}
	report.Complete(result, nil)
	assert.Equal(t, StatusCompleted, report.Status)
	require.Len(t, report.Tables, 2)
	assert.Equal(t, int64(2500), report.Tables[1].RowsWritten)

	failed := NewRunReport("sqlite", "mysql", start)
	failed.Complete(nil, newError(KindWrite, "words", errors.New("disk full")))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "replication failed: write words: disk full", failed.Error)
	assert.Empty(t, failed.Tables)
}

func TestReportStoreSaveLoadList(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store, err := NewReportStore(filepath.Join(t.TempDir(), "reports"), logger)
	require.NoError(t, err)

	older := NewRunReport("sqlite", "sqlite", time.Now().Add(-time.Hour))
	older.Complete(&RunResult{}, nil)
	newer := NewRunReport("sqlite", "mongodb", time.Now())
	require.NoError(t, store.Save(newer))
	require.NoError(t, store.Save(older))

	loaded, err := store.Load(newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "mongodb", loaded.Destination)

	reports, err := store.List()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, older.ID, reports[0].ID)
	assert.Equal(t, newer.ID, reports[1].ID)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

func TestReportStoreSkipsBrokenFiles(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewReportStore(dir, logger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, store.Save(NewRunReport("sqlite", "sqlite", time.Now())))

	reports, err := store.List()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "broken.json")
}

func TestReportStorePrune(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store, err := NewReportStore(t.TempDir(), logger)
	require.NoError(t, err)

	old := NewRunReport("sqlite", "sqlite", time.Now().Add(-48*time.Hour))
	old.Complete(&RunResult{}, nil)
	stuck := NewRunReport("sqlite", "mysql", time.Now().Add(-48*time.Hour))
	recent := NewRunReport("sqlite", "postgres", time.Now())
	recent.Complete(&RunResult{}, nil)
	for _, r := range []*RunReport{old, stuck, recent} {
		require.NoError(t, store.Save(r))
	}

	removed, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	reports, err := store.List()
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
