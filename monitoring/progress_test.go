package monitoring

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressMessages(hook *test.Hook) []string {
	var messages []string
	for _, entry := range hook.AllEntries() {
		if strings.HasPrefix(entry.Message, "Progress:") {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}

func TestProgressTrackerCapsReportedRows(t *testing.T) {
	logger, hook := test.NewNullLogger()
	metrics := NewMetrics()
	tracker := NewProgressTracker("words", 2500, logger, metrics)

	for offset := int64(0); offset < 2500; offset += 1000 {
		end := offset + 1000
		if end > 2500 {
			end = 2500
		}
		for i := offset; i < end; i++ {
			tracker.RowWritten()
		}
		tracker.PageCompleted(offset + 1000)
	}

	assert.Equal(t, []string{"Progress: 1000/2500", "Progress: 2000/2500", "Progress: 2500/2500"}, progressMessages(hook))
	assert.Equal(t, "words", hook.LastEntry().Data["table"])

	m := tracker.GetMetrics()
	assert.Equal(t, int64(2500), m.WrittenRows)
	assert.Equal(t, int64(2500), m.ReportedRows)
	assert.Equal(t, int64(3), m.PagesFetched)
	assert.InDelta(t, 100.0, m.ProgressPercent, 0.001)

	assert.Equal(t, 2500.0, testutil.ToFloat64(metrics.RowsWritten.WithLabelValues("words")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.PagesFetched.WithLabelValues("words")))
	assert.Equal(t, 2500.0, testutil.ToFloat64(metrics.TableRows.WithLabelValues("words")))
}

func TestProgressTrackerWithoutMetrics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tracker := NewProgressTracker("books", 2, logger, nil)

	tracker.RowWritten()
	tracker.RowWritten()
	summary := tracker.Finish()

	assert.Equal(t, int64(2), summary.WrittenRows)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "2 rows replicated", hook.LastEntry().Message)
}

func TestProgressTrackerEmptyTable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tracker := NewProgressTracker("words", 0, logger, nil)
	assert.Equal(t, 0.0, tracker.GetMetrics().ProgressPercent)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in     time.Duration
		expect string
	}{
		{0, "0s"},
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute + 3*time.Second, "2h5m3s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expect, FormatDuration(tc.in))
	}
}

func TestMetricsWriteTextfile(t *testing.T) {
	metrics := NewMetrics()
	metrics.addRowWritten("books")
	metrics.SetRunResult(true)

	path := filepath.Join(t.TempDir(), "replicator.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `replicator_rows_written_total{table="books"} 1`)
	assert.Contains(t, string(content), "replicator_last_run_success 1")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "json", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("table", "books").Info("hello")
	assert.Contains(t, buf.String(), `"table":"books"`)

	logger, err = NewLogger("silent", "", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.PanicLevel, logger.GetLevel())

	_, err = NewLogger("loud", "text", &buf)
	assert.Error(t, err)
	_, err = NewLogger("info", "xml", &buf)
	assert.Error(t, err)
}
