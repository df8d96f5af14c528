package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.WindowFetched(true)
	m.WindowFetched(true)
	m.WindowFetched(false)
	m.EntriesAccepted(5)
	m.EntriesAccepted(0)
	m.DuplicatesSkipped(2)
	m.TickerDone(true, time.Second)
	m.TickerDone(false, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Windows.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Windows.WithLabelValues("failed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues("written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues("empty")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.WindowFetched(true)
		m.EntriesAccepted(1)
		m.DuplicatesSkipped(1)
		m.TickerDone(true, time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.EntriesAccepted(3)

	path := filepath.Join(t.TempDir(), "headlines.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "headlines_entries_accepted_total 3")
}

func TestHandler(t *testing.T) {
	m := New()
	m.WindowFetched(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `headlines_windows_total{status="failed"} 1`)
}
