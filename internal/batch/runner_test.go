package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/headlines/internal/analysis/sentiment"
	"github.com/seenimoa/headlines/internal/metrics"
	"github.com/seenimoa/headlines/internal/sink"
	"github.com/seenimoa/headlines/pkg/models"
)

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

// mapFetcher returns a fixed number of headlines per ticker.
type mapFetcher struct {
	mu     sync.Mutex
	counts map[string]int
	errs   map[string]error
	calls  []string
}

func (f *mapFetcher) FetchHistorical(_ context.Context, ticker string, _, _ time.Time, maxResults int) ([]models.NewsEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ticker)
	f.mu.Unlock()
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	n := min(f.counts[ticker], maxResults)
	out := make([]models.NewsEntry, n)
	for i := range out {
		out[i] = models.NewsEntry{
			Title:       fmt.Sprintf("%s story %d", ticker, i),
			PublishedAt: start.AddDate(0, 0, i),
		}
	}
	return out, nil
}

var constScorer = sentiment.ScorerFunc(func(string) float64 { return 0.2 })

func TestRunAllSkipsEmptyTickers(t *testing.T) {
	var buf bytes.Buffer
	out := sink.NewCSVSink(&buf, sink.Options{IncludeTicker: true})
	f := &mapFetcher{counts: map[string]int{"AAA": 0, "BBB": 2}}
	m := metrics.New()

	rep, err := New(f, constScorer, out, Options{Metrics: m}).RunAll(context.Background(), []string{"AAA", "BBB"}, start, end, 10)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "one header plus two data rows")
	assert.Equal(t, "Ticker,Date,Headline,Sentiment Score", lines[0])
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "BBB,"), l)
	}
	assert.NotContains(t, buf.String(), "AAA")

	require.Len(t, rep.Results, 2)
	assert.False(t, rep.Results[0].Written)
	assert.True(t, rep.Results[1].Written)
	assert.Equal(t, models.Positive, rep.Results[1].Summary.Classification)
	assert.Equal(t, 2, rep.Rows())
	assert.Equal(t, 1, rep.Written())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues("written")))
}

func TestRunAllPreservesInputOrder(t *testing.T) {
	var buf bytes.Buffer
	out := sink.NewCSVSink(&buf, sink.Options{IncludeTicker: true})
	f := &mapFetcher{counts: map[string]int{"CCC": 1, "AAA": 1, "BBB": 1}}

	_, err := New(f, constScorer, out, Options{}).RunAll(context.Background(), []string{"CCC", "AAA", "BBB"}, start, end, 5)
	require.NoError(t, err)

	rows, err := sink.ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"CCC", "AAA", "BBB"}, []string{rows[0].Ticker, rows[1].Ticker, rows[2].Ticker})
	assert.Equal(t, "2024-01-01", rows[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 0.2, rows[0].Score, 1e-9)
}

// failingSink fails on the nth batch.
type failingSink struct {
	batches [][]models.ScoredEntry
	failAt  int
}

func (s *failingSink) WriteBatch(entries []models.ScoredEntry) error {
	if len(s.batches)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.batches = append(s.batches, entries)
	return nil
}

func TestRunAllSinkFailureIsFatal(t *testing.T) {
	out := &failingSink{failAt: 2}
	f := &mapFetcher{counts: map[string]int{"AAA": 1, "BBB": 1, "CCC": 1}}

	rep, err := New(f, constScorer, out, Options{}).RunAll(context.Background(), []string{"AAA", "BBB", "CCC"}, start, end, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write BBB")
	assert.Contains(t, err.Error(), "disk full")

	require.Len(t, out.batches, 1, "AAA was written before the failure")
	assert.Equal(t, "AAA", out.batches[0][0].Ticker)
	assert.Equal(t, []string{"AAA", "BBB"}, f.calls, "no ticker runs after the failure")
	require.Len(t, rep.Results, 1)
}

func TestRunAllFetchErrorStops(t *testing.T) {
	out := &failingSink{}
	f := &mapFetcher{
		counts: map[string]int{"AAA": 1},
		errs:   map[string]error{"BBB": context.Canceled},
	}

	_, err := New(f, constScorer, out, Options{}).RunAll(context.Background(), []string{"AAA", "BBB", "CCC"}, start, end, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, out.batches, 1)
}

func TestRunAllConcurrent(t *testing.T) {
	var buf bytes.Buffer
	out := sink.NewCSVSink(&buf, sink.Options{IncludeTicker: true})

	tickers := []string{"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7"}
	counts := map[string]int{}
	for i, tk := range tickers {
		counts[tk] = i % 4 // T0 and T4 are empty
	}
	f := &mapFetcher{counts: counts}

	rep, err := New(f, constScorer, out, Options{Concurrency: 4}).RunAll(context.Background(), tickers, start, end, 10)
	require.NoError(t, err)

	require.Len(t, rep.Results, len(tickers))
	for i, r := range rep.Results {
		assert.Equal(t, tickers[i], r.Ticker, "report keeps input order")
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "Ticker,Date"))
	rows, err := sink.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Len(t, rows, 12)
	assert.Equal(t, 12, rep.Rows())
	assert.Equal(t, 6, rep.Written())
}

func TestRunAllCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &mapFetcher{counts: map[string]int{"AAA": 1}}

	rep, err := New(f, constScorer, &failingSink{}, Options{}).RunAll(ctx, []string{"AAA"}, start, end, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Results)
	assert.Empty(t, f.calls)
}
