// Package metrics exposes Prometheus counters for headline fetch runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives fetch and batch events. A nil *Metrics is a valid no-op Recorder.
type Recorder interface {
	WindowFetched(ok bool)
	EntriesAccepted(n int)
	DuplicatesSkipped(n int)
	TickerDone(written bool, elapsed time.Duration)
}

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Windows        *prometheus.CounterVec
	Accepted       prometheus.Counter
	Duplicates     prometheus.Counter
	Tickers        *prometheus.CounterVec
	TickerDuration prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Windows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headlines_windows_total",
				Help: "Date windows fetched from the news provider",
			},
			[]string{"status"}, // ok|failed
		),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_entries_accepted_total",
			Help: "Unique headlines accepted into results",
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_duplicates_total",
			Help: "Headlines skipped as already seen in the run",
		}),
		Tickers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headlines_tickers_total",
				Help: "Tickers processed by batch runs",
			},
			[]string{"status"}, // written|empty
		),
		TickerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "headlines_ticker_duration_seconds",
			Help:    "Time to fetch and score one ticker",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
	m.registry.MustRegister(m.Windows, m.Accepted, m.Duplicates, m.Tickers, m.TickerDuration)
	return m
}

// WindowFetched counts one provider window call.
func (m *Metrics) WindowFetched(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.Windows.WithLabelValues(status).Inc()
}

// EntriesAccepted adds n accepted entries.
func (m *Metrics) EntriesAccepted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Accepted.Add(float64(n))
}

// DuplicatesSkipped adds n skipped duplicates.
func (m *Metrics) DuplicatesSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Duplicates.Add(float64(n))
}

// TickerDone records a finished ticker.
func (m *Metrics) TickerDone(written bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "written"
	if !written {
		status = "empty"
	}
	m.Tickers.WithLabelValues(status).Inc()
	m.TickerDuration.Observe(elapsed.Seconds())
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) WindowFetched(bool) {}
func (Nop) EntriesAccepted(int) {}
func (Nop) DuplicatesSkipped(int) {}
func (Nop) TickerDone(bool, time.Duration) {}
