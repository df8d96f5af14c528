// Package batch runs headline fetches for many tickers into one sink.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/headlines/internal/analysis/sentiment"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/internal/metrics"
	"github.com/seenimoa/headlines/pkg/models"
)

// Fetcher returns the headlines of one ticker over a closed day range.
type Fetcher interface {
	FetchHistorical(ctx context.Context, ticker string, start, end time.Time, maxResults int) ([]models.NewsEntry, error)
}

// Sink receives each ticker's scored headlines as one batch.
type Sink interface {
	WriteBatch(entries []models.ScoredEntry) error
}

// Options configures a Runner.
type Options struct {
	// Concurrency is the number of tickers fetched at once. Values below 2 run
	// tickers one after another in input order.
	Concurrency int
	Logger      *zap.SugaredLogger
	Metrics     metrics.Recorder
}

// Runner fetches, scores and writes tickers.
type Runner struct {
	fetcher     Fetcher
	scorer      sentiment.Scorer
	sink        Sink
	concurrency int
	log         *zap.SugaredLogger
	metrics     metrics.Recorder
}

// New creates a Runner.
func New(fetcher Fetcher, scorer sentiment.Scorer, sink Sink, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Runner{
		fetcher:     fetcher,
		scorer:      scorer,
		sink:        sink,
		concurrency: opts.Concurrency,
		log:         logger.OrNop(opts.Logger),
		metrics:     opts.Metrics,
	}
}

// TickerResult is the outcome for one ticker.
type TickerResult struct {
	Ticker  string
	Summary models.Summary
	Written bool
	Elapsed time.Duration
}

// Report summarizes a batch run. Results are in input order.
type Report struct {
	Results []TickerResult
	Elapsed time.Duration
}

// Rows returns the number of rows written across all tickers.
func (r Report) Rows() int {
	n := 0
	for _, t := range r.Results {
		n += t.Summary.Count
	}
	return n
}

// Written returns how many tickers produced rows.
func (r Report) Written() int {
	n := 0
	for _, t := range r.Results {
		if t.Written {
			n++
		}
	}
	return n
}

// RunAll processes every ticker. A ticker with no headlines is logged and skipped.
// Each non-empty ticker is written to the sink as soon as it is scored, so earlier
// tickers survive a later failure. A sink error stops the batch and is returned
// along with the results gathered so far.
func (r *Runner) RunAll(ctx context.Context, tickers []string, start, end time.Time, maxPerTicker int) (Report, error) {
	began := time.Now()
	results := make([]TickerResult, len(tickers))
	done := make([]bool, len(tickers))

	r.log.Infow("batch started", "tickers", len(tickers), "concurrency", r.concurrency)

	var err error
	if r.concurrency == 1 {
		for i, t := range tickers {
			if err = ctx.Err(); err != nil {
				break
			}
			if results[i], err = r.runOne(ctx, t, start, end, maxPerTicker); err != nil {
				break
			}
			done[i] = true
		}
	} else {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i, t := range tickers {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := r.runOne(gctx, t, start, end, maxPerTicker)
				if err != nil {
					return err
				}
				mu.Lock()
				results[i], done[i] = res, true
				mu.Unlock()
				return nil
			})
		}
		err = g.Wait()
	}

	rep := Report{Elapsed: time.Since(began)}
	for i := range results {
		if done[i] {
			rep.Results = append(rep.Results, results[i])
		}
	}

	if err != nil {
		r.log.Errorw("batch aborted", "completed", len(rep.Results), "error", err)
		return rep, err
	}
	r.log.Infow("batch finished",
		"tickers", len(tickers),
		"written", rep.Written(),
		"rows", rep.Rows(),
		"elapsed", rep.Elapsed,
	)
	return rep, nil
}

func (r *Runner) runOne(ctx context.Context, ticker string, start, end time.Time, maxResults int) (TickerResult, error) {
	began := time.Now()
	res := TickerResult{Ticker: ticker}

	entries, err := r.fetcher.FetchHistorical(ctx, ticker, start, end, maxResults)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if len(entries) == 0 {
		res.Summary = sentiment.Summarize(ticker, nil)
		res.Elapsed = time.Since(began)
		r.metrics.TickerDone(false, res.Elapsed)
		r.log.Infow("no headlines found", "ticker", ticker)
		return res, nil
	}

	scored := sentiment.ScoreEntries(r.scorer, entries)
	for i := range scored {
		scored[i].Ticker = ticker
	}
	if err := r.sink.WriteBatch(scored); err != nil {
		return res, fmt.Errorf("write %s: %w", ticker, err)
	}

	res.Summary = sentiment.Summarize(ticker, scored)
	res.Written = true
	res.Elapsed = time.Since(began)
	r.metrics.TickerDone(true, res.Elapsed)
	r.log.Infow("ticker written",
		"ticker", ticker,
		"rows", len(scored),
		"average", res.Summary.AverageScore,
		"classification", res.Summary.Classification,
	)
	return res, nil
}
