// Package newsfetch drives historical headline searches. A date range is split into
// fixed-size day windows, each window is fetched from a search provider with a share
// of the remaining result budget, and entries are deduplicated across the whole run.
package newsfetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/headlines/internal/datasource"
	"github.com/seenimoa/headlines/internal/infra"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/internal/metrics"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// DefaultChunkDays is the window size used when Options.ChunkDays is not set.
const DefaultChunkDays = 30

var (
	// ErrInvalidRange is returned when the start date is after the end date.
	ErrInvalidRange = errors.New("start date is after end date")
	// ErrInvalidMaxResults is returned when maxResults is not positive.
	ErrInvalidMaxResults = errors.New("max results must be positive")
)

// Options configures an Orchestrator.
type Options struct {
	ChunkDays int
	Retry     infra.RetryPolicy
	Logger    *zap.SugaredLogger
	Metrics   metrics.Recorder
}

// Orchestrator fetches headlines for one ticker at a time. It holds no per-run state
// and is safe for concurrent use when its provider is.
type Orchestrator struct {
	provider  datasource.SearchProvider
	chunkDays int
	retry     infra.RetryPolicy
	log       *zap.SugaredLogger
	metrics   metrics.Recorder
}

// New creates an Orchestrator over provider.
func New(provider datasource.SearchProvider, opts Options) *Orchestrator {
	if opts.ChunkDays < 1 {
		opts.ChunkDays = DefaultChunkDays
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = datasource.IsRetryable
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Orchestrator{
		provider:  provider,
		chunkDays: opts.ChunkDays,
		retry:     opts.Retry,
		log:       logger.OrNop(opts.Logger),
		metrics:   opts.Metrics,
	}
}

// Result is the outcome of one historical run.
type Result struct {
	Entries        []models.NewsEntry
	WindowsPlanned int
	WindowsFetched int
	WindowsFailed  int
	Duplicates     int
	Elapsed        time.Duration
}

// Accepted returns the number of unique entries collected.
func (r Result) Accepted() int { return len(r.Entries) }

// FetchHistorical returns up to maxResults unique entries for ticker published
// between start and end (whole days, inclusive).
func (o *Orchestrator) FetchHistorical(ctx context.Context, ticker string, start, end time.Time, maxResults int) ([]models.NewsEntry, error) {
	res, err := o.FetchHistoricalWithStats(ctx, ticker, start, end, maxResults)
	return res.Entries, err
}

// FetchHistoricalWithStats is FetchHistorical with run statistics.
//
// Windows are fetched in order. A window that still fails after retries is logged and
// skipped. Each window may add at most its cap of new entries; entries already seen in
// this run are skipped without using the cap. The run stops as soon as maxResults
// entries are accepted. Only invalid arguments and context cancellation are errors.
func (o *Orchestrator) FetchHistoricalWithStats(ctx context.Context, ticker string, start, end time.Time, maxResults int) (Result, error) {
	return o.StreamHistorical(ctx, ticker, start, end, maxResults, nil)
}

// StreamHistorical runs like FetchHistoricalWithStats and also passes every accepted
// entry to emit as soon as it is accepted. An emit error stops the run and is returned.
func (o *Orchestrator) StreamHistorical(ctx context.Context, ticker string, start, end time.Time, maxResults int, emit func(models.NewsEntry) error) (Result, error) {
	began := time.Now()
	res := Result{Entries: []models.NewsEntry{}}

	if maxResults <= 0 {
		return res, fmt.Errorf("%w: %d", ErrInvalidMaxResults, maxResults)
	}
	plan := NewPlan(start, end, o.chunkDays)
	if plan.Start.After(plan.End) {
		return res, fmt.Errorf("%w: %s > %s", ErrInvalidRange, utils.FormatDate(plan.Start), utils.FormatDate(plan.End))
	}

	budget := &Budget{Max: maxResults}
	cursor := plan.Cursor(budget)
	seen := NewDeduplicator()
	res.WindowsPlanned = cursor.Total()

	log := o.log.With("ticker", ticker, "provider", o.provider.Name())
	log.Infow("historical fetch started",
		"from", utils.FormatDate(plan.Start),
		"to", utils.FormatDate(plan.End),
		"windows", res.WindowsPlanned,
		"max_results", maxResults,
	)

	for !budget.Exhausted() {
		window, limit, ok := cursor.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return o.finish(res, began), err
		}

		entries, err := o.search(ctx, log, datasource.StockQuery(ticker, window.Start, window.End))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return o.finish(res, began), ctxErr
			}
			res.WindowsFailed++
			o.metrics.WindowFetched(false)
			log.Warnw("window fetch failed, skipping",
				"window", cursor.Index(),
				"of", cursor.Total(),
				"from", utils.FormatDate(window.Start),
				"to", utils.FormatDate(window.End),
				"error", err,
			)
			continue
		}
		res.WindowsFetched++
		o.metrics.WindowFetched(true)

		added, dups := 0, 0
		for _, e := range entries {
			if added >= limit || budget.Exhausted() {
				break
			}
			if !seen.Add(e) {
				dups++
				continue
			}
			if e.Ticker == "" {
				e.Ticker = ticker
			}
			res.Entries = append(res.Entries, e)
			budget.Accepted++
			added++
			if emit != nil {
				if err := emit(e); err != nil {
					o.metrics.EntriesAccepted(added)
					return o.finish(res, began), err
				}
			}
		}
		res.Duplicates += dups
		o.metrics.EntriesAccepted(added)
		o.metrics.DuplicatesSkipped(dups)

		log.Debugw("window fetched",
			"window", cursor.Index(),
			"of", cursor.Total(),
			"from", utils.FormatDate(window.Start),
			"to", utils.FormatDate(window.End),
			"returned", len(entries),
			"cap", limit,
			"accepted", added,
			"duplicates", dups,
		)
	}

	res = o.finish(res, began)
	log.Infow("historical fetch finished",
		"accepted", res.Accepted(),
		"windows_fetched", res.WindowsFetched,
		"windows_failed", res.WindowsFailed,
		"duplicates", res.Duplicates,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// FetchRecent runs a single recency search (when is a period such as "7d") and
// returns up to maxResults unique entries. A provider failure is logged and yields an
// empty result.
func (o *Orchestrator) FetchRecent(ctx context.Context, ticker, when string, maxResults int) ([]models.NewsEntry, error) {
	if maxResults <= 0 {
		return []models.NewsEntry{}, fmt.Errorf("%w: %d", ErrInvalidMaxResults, maxResults)
	}
	if _, err := utils.ParsePeriod(when); err != nil {
		return []models.NewsEntry{}, err
	}

	log := o.log.With("ticker", ticker, "provider", o.provider.Name())
	entries, err := o.search(ctx, log, datasource.RecentQuery(ticker, when))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return []models.NewsEntry{}, ctxErr
		}
		o.metrics.WindowFetched(false)
		log.Warnw("recent fetch failed", "when", when, "error", err)
		return []models.NewsEntry{}, nil
	}
	o.metrics.WindowFetched(true)

	seen := NewDeduplicator()
	out := make([]models.NewsEntry, 0, min(len(entries), maxResults))
	dups := 0
	for _, e := range entries {
		if len(out) >= maxResults {
			break
		}
		if !seen.Add(e) {
			dups++
			continue
		}
		if e.Ticker == "" {
			e.Ticker = ticker
		}
		out = append(out, e)
	}
	o.metrics.EntriesAccepted(len(out))
	o.metrics.DuplicatesSkipped(dups)

	log.Infow("recent fetch finished", "when", when, "returned", len(entries), "accepted", len(out))
	return out, nil
}

// search calls the provider with retries.
func (o *Orchestrator) search(ctx context.Context, log *zap.SugaredLogger, q datasource.Query) ([]models.NewsEntry, error) {
	return infra.Retry(ctx, o.retry, func() ([]models.NewsEntry, error) {
		return o.provider.Search(ctx, q)
	}, func(err error, wait time.Duration) {
		log.Debugw("retrying provider search", "query", q.String(), "wait", wait, "error", err)
	})
}

func (o *Orchestrator) finish(res Result, began time.Time) Result {
	res.Elapsed = time.Since(began)
	return res
}
