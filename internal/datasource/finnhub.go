package datasource

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"go.uber.org/zap"

	"github.com/seenimoa/headlines/internal/infra"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// FinnhubOptions configures a Finnhub provider.
type FinnhubOptions struct {
	APIKey            string
	RequestsPerMinute int
	Logger            *zap.SugaredLogger
}

// companyNewsFunc fetches company news for symbol between two "2006-01-02" days.
type companyNewsFunc func(ctx context.Context, symbol, from, to string) ([]finnhub.CompanyNews, *http.Response, error)

// Finnhub searches the Finnhub company-news endpoint. Only the ticker of a query is
// used; Finnhub has no free-text search.
type Finnhub struct {
	fetch   companyNewsFunc
	limiter *infra.Limiter
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewFinnhub creates a Finnhub provider. It fails with ErrMissingAPIKey without a key.
func NewFinnhub(opts FinnhubOptions) (*Finnhub, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("finnhub: %w", ErrMissingAPIKey)
	}

	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", opts.APIKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi

	return &Finnhub{
		fetch: func(ctx context.Context, symbol, from, to string) ([]finnhub.CompanyNews, *http.Response, error) {
			return client.CompanyNews(ctx).Symbol(symbol).From(from).To(to).Execute()
		},
		limiter: infra.NewLimiter("finnhub", opts.RequestsPerMinute),
		log:     logger.OrNop(opts.Logger),
		now:     time.Now,
	}, nil
}

// Name returns the provider name.
func (f *Finnhub) Name() string { return "Finnhub" }

// Search fetches company news for q.Ticker. A recency window is converted to a day
// range ending today.
func (f *Finnhub) Search(ctx context.Context, q Query) ([]models.NewsEntry, error) {
	if q.Ticker == "" {
		return nil, fmt.Errorf("finnhub: query %q has no ticker", q.Text)
	}

	from, to := q.From, q.To
	if !q.HasRange() {
		when := q.When
		if when == "" {
			when = "7d"
		}
		days, err := utils.ParsePeriod(when)
		if err != nil {
			return nil, fmt.Errorf("finnhub: %w", err)
		}
		from, to = utils.RangeForPeriod(f.now().UTC(), days)
	}
	window := models.DateWindow{Start: utils.TruncateDay(from), End: utils.TruncateDay(to)}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, httpResp, err := f.fetch(ctx, q.Ticker, utils.FormatDate(window.Start), utils.FormatDate(window.End))
	if err != nil {
		if httpResp != nil && httpResp.StatusCode >= 400 {
			return nil, &ErrHTTP{StatusCode: httpResp.StatusCode, Status: httpResp.Status, Body: err.Error()}
		}
		return nil, fmt.Errorf("finnhub company news %s: %w", q.Ticker, err)
	}

	entries := make([]models.NewsEntry, 0, len(res))
	for _, n := range res {
		e, ok := f.toEntry(n, q.Ticker)
		if !ok || !window.Contains(e.PublishedAt) {
			continue
		}
		entries = append(entries, e)
	}

	f.log.Debugw("finnhub search", "query", q.String(), "items", len(res), "kept", len(entries))
	return entries, nil
}

func (f *Finnhub) toEntry(n finnhub.CompanyNews, ticker string) (models.NewsEntry, bool) {
	if n.Headline == nil || strings.TrimSpace(*n.Headline) == "" || n.Datetime == nil {
		return models.NewsEntry{}, false
	}

	e := models.NewsEntry{
		Title:       strings.TrimSpace(*n.Headline),
		PublishedAt: time.Unix(*n.Datetime, 0).UTC(),
		Ticker:      ticker,
		Source:      f.Name(),
	}
	if n.Url != nil {
		e.URL = *n.Url
	}
	if n.Source != nil && *n.Source != "" {
		e.Source = *n.Source
	}
	if n.Summary != nil {
		e.Summary = *n.Summary
	}
	return e, true
}
