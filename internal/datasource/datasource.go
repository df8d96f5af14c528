// Package datasource provides news search providers. It defines the common
// SearchProvider interface and implements Google News RSS search and the
// Finnhub company-news API.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// SearchProvider searches for news headlines.
type SearchProvider interface {
	// Name returns the human-readable name of this provider.
	Name() string

	// Search returns the entries matching q. An empty result is not an error.
	Search(ctx context.Context, q Query) ([]models.NewsEntry, error)
}

// Query is a provider-independent news search.
// From and To bound a closed range of calendar days; zero values mean unbounded.
// When, if set, asks for a recency window such as "7d" instead of a date range.
type Query struct {
	Text   string
	Ticker string
	From   time.Time
	To     time.Time
	When   string
}

// StockQuery builds the search used for a ticker over a closed day range.
func StockQuery(ticker string, from, to time.Time) Query {
	return Query{
		Text:   ticker + " stock",
		Ticker: ticker,
		From:   from,
		To:     to,
	}
}

// RecentQuery builds the search used for a ticker over a recency window.
func RecentQuery(ticker, when string) Query {
	return Query{
		Text:   ticker + " stock",
		Ticker: ticker,
		When:   when,
	}
}

// Window returns the query's day range as a DateWindow.
func (q Query) Window() models.DateWindow {
	return models.DateWindow{Start: utils.TruncateDay(q.From), End: utils.TruncateDay(q.To)}
}

// HasRange reports whether the query is bounded by dates.
func (q Query) HasRange() bool {
	return !q.From.IsZero() && !q.To.IsZero()
}

// String renders the query for logs and cache keys.
func (q Query) String() string {
	s := q.Text
	if q.Ticker != "" {
		s += " [" + q.Ticker + "]"
	}
	if q.HasRange() {
		s += " " + utils.FormatDate(q.From) + ".." + utils.FormatDate(q.To)
	}
	if q.When != "" {
		s += " when:" + q.When
	}
	return s
}

// --- Sentinel errors ---

// ErrRateLimited is returned when a provider rate-limits the request.
var ErrRateLimited = errors.New("rate limited by news provider")

// ErrMissingAPIKey is returned when a provider requires a key that is not configured.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrUnknownProvider is returned by NewProvider for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown news provider")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Unwrap maps 429 responses onto ErrRateLimited.
func (e *ErrHTTP) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}

// IsRetryable reports whether a provider error is worth retrying.
// Client errors other than 429 and missing credentials are permanent.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// newHTTPClient returns a client with the given timeout (30s when zero).
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}
