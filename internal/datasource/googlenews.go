package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/seenimoa/headlines/internal/infra"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// DefaultGoogleNewsURL is the Google News host used when no base URL is configured.
const DefaultGoogleNewsURL = "https://news.google.com"

// GoogleNewsOptions configures a GoogleNews provider.
type GoogleNewsOptions struct {
	BaseURL           string
	Language          string // e.g., "en"
	Country           string // e.g., "US"
	RequestsPerMinute int
	Timeout           time.Duration
	Logger            *zap.SugaredLogger
}

// GoogleNews searches the Google News RSS endpoint.
//
// A closed day range [From, To] is sent as "after:From-1 before:To+1" since both
// operators are exclusive, and items published outside the range are dropped, so
// adjacent windows never return the same boundary-day article twice.
type GoogleNews struct {
	baseURL  string
	language string
	country  string
	client   *http.Client
	limiter  *infra.Limiter
	parser   *gofeed.Parser
	log      *zap.SugaredLogger
}

// NewGoogleNews creates a Google News RSS search provider.
func NewGoogleNews(opts GoogleNewsOptions) *GoogleNews {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGoogleNewsURL
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Country == "" {
		opts.Country = "US"
	}
	return &GoogleNews{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		language: opts.Language,
		country:  strings.ToUpper(opts.Country),
		client:   newHTTPClient(opts.Timeout),
		limiter:  infra.NewLimiter("googlenews", opts.RequestsPerMinute),
		parser:   gofeed.NewParser(),
		log:      logger.OrNop(opts.Logger),
	}
}

// Name returns the provider name.
func (g *GoogleNews) Name() string { return "Google News" }

// Search runs q against the RSS search endpoint.
func (g *GoogleNews) Search(ctx context.Context, q Query) ([]models.NewsEntry, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := g.searchURL(q)
	body, err := doGet(ctx, g.client, searchURL, map[string]string{
		"Accept": "application/rss+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := g.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", q, err)
	}

	window := q.Window()
	entries := make([]models.NewsEntry, 0, len(feed.Items))
	dropped := 0
	for _, item := range feed.Items {
		e, ok := g.toEntry(item, q.Ticker)
		if !ok {
			dropped++
			continue
		}
		if q.HasRange() && !window.Contains(e.PublishedAt) {
			dropped++
			continue
		}
		entries = append(entries, e)
	}

	g.log.Debugw("google news search",
		"query", q.String(),
		"items", len(feed.Items),
		"kept", len(entries),
		"dropped", dropped,
	)
	return entries, nil
}

// searchURL builds the RSS search URL for q.
func (g *GoogleNews) searchURL(q Query) string {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = q.Ticker
	}
	switch {
	case q.HasRange():
		text += " after:" + utils.FormatDate(utils.AddDays(utils.TruncateDay(q.From), -1)) +
			" before:" + utils.FormatDate(utils.AddDays(utils.TruncateDay(q.To), 1))
	case q.When != "":
		text += " when:" + q.When
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("hl", g.language+"-"+g.country)
	params.Set("gl", g.country)
	params.Set("ceid", g.country+":"+g.language)
	return g.baseURL + "/rss/search?" + params.Encode()
}

// toEntry converts a feed item. Items without a title or a publish time are rejected
// because they cannot be identified for deduplication.
func (g *GoogleNews) toEntry(item *gofeed.Item, ticker string) (models.NewsEntry, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return models.NewsEntry{}, false
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published == nil {
		return models.NewsEntry{}, false
	}

	return models.NewsEntry{
		Title:       title,
		PublishedAt: published.UTC(),
		Ticker:      ticker,
		URL:         item.Link,
		Source:      publisherFromTitle(title, g.Name()),
		Summary:     cleanHTML(item.Description),
	}, true
}

// publisherFromTitle extracts the publisher Google News appends as "Headline - Publisher".
func publisherFromTitle(title, fallback string) string {
	i := strings.LastIndex(title, " - ")
	if i < 0 || i+3 >= len(title) {
		return fallback
	}
	return strings.TrimSpace(title[i+3:])
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
