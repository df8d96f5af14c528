package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seenimoa/headlines/internal/config"
	"github.com/seenimoa/headlines/internal/infra"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/pkg/models"
)

// Provider names accepted by NewProvider.
const (
	ProviderGoogleNews = "googlenews"
	ProviderFinnhub    = "finnhub"
	ProviderAuto       = "auto"
)

// NewProvider builds the search provider selected by cfg.Name. "auto" prefers Finnhub
// when a key is configured and falls back to Google News. Responses are cached for
// cfg.CacheTTL when it is positive.
func NewProvider(cfg config.ProviderConfig, log *zap.SugaredLogger) (SearchProvider, error) {
	log = logger.OrNop(log)

	google := func() SearchProvider {
		return NewGoogleNews(GoogleNewsOptions{
			BaseURL:           cfg.BaseURL,
			Language:          cfg.Language,
			Country:           cfg.Country,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Timeout:           cfg.Timeout(),
			Logger:            log,
		})
	}
	finnhub := func() (SearchProvider, error) {
		return NewFinnhub(FinnhubOptions{
			APIKey:            cfg.FinnhubKey,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Logger:            log,
		})
	}

	var p SearchProvider
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", ProviderGoogleNews:
		p = google()
	case ProviderFinnhub:
		f, err := finnhub()
		if err != nil {
			return nil, err
		}
		p = f
	case ProviderAuto:
		if f, err := finnhub(); err == nil {
			p = NewChain(log, f, google())
		} else {
			p = google()
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		p = NewCached(p, infra.NewCache[[]models.NewsEntry](ttl))
	}
	return p, nil
}

// Cached memoizes successful searches per query.
type Cached struct {
	next  SearchProvider
	cache *infra.Cache[[]models.NewsEntry]
}

// NewCached wraps next with cache.
func NewCached(next SearchProvider, cache *infra.Cache[[]models.NewsEntry]) *Cached {
	return &Cached{next: next, cache: cache}
}

// Name returns the wrapped provider's name.
func (c *Cached) Name() string { return c.next.Name() }

// Search returns the cached result for q or queries the wrapped provider.
// Callers receive a copy and may modify it.
func (c *Cached) Search(ctx context.Context, q Query) ([]models.NewsEntry, error) {
	key := q.String()
	if hit, ok := c.cache.Get(key); ok {
		return append([]models.NewsEntry(nil), hit...), nil
	}

	entries, err := c.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]models.NewsEntry(nil), entries...))
	return entries, nil
}

// Chain tries providers in order and returns the first successful result.
type Chain struct {
	providers []SearchProvider
	log       *zap.SugaredLogger
}

// NewChain creates a fallback chain over providers.
func NewChain(log *zap.SugaredLogger, providers ...SearchProvider) *Chain {
	return &Chain{providers: providers, log: logger.OrNop(log)}
}

// Name joins the chained provider names.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, " > ")
}

// Search returns the first provider result that did not fail. If every provider fails
// the errors are joined.
func (c *Chain) Search(ctx context.Context, q Query) ([]models.NewsEntry, error) {
	var errs []error
	for _, p := range c.providers {
		entries, err := p.Search(ctx, q)
		if err == nil {
			return entries, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warnw("provider failed, trying next", "provider", p.Name(), "query", q.String(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return nil, errors.Join(errs...)
}
