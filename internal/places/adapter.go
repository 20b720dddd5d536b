package places

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/rpggio/groupbite/internal/domain/candidate"
)

// Defaults for Config fields left zero.
const (
	DefaultMaxCandidates = 10
	DefaultMaxPages      = 1
	DefaultTimeout       = 10 * time.Second
)

// DefaultOrigin is used when a search has no origin and none is configured.
var DefaultOrigin = candidate.Coordinate{Lat: 37.7749, Lng: -122.4194}

// Config holds adapter settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	DefaultOrigin *candidate.Coordinate
	MaxCandidates int
	MaxPages      int
	// PageDelay is how long to wait before requesting a next page token.
	PageDelay time.Duration
	// FallbackUnfilteredOnEmpty serves the whole fallback pool when the
	// filters exclude every pool entry.
	FallbackUnfilteredOnEmpty bool
}

// Adapter implements candidate.Source.
type Adapter struct {
	client     *Client
	cfg        Config
	origin     candidate.Coordinate
	logger     *slog.Logger
	onFallback func(reason string)
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithFallbackHook is called every time the fallback pool is served.
func WithFallbackHook(fn func(reason string)) AdapterOption {
	return func(a *Adapter) { a.onFallback = fn }
}

var _ candidate.Source = (*Adapter)(nil)

// NewAdapter creates an adapter from cfg.
func NewAdapter(cfg Config, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	origin := DefaultOrigin
	if cfg.DefaultOrigin != nil {
		origin = *cfg.DefaultOrigin
	}

	a := &Adapter{
		client: NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		cfg:    cfg,
		origin: origin,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchCandidates returns at most MaxCandidates unique candidates for the
// filters, in upstream order. When the API is unavailable the fallback pool,
// filtered the same way, is served instead.
func (a *Adapter) FetchCandidates(ctx context.Context, filters candidate.Filters, origin *candidate.Coordinate) ([]candidate.Candidate, error) {
	filters = filters.Normalize()
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	loc := a.origin
	if origin != nil {
		loc = *origin
	}

	found, err := a.search(ctx, filters, loc)
	if err == nil {
		return found, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !errors.Is(err, candidate.ErrUpstreamUnavailable) {
		return nil, err
	}

	a.logger.Warn("places search unavailable, serving fallback pool", "error", err)
	if a.onFallback != nil {
		a.onFallback(fallbackReason(a.client))
	}
	return a.fallback(filters), nil
}

func (a *Adapter) search(ctx context.Context, filters candidate.Filters, loc candidate.Coordinate) ([]candidate.Candidate, error) {
	req := SearchRequest{
		Location: loc,
		Radius:   int(math.Round(filters.Radius)),
		Type:     filters.Types[0],
		MaxPrice: filters.PriceLevel,
		Keyword:  filters.Keyword,
	}

	var all []candidate.Candidate
	for page := 1; ; page++ {
		result, err := a.client.NearbySearch(ctx, req)
		if err != nil {
			// Pages already fetched beat the fallback pool.
			if len(all) > 0 && ctx.Err() == nil && errors.Is(err, candidate.ErrUpstreamUnavailable) {
				a.logger.Warn("places page failed, keeping earlier pages", "page", page, "error", err)
				break
			}
			return nil, err
		}
		all = append(all, result.Candidates...)
		all = dedupe(all)

		if len(all) >= a.cfg.MaxCandidates || result.NextPageToken == "" || page >= a.cfg.MaxPages {
			break
		}
		if err := sleepCtx(ctx, a.cfg.PageDelay); err != nil {
			return nil, err
		}
		req = SearchRequest{PageToken: result.NextPageToken}
	}

	a.logger.Debug("places search complete", "results", len(all))
	return bound(all, a.cfg.MaxCandidates), nil
}

func (a *Adapter) fallback(filters candidate.Filters) []candidate.Candidate {
	pool := FallbackPool()
	filtered := FilterFallback(pool, filters)
	if len(filtered) == 0 && a.cfg.FallbackUnfilteredOnEmpty {
		filtered = pool
	}
	return bound(filtered, a.cfg.MaxCandidates)
}

func fallbackReason(c *Client) string {
	if !c.Configured() {
		return "no_api_key"
	}
	return "upstream_error"
}

// dedupe drops later occurrences of a candidate ID, preserving order.
func dedupe(list []candidate.Candidate) []candidate.Candidate {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, c := range list {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func bound(list []candidate.Candidate, n int) []candidate.Candidate {
	if list == nil {
		return []candidate.Candidate{}
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
