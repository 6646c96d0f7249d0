// Package market talks to the upstream market-data providers: DexScreener
// for pairs and boosts, Jupiter for the verified token list. All fetches go
// through the snapshot cache, a per-host rate limiter and a circuit breaker.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dexpulse/dexpulse/internal/cache"
	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/metrics"
)

const (
	dexscreenerBase = "https://api.dexscreener.com"
	jupiterListURL  = "https://token.jup.ag/all"
	userAgent       = "dexPulse/1.0"

	// Per-endpoint cache TTLs.
	searchTTL    = 15 * time.Second
	pairsTTL     = 12 * time.Second
	boostsTTL    = 30 * time.Second
	tokenListTTL = 6 * time.Hour

	// Upstream error bodies are truncated to this many bytes.
	errBodyLimit = 200
)

// ClientConfig tunes the outbound HTTP behavior.
type ClientConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
}

// DefaultClientConfig returns settings safe for the free DexScreener tier.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        10 * time.Second,
		RequestsPerSec: 4,
		Burst:          8,
	}
}

// Client fetches JSON by URL with caching, rate limiting and a breaker.
type Client struct {
	httpClient *http.Client
	cache      cache.Cache
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Registry
	baseURL    string
	listURL    string
}

// NewClient creates a market client. The cache is required; metrics may be
// nil for callers that do not report.
func NewClient(cfg ClientConfig, c cache.Cache, m *metrics.Registry) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dexscreener",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      c,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:    breaker,
		metrics:    m,
		baseURL:    dexscreenerBase,
		listURL:    jupiterListURL,
	}
}

// SetBaseURL points the client at a different upstream, used by tests.
func (c *Client) SetBaseURL(base string) { c.baseURL = base }

// SetTokenListURL points the token-list fetch elsewhere, used by tests.
func (c *Client) SetTokenListURL(u string) { c.listURL = u }

// UpstreamError describes a non-2xx upstream response. The body excerpt is
// truncated so a provider HTML error page cannot flood the logs.
type UpstreamError struct {
	URL    string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d from %s: %s", e.Status, e.URL, e.Body)
}

// FetchJSON retrieves a URL through the cache and decodes it into out.
// endpoint labels the metric series; ttl bounds the cache entry lifetime.
func (c *Client) FetchJSON(ctx context.Context, fetchURL, endpoint string, ttl time.Duration, out any) error {
	if data, ok := c.cache.Get(ctx, fetchURL); ok {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "hit").Inc()
		}
		return json.Unmarshal(data, out)
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	raw, err := c.breaker.Execute(func() (any, error) {
		return c.doFetch(ctx, fetchURL)
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
			c.metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}

	data := raw.([]byte)
	c.cache.Set(ctx, fetchURL, data, ttl)
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "fetch").Inc()
	}
	return json.Unmarshal(data, out)
}

func (c *Client) doFetch(ctx context.Context, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, &UpstreamError{URL: fetchURL, Status: resp.StatusCode, Body: string(excerpt)}
	}

	return io.ReadAll(resp.Body)
}

// TokenPairs fetches every trading pair for a token address.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]*domain.PairSnapshot, error) {
	u := fmt.Sprintf("%s/token-pairs/v1/solana/%s", c.baseURL, url.PathEscape(address))
	var pairs []*domain.PairSnapshot
	if err := c.FetchJSON(ctx, u, "token_pairs", pairsTTL, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Search runs a pair search query upstream.
func (c *Client) Search(ctx context.Context, query string) ([]*domain.PairSnapshot, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))
	var result struct {
		Pairs []*domain.PairSnapshot `json:"pairs"`
	}
	if err := c.FetchJSON(ctx, u, "search", searchTTL, &result); err != nil {
		return nil, err
	}
	return result.Pairs, nil
}

// BoostedToken is one entry of the promoted-token seed list.
type BoostedToken struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// BoostedTokens fetches the promoted-token seed list.
func (c *Client) BoostedTokens(ctx context.Context) ([]BoostedToken, error) {
	u := c.baseURL + "/token-boosts/top/v1"
	var tokens []BoostedToken
	if err := c.FetchJSON(ctx, u, "boosts", boostsTTL, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// TokenList fetches the Jupiter verified token list, cached for six hours.
func (c *Client) TokenList(ctx context.Context) ([]ListedToken, error) {
	var list []ListedToken
	if err := c.FetchJSON(ctx, c.listURL, "token_list", tokenListTTL, &list); err != nil {
		return nil, err
	}
	return list, nil
}
