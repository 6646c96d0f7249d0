package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexpulse/dexpulse/internal/cache"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := cache.NewTTLCache()
	t.Cleanup(c.Stop)

	cfg := ClientConfig{Timeout: 0, RequestsPerSec: 1000, Burst: 1000}
	client := NewClient(cfg, c, nil)
	client.SetBaseURL(server.URL)
	client.SetTokenListURL(server.URL + "/all")
	return client, server
}

func TestTokenPairsDecodesLooseNumerics(t *testing.T) {
	var hits int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/token-pairs/v1/solana/tok1", r.URL.Path)
		assert.Equal(t, "dexPulse/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{
			"chainId": "solana",
			"pairAddress": "p1",
			"baseToken": {"address": "tok1", "name": "Tok", "symbol": "TOK"},
			"marketCap": "123456.7",
			"liquidity": {"usd": null},
			"priceChange": {"m5": "1.5"},
			"txns": {"m5": {"buys": 3, "sells": 1}}
		}]`))
	}))

	pairs, err := client.TokenPairs(context.Background(), "tok1")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 123456.7, pairs[0].MarketCap.Float())
	assert.Zero(t, pairs[0].LiquidityUSD())
	assert.Equal(t, 1.5, pairs[0].Change5())

	// Second call inside the TTL is served from cache.
	_, err = client.TokenPairs(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSearchUnwrapsPairsEnvelope(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "bonk coin", r.URL.Query().Get("q"))
		w.Write([]byte(`{"pairs": [{"chainId": "solana", "pairAddress": "p1"}]}`))
	}))

	pairs, err := client.Search(context.Background(), "bonk coin")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "p1", pairs[0].PairAddress)
}

func TestBoostedTokens(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-boosts/top/v1", r.URL.Path)
		w.Write([]byte(`[
			{"chainId": "solana", "tokenAddress": "a"},
			{"chainId": "ethereum", "tokenAddress": "b"}
		]`))
	}))

	tokens, err := client.BoostedTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "solana", tokens[0].ChainID)
}

func TestUpstreamErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write(long)
	}))

	_, err := client.TokenPairs(context.Background(), "tok1")
	require.Error(t, err)
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Len(t, upstream.Body, 200)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 8; i++ {
		_, err := client.TokenPairs(context.Background(), "tok1")
		assert.Error(t, err)
	}
	// The breaker opened at five consecutive failures and short-circuits
	// the rest without hitting upstream.
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestTokenListFetch(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all", r.URL.Path)
		w.Write([]byte(`[{"address": "So111", "name": "Wrapped SOL", "symbol": "SOL", "tags": ["verified"]}]`))
	}))

	list, err := client.TokenList(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SOL", list[0].Symbol)
}
