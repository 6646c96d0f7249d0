package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/market"
	"github.com/dexpulse/dexpulse/internal/scan"
)

type stubBackend struct {
	mu      sync.Mutex
	pairs   map[string][]*domain.PairSnapshot
	boosted []market.BoostedToken
}

func (s *stubBackend) TokenPairs(ctx context.Context, address string) ([]*domain.PairSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairs[address], nil
}

func (s *stubBackend) BoostedTokens(ctx context.Context) ([]market.BoostedToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boosted, nil
}

// accumulationPair scores high enough on the smart-money classifier to
// surface in the merged feed on the first tick.
func accumulationPair(address string) *domain.PairSnapshot {
	return &domain.PairSnapshot{
		ChainID:     "solana",
		PairAddress: address + "-pair",
		URL:         "https://dexscreener.com/solana/" + address + "-pair",
		BaseToken:   domain.TokenRef{Address: address, Name: "Pulse", Symbol: "PLS"},
		PriceUSD:    "0.002",
		MarketCap:   domain.Num(100000),
		Liquidity:   &domain.PairLiquidity{USD: domain.Num(50000)},
		Volume:      domain.PairVolume{H24: domain.Num(400000)},
		PriceChange: domain.PairPriceChange{M5: domain.Num(3), M15: domain.Num(2)},
		Txns: domain.PairTxns{
			M5:  domain.TxnWindow{Buys: domain.Num(14), Sells: domain.Num(4)},
			M15: domain.TxnWindow{Buys: domain.Num(12), Sells: domain.Num(4)},
		},
	}
}

func newTestPipeline(backend *stubBackend) *scan.Pipeline {
	return scan.NewPipeline(scan.PipelineConfig{
		Orchestrator: scan.NewOrchestrator(backend, nil, nil, 2),
		Fetcher:      backend,
		Streaks:      scan.NewStreakTracker(domain.SystemClock),
	})
}

func newTestRelay(t *testing.T, backend *stubBackend, api string, statePath string) *Relay {
	t.Helper()
	r, err := New(Config{
		BotToken:  "test-token",
		ChatID:    "-100123",
		StatePath: statePath,
	}, newTestPipeline(backend))
	require.NoError(t, err)
	if api != "" {
		r.apiBase = api
	}
	return r
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{ChatID: "1"}, nil)
	assert.ErrorContains(t, err, "missing bot token")

	_, err = New(Config{BotToken: "x"}, nil)
	assert.ErrorContains(t, err, "missing chat id")
}

func TestSendMessagePostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	r := newTestRelay(t, &stubBackend{}, srv.URL, "")
	require.NoError(t, r.SendMessage(context.Background(), "hello"))

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "-100123", gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
}

func TestSendMessageSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	r := newTestRelay(t, &stubBackend{}, srv.URL, "")
	err := r.SendMessage(context.Background(), "hello")
	assert.ErrorContains(t, err, "chat not found")
}

func TestSendMessageSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := newTestRelay(t, &stubBackend{}, srv.URL, "")
	err := r.SendMessage(context.Background(), "hello")
	assert.ErrorContains(t, err, "429")
}

func TestRunOnceSendsEachAddressOnce(t *testing.T) {
	backend := &stubBackend{
		boosted: []market.BoostedToken{{ChainID: "solana", TokenAddress: "tok1"}},
		pairs: map[string][]*domain.PairSnapshot{
			"tok1": {accumulationPair("tok1")},
		},
	}

	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = append(sent, body["text"].(string))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	statePath := filepath.Join(t.TempDir(), "relay", "telegram_all_signals.json")
	r := newTestRelay(t, backend, srv.URL, statePath)

	require.NoError(t, r.runOnce(context.Background()))
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "New AllSignals")
	assert.Contains(t, sent[0], "Token: Pulse (PLS)")
	assert.Contains(t, sent[0], "CA: tok1")

	// Second poll within the dedupe window stays silent.
	require.NoError(t, r.runOnce(context.Background()))
	assert.Len(t, sent, 1)

	// The dedupe state survives a restart.
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var state struct {
		Sent map[string]int64 `json:"sent"`
	}
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Contains(t, state.Sent, "tok1")

	fresh := newTestRelay(t, backend, srv.URL, statePath)
	require.NoError(t, fresh.runOnce(context.Background()))
	assert.Len(t, sent, 1)
}

func TestPruneExpiresOldEntries(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	r, err := New(Config{
		BotToken:     "t",
		ChatID:       "c",
		DedupeWindow: time.Hour,
		Clock:        func() time.Time { return now },
	}, nil)
	require.NoError(t, err)

	r.sent["old"] = now.Add(-2 * time.Hour).UnixMilli()
	r.sent["recent"] = now.Add(-10 * time.Minute).UnixMilli()
	r.prune()

	assert.NotContains(t, r.sent, "old")
	assert.Contains(t, r.sent, "recent")
}

func TestFormatMessageLines(t *testing.T) {
	item := &scan.Item{
		Address:  "tok1",
		Ident:    domain.TokenIdentity{Address: "tok1", Name: "Pulse", Symbol: "PLS"},
		BestPair: accumulationPair("tok1"),
		Sources:  []string{"Smart Money", "Hot Buys"},
	}

	msg := formatMessage(item)
	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "\U0001F514 New AllSignals", lines[0])
	assert.Equal(t, "Token: Pulse (PLS)", lines[1])
	assert.Equal(t, "CA: tok1", lines[2])
	assert.Equal(t, "Price: $0.002000", lines[3])
	assert.Equal(t, "Market Cap: $100,000", lines[4])
	assert.Equal(t, "Source: Smart Money, Hot Buys", lines[5])
	assert.Equal(t, "Dexscreener: https://dexscreener.com/solana/tok1-pair", lines[6])
}

func TestFormatMessageFallbacks(t *testing.T) {
	item := &scan.Item{Address: "tok9", Ident: domain.TokenIdentity{Address: "tok9"}}

	msg := formatMessage(item)
	assert.Contains(t, msg, "Token: Token")
	assert.Contains(t, msg, "Price: N/A")
	assert.Contains(t, msg, "Market Cap: N/A")
	assert.Contains(t, msg, "Source: All Signals")
	assert.Contains(t, msg, "Dexscreener: https://dexscreener.com/solana/tok9")
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "N/A", formatUSD(0))
	assert.Equal(t, "$0.000450", formatUSD(0.00045))
	assert.Equal(t, "$1,234.5678", formatUSD(1234.56789))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1,234,567", groupThousands("1234567", 0))
	assert.Equal(t, "987", groupThousands("987", 0))
	assert.Equal(t, "12,345.67", groupThousands("12345.6789", 2))
}
