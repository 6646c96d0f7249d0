package scan

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/market"
)

// stubFetcher serves canned pairs per address.
type stubFetcher struct {
	mu      sync.Mutex
	pairs   map[string][]*domain.PairSnapshot
	errs    map[string]error
	boosted []market.BoostedToken
	calls   int
}

func (f *stubFetcher) TokenPairs(ctx context.Context, address string) ([]*domain.PairSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.errs[address]; err != nil {
		return nil, err
	}
	return f.pairs[address], nil
}

func (f *stubFetcher) BoostedTokens(ctx context.Context) ([]market.BoostedToken, error) {
	return f.boosted, nil
}

// stubVeto blacklists a fixed address set.
type stubVeto struct {
	blocked map[string]bool
	checked []string
}

func (v *stubVeto) Blacklisted(address string) bool { return v.blocked[address] }

func (v *stubVeto) Check(address string, pair *domain.PairSnapshot) bool {
	v.checked = append(v.checked, address)
	return false
}

// healthyPair is liquid, active and calm enough to clear the quality gate.
func healthyPair(address string, liq float64) *domain.PairSnapshot {
	return &domain.PairSnapshot{
		ChainID:     "solana",
		PairAddress: "pair-" + address,
		BaseToken:   domain.TokenRef{Address: address, Name: "Tok " + address, Symbol: "T"},
		MarketCap:   100000,
		Liquidity:   &domain.PairLiquidity{USD: domain.Num(liq)},
		Volume:      domain.PairVolume{H24: 80000},
		PriceChange: domain.PairPriceChange{M5: 1, M15: 2},
		Txns: domain.PairTxns{
			M5:  domain.TxnWindow{Buys: 6, Sells: 5},
			M15: domain.TxnWindow{Buys: 6, Sells: 5},
		},
	}
}

func TestEnrichClassifiesHealthyAddresses(t *testing.T) {
	fetcher := &stubFetcher{pairs: map[string][]*domain.PairSnapshot{
		"a": {healthyPair("a", 50000)},
		"b": {healthyPair("b", 40000)},
	}}
	o := NewOrchestrator(fetcher, nil, nil, 4)

	items := o.Enrich(context.Background(), []string{"a", "b"}, EnrichOptions{})
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotNil(t, it.BestPair)
		assert.NotEmpty(t, it.Ident.Name)
		assert.Equal(t, domain.LabelLow, it.Risk.Label)
	}
}

func TestEnrichDropsFailuresLocally(t *testing.T) {
	fetcher := &stubFetcher{
		pairs: map[string][]*domain.PairSnapshot{
			"good":    {healthyPair("good", 50000)},
			"no-pair": nil,
		},
		errs: map[string]error{"bad": errors.New("upstream 500")},
	}
	o := NewOrchestrator(fetcher, nil, nil, 2)

	items := o.Enrich(context.Background(), []string{"bad", "good", "no-pair"}, EnrichOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].Address)
}

func TestEnrichSkipsBlacklistedWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{pairs: map[string][]*domain.PairSnapshot{
		"good": {healthyPair("good", 50000)},
	}}
	veto := &stubVeto{blocked: map[string]bool{"vetoed": true}}
	o := NewOrchestrator(fetcher, veto, nil, 1)

	items := o.Enrich(context.Background(), []string{"vetoed", "good"}, EnrichOptions{})
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].Address)
	assert.Equal(t, 1, fetcher.calls)
	// Only the fetched address went through the veto transition check.
	assert.Equal(t, []string{"good"}, veto.checked)
}

func TestEnrichHighRiskGate(t *testing.T) {
	// Low liquidity plus volatility on a near-dead tape scores HIGH
	// without tripping any of the trash conditions.
	risky := healthyPair("r", 5000)
	risky.PriceChange.M15 = 26
	risky.Txns = domain.PairTxns{M5: domain.TxnWindow{Buys: 1, Sells: 1}}

	fetcher := &stubFetcher{pairs: map[string][]*domain.PairSnapshot{"r": {risky}}}
	o := NewOrchestrator(fetcher, nil, nil, 1)

	assert.Empty(t, o.Enrich(context.Background(), []string{"r"}, EnrichOptions{}))

	items := o.Enrich(context.Background(), []string{"r"}, EnrichOptions{AllowHighRisk: true})
	require.Len(t, items, 1)
	assert.Equal(t, domain.LabelHigh, items[0].Risk.Label)
}

func TestEnrichCancelledContextReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{pairs: map[string][]*domain.PairSnapshot{
		"a": {healthyPair("a", 50000)},
	}}
	o := NewOrchestrator(fetcher, nil, nil, 1)

	// Must return without deadlock; partial results are acceptable.
	items := o.Enrich(ctx, []string{"a", "b", "c"}, EnrichOptions{})
	assert.LessOrEqual(t, len(items), 3)
}

func TestBoostedSeedFiltersChainAndLimits(t *testing.T) {
	fetcher := &stubFetcher{
		pairs: map[string][]*domain.PairSnapshot{
			"s1": {healthyPair("s1", 50000)},
			"s2": {healthyPair("s2", 50000)},
			"s3": {healthyPair("s3", 50000)},
		},
		boosted: []market.BoostedToken{
			{ChainID: "ethereum", TokenAddress: "eth1"},
			{ChainID: "solana", TokenAddress: "s1"},
			{ChainID: "solana", TokenAddress: ""},
			{ChainID: "solana", TokenAddress: "s2"},
			{ChainID: "solana", TokenAddress: "s3"},
		},
	}
	o := NewOrchestrator(fetcher, nil, nil, 2)

	items, err := o.BoostedSeed(context.Background(), 2, EnrichOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	addrs := []string{items[0].Address, items[1].Address}
	assert.ElementsMatch(t, []string{"s1", "s2"}, addrs)
}

func TestBoostedSeedPropagatesSeedError(t *testing.T) {
	o := NewOrchestrator(&erroringFetcher{}, nil, nil, 1)
	_, err := o.BoostedSeed(context.Background(), 10, EnrichOptions{})
	assert.Error(t, err)
}

type erroringFetcher struct{}

func (f *erroringFetcher) TokenPairs(ctx context.Context, address string) ([]*domain.PairSnapshot, error) {
	return nil, errors.New("unused")
}

func (f *erroringFetcher) BoostedTokens(ctx context.Context) ([]market.BoostedToken, error) {
	return nil, errors.New("boosted endpoint down")
}
