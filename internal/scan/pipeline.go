package scan

import (
	"context"
	"strings"

	"github.com/dexpulse/dexpulse/internal/classify"
	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/market"
	"github.com/dexpulse/dexpulse/internal/metrics"
)

// Seed sizes per view. Wider views pull more boosted addresses so the
// filters still have enough survivors to rank.
const (
	seedTrending   = 28
	seedVolume     = 36
	seedLiquidity  = 36
	seedWhale      = 40
	seedBoosted    = 40
	seedSmart      = 42
	seedHot        = 42
	seedRisky      = 42
	seedSignalPlus = 55
	seedAllSignals = 60
)

// SignalLedger is the performance-history surface the pipeline feeds.
type SignalLedger interface {
	RecordBuySignal(address, source string, ident domain.TokenIdentity, marketCap float64)
	UpdatePeak(address string, marketCap float64)
}

// TokenLister resolves major tokens through the verified token list.
type TokenLister interface {
	TokenList(ctx context.Context) ([]market.ListedToken, error)
}

// SearchFetcher is the extra surface the search view needs.
type SearchFetcher interface {
	Search(ctx context.Context, query string) ([]*domain.PairSnapshot, error)
}

// MajorToken is one configured entry of the majors view. Address may be
// empty; it is then resolved through the verified token list by symbol.
type MajorToken struct {
	Name    string `yaml:"name" json:"name"`
	Symbol  string `yaml:"symbol" json:"symbol"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

// Pipeline is the request/response surface handed to the routing layer:
// every method maps one inbound list/detail request to classified items.
type Pipeline struct {
	orch    *Orchestrator
	fetcher Fetcher
	lister  TokenLister
	search  SearchFetcher
	veto    VetoChecker
	ledger  SignalLedger
	streaks *StreakTracker
	metrics *metrics.Registry
	majors  []MajorToken
}

// PipelineConfig wires a pipeline's collaborators.
type PipelineConfig struct {
	Orchestrator *Orchestrator
	Fetcher      Fetcher
	Lister       TokenLister
	Search       SearchFetcher
	Veto         VetoChecker
	Ledger       SignalLedger
	Streaks      *StreakTracker
	Metrics      *metrics.Registry
	Majors       []MajorToken
}

// NewPipeline assembles the pipeline service.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		orch:    cfg.Orchestrator,
		fetcher: cfg.Fetcher,
		lister:  cfg.Lister,
		search:  cfg.Search,
		veto:    cfg.Veto,
		ledger:  cfg.Ledger,
		streaks: cfg.Streaks,
		metrics: cfg.Metrics,
		majors:  cfg.Majors,
	}
}

// SmartMoney builds the streak-gated smart-money view.
func (p *Pipeline) SmartMoney(ctx context.Context, tf domain.Timeframe) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedSmart, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildSmartMoney(seed, tf, p.streaks)
	p.finishView("smart_money", items, "Smart Money")
	return items, nil
}

// WhaleAlert builds the whale-flow view.
func (p *Pipeline) WhaleAlert(ctx context.Context, tf domain.Timeframe) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedWhale, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildWhaleAlert(seed, tf)
	p.finishView("whale_alert", items, "Whale Alert")
	return items, nil
}

// HotBuys builds the buy-pressure view.
func (p *Pipeline) HotBuys(ctx context.Context, tf domain.Timeframe) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedHot, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildHotBuys(seed, tf)
	p.finishView("hot_buys", items, "Hot Buys")
	return items, nil
}

// SignalPlus builds the buy-gated view for the requested potential tier.
func (p *Pipeline) SignalPlus(ctx context.Context, tf domain.Timeframe, tier domain.Label) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedSignalPlus, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildSignalPlus(seed, tf, tier)
	p.finishView("uptrend_signal", items, "Signal+")
	return items, nil
}

// AllSignals merges the four signal views over one shared seed.
func (p *Pipeline) AllSignals(ctx context.Context, tf domain.Timeframe, tier domain.Label) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedAllSignals, EnrichOptions{})
	if err != nil {
		return nil, err
	}

	views := map[string][]*Item{
		"Smart Money": BuildSmartMoney(seed, tf, p.streaks),
		"Whale Alert": BuildWhaleAlert(seed, tf),
		"Hot Buys":    BuildHotBuys(seed, tf),
		"Signal+":     BuildSignalPlus(seed, tf, tier),
	}
	for source, list := range views {
		p.trackBuySignals(list, source)
	}

	items := MergeAllSignals(views)
	p.updatePeaks(items)
	p.gaugeList("all_signals", len(items))
	return items, nil
}

// TrendingLowRisk builds the safest-first trending view.
func (p *Pipeline) TrendingLowRisk(ctx context.Context, tf domain.Timeframe) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedTrending, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildTrendingLowRisk(seed, tf)
	p.updatePeaks(items)
	p.gaugeList("trending_low_risk", len(items))
	return items, nil
}

// TopVolume builds the 24h-volume view.
func (p *Pipeline) TopVolume(ctx context.Context) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedVolume, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildTopVolume(seed)
	p.updatePeaks(items)
	p.gaugeList("top_volume", len(items))
	return items, nil
}

// HighLiquidity builds the liquidity view.
func (p *Pipeline) HighLiquidity(ctx context.Context) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedLiquidity, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildHighLiquidity(seed)
	p.updatePeaks(items)
	p.gaugeList("high_liquidity", len(items))
	return items, nil
}

// Boosted builds the promoted-token view ordered by quality.
func (p *Pipeline) Boosted(ctx context.Context) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedBoosted, EnrichOptions{})
	if err != nil {
		return nil, err
	}
	items := BuildBoosted(seed)
	p.updatePeaks(items)
	p.gaugeList("boosted", len(items))
	return items, nil
}

// Risky builds the opt-in HIGH-risk view.
func (p *Pipeline) Risky(ctx context.Context) ([]*Item, error) {
	seed, err := p.orch.BoostedSeed(ctx, seedRisky, EnrichOptions{AllowHighRisk: true})
	if err != nil {
		return nil, err
	}
	items := BuildRisky(seed)
	p.updatePeaks(items)
	p.gaugeList("risky", len(items))
	return items, nil
}

// Majors builds the curated-token view. Stablecoins and staked-SOL
// wrappers are excluded; entries without a configured address resolve
// through the verified token list.
func (p *Pipeline) Majors(ctx context.Context, tf domain.Timeframe) ([]*Item, error) {
	var listed []market.ListedToken
	if p.lister != nil {
		// Majors still render when the token list is down; unresolved
		// symbols just drop out.
		listed, _ = p.lister.TokenList(ctx)
	}

	addresses := make([]string, 0, len(p.majors))
	majorByAddr := make(map[string]MajorToken)
	logoByAddr := make(map[string]string)
	for _, m := range p.majors {
		if market.IsStableSymbol(m.Symbol) || market.IsLSTSymbol(m.Symbol) {
			continue
		}
		address := strings.TrimSpace(m.Address)
		if address == "" {
			token := market.ResolveListedToken(listed, m.Symbol, m.Name)
			if token == nil {
				continue
			}
			address = token.Address
			logoByAddr[address] = token.LogoURI
		}
		addresses = append(addresses, address)
		majorByAddr[address] = m
	}

	items := p.orch.Enrich(ctx, addresses, EnrichOptions{})
	for _, it := range items {
		major := majorByAddr[it.Address]
		if major.Name != "" {
			it.Ident.Name = major.Name
		}
		if major.Symbol != "" {
			it.Ident.Symbol = major.Symbol
		}
		if it.Ident.Logo == "" {
			it.Ident.Logo = logoByAddr[it.Address]
		}
		pot := classify.Potential(it.BestPair, tf)
		it.Potential = &pot
	}

	p.updatePeaks(items)
	p.gaugeList("majors", len(items))
	return items, nil
}

// TokenDetail is the full per-token response: identity, every classifier
// output, the pair list (capped at 25) and human-readable warnings.
type TokenDetail struct {
	Address   string                      `json:"address"`
	Ident     domain.TokenIdentity        `json:"ident"`
	BestPair  *domain.PairSnapshot        `json:"bestPair"`
	Risk      domain.RiskAssessment       `json:"risk"`
	Dump      domain.DumpAssessment       `json:"dump"`
	Whale     domain.WhaleAssessment      `json:"whale"`
	Smart     domain.SmartMoneyAssessment `json:"smart"`
	Potential domain.PotentialAssessment  `json:"potential"`
	Pairs     []*domain.PairSnapshot      `json:"pairs"`
	Warnings  []classify.Warning          `json:"warnings"`
}

// TokenDetail classifies one token without any list gating.
func (p *Pipeline) TokenDetail(ctx context.Context, address string, tf domain.Timeframe) (*TokenDetail, error) {
	pairs, err := p.fetcher.TokenPairs(ctx, address)
	if err != nil {
		return nil, err
	}
	best := market.BestPair(pairs)

	risk := classify.Risk(best)
	dump := classify.Dump(best)
	if len(pairs) > 25 {
		pairs = pairs[:25]
	}
	return &TokenDetail{
		Address:   address,
		Ident:     domain.IdentityFromPair(best, address),
		BestPair:  best,
		Risk:      risk,
		Dump:      dump,
		Whale:     classify.Whale(best),
		Smart:     classify.SmartMoney(best),
		Potential: classify.Potential(best, tf),
		Pairs:     pairs,
		Warnings:  classify.Warnings(risk, dump),
	}, nil
}

// SearchResult is one grouped search hit.
type SearchResult struct {
	Address  string                `json:"address"`
	Ident    domain.TokenIdentity  `json:"ident"`
	BestPair *domain.PairSnapshot  `json:"bestPair"`
	Risk     domain.RiskAssessment `json:"risk"`
}

// Search groups single-chain search hits by base token, keeping the most
// liquid pair per token, capped at 60 results.
func (p *Pipeline) Search(ctx context.Context, query string) ([]*SearchResult, error) {
	pairs, err := p.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	byToken := make(map[string]*domain.PairSnapshot)
	var order []string
	for _, pair := range pairs {
		if pair == nil || pair.ChainID != "solana" {
			continue
		}
		addr := pair.BaseToken.Address
		if addr == "" {
			continue
		}
		cur, ok := byToken[addr]
		if !ok {
			byToken[addr] = pair
			order = append(order, addr)
			continue
		}
		if pair.LiquidityUSD() > cur.LiquidityUSD() {
			byToken[addr] = pair
		}
	}

	out := make([]*SearchResult, 0, len(order))
	for _, addr := range order {
		best := byToken[addr]
		out = append(out, &SearchResult{
			Address:  addr,
			Ident:    domain.IdentityFromPair(best, addr),
			BestPair: best,
			Risk:     classify.Risk(best),
		})
		if len(out) >= 60 {
			break
		}
	}
	return out, nil
}

// finishView applies the ledger side channel shared by the buy-tracking
// views: peaks refresh for every surfaced item, buy signals record for
// items whose gate fired.
func (p *Pipeline) finishView(view string, items []*Item, source string) {
	p.updatePeaks(items)
	p.trackBuySignals(items, source)
	p.gaugeList(view, len(items))
}

func (p *Pipeline) trackBuySignals(items []*Item, source string) {
	if p.ledger == nil {
		return
	}
	for _, it := range items {
		if !it.ShowBuy {
			continue
		}
		p.ledger.RecordBuySignal(it.Address, source, it.Ident, it.MarketCap())
	}
}

func (p *Pipeline) updatePeaks(items []*Item) {
	if p.ledger == nil {
		return
	}
	for _, it := range items {
		p.ledger.UpdatePeak(it.Address, it.MarketCap())
	}
}

func (p *Pipeline) gaugeList(view string, size int) {
	if p.metrics != nil {
		p.metrics.ListSize.WithLabelValues(view).Set(float64(size))
	}
}
