package scan

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/classify"
	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/market"
	"github.com/dexpulse/dexpulse/internal/metrics"
)

// Fetcher is the upstream surface the orchestrator needs; *market.Client
// satisfies it, tests inject stubs.
type Fetcher interface {
	TokenPairs(ctx context.Context, address string) ([]*domain.PairSnapshot, error)
	BoostedTokens(ctx context.Context) ([]market.BoostedToken, error)
}

// VetoChecker is the blacklist surface consulted per item.
type VetoChecker interface {
	Blacklisted(address string) bool
	Check(address string, pair *domain.PairSnapshot) bool
}

// Orchestrator maps seed addresses to enriched items with bounded
// parallelism. A failing address contributes nothing; it never aborts the
// batch.
type Orchestrator struct {
	fetcher     Fetcher
	veto        VetoChecker
	metrics     *metrics.Registry
	concurrency int
}

// NewOrchestrator wires an orchestrator. Concurrency below 1 becomes 1.
func NewOrchestrator(fetcher Fetcher, veto VetoChecker, m *metrics.Registry, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{fetcher: fetcher, veto: veto, metrics: m, concurrency: concurrency}
}

// EnrichOptions tunes a single enrichment batch.
type EnrichOptions struct {
	// AllowHighRisk keeps HIGH-risk items that still clear the trash test.
	AllowHighRisk bool
}

// Enrich fetches, veto-checks, gates and classifies every address. Result
// order is not meaningful; callers re-sort per view.
func (o *Orchestrator) Enrich(ctx context.Context, addresses []string, opts EnrichOptions) []*Item {
	results := make([]*Item, len(addresses))
	next := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				results[idx] = o.enrichOne(ctx, addresses[idx], opts)
			}
		}()
	}

	for idx := range addresses {
		select {
		case next <- idx:
		case <-ctx.Done():
			close(next)
			wg.Wait()
			return compact(results)
		}
	}
	close(next)
	wg.Wait()
	return compact(results)
}

func (o *Orchestrator) enrichOne(ctx context.Context, address string, opts EnrichOptions) *Item {
	if address == "" {
		return nil
	}
	if o.veto != nil && o.veto.Blacklisted(address) {
		o.drop("blacklisted")
		return nil
	}

	pairs, err := o.fetcher.TokenPairs(ctx, address)
	if err != nil {
		log.Debug().Err(err).Str("address", address).Msg("pair fetch failed")
		o.drop("fetch_error")
		return nil
	}

	best := market.BestPair(pairs)
	if best == nil {
		o.drop("no_pair")
		return nil
	}
	if o.veto != nil && o.veto.Check(address, best) {
		o.drop("veto")
		return nil
	}
	if !classify.QualityGate(best, opts.AllowHighRisk) {
		o.drop("quality_gate")
		return nil
	}

	return &Item{
		Address:  address,
		Ident:    domain.IdentityFromPair(best, address),
		BestPair: best,
		Risk:     classify.Risk(best),
		Dump:     classify.Dump(best),
		Whale:    classify.Whale(best),
		Smart:    classify.SmartMoney(best),
	}
}

// BoostedSeed enriches up to limit addresses from the promoted-token list,
// single-chain only.
func (o *Orchestrator) BoostedSeed(ctx context.Context, limit int, opts EnrichOptions) ([]*Item, error) {
	boosted, err := o.fetcher.BoostedTokens(ctx)
	if err != nil {
		return nil, err
	}

	addresses := make([]string, 0, limit)
	for _, b := range boosted {
		if b.ChainID != "solana" || b.TokenAddress == "" {
			continue
		}
		addresses = append(addresses, b.TokenAddress)
		if len(addresses) >= limit {
			break
		}
	}

	items := o.Enrich(ctx, addresses, opts)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (o *Orchestrator) drop(cause string) {
	if o.metrics != nil {
		o.metrics.ItemsDropped.WithLabelValues(cause).Inc()
	}
}

func compact(items []*Item) []*Item {
	out := items[:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
