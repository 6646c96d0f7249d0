package market

import "github.com/dexpulse/dexpulse/internal/domain"

// pairScore ranks pairs for best-pair selection. Liquidity dominates by six
// orders of magnitude, then 24h volume, then raw 24h transaction count.
func pairScore(p *domain.PairSnapshot) float64 {
	if p == nil {
		return 0
	}
	liq := p.LiquidityUSD()
	vol := p.Volume.H24.Float()
	tx := p.Txns.H24.Buys.Float() + p.Txns.H24.Sells.Float()
	return liq*1e6 + vol*10 + tx
}

// BestPair reduces a token's pair list to the single canonical market.
// Ties keep the earliest pair; an empty list returns nil, which every
// consumer must treat as "no tradable market".
func BestPair(pairs []*domain.PairSnapshot) *domain.PairSnapshot {
	var best *domain.PairSnapshot
	bestScore := 0.0
	for _, p := range pairs {
		if p == nil {
			continue
		}
		score := pairScore(p)
		if best == nil || score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}
