// Package scan runs the classification pipeline: it enriches seed
// addresses into classified items through a bounded worker pool and builds
// the per-view signal lists.
package scan

import "github.com/dexpulse/dexpulse/internal/domain"

// Item is one enriched, classified token. View builders fill the
// view-specific fields (scores, streak, trend) on copies, so a shared seed
// can feed several views in one pass.
type Item struct {
	Address   string                      `json:"address"`
	Ident     domain.TokenIdentity        `json:"ident"`
	BestPair  *domain.PairSnapshot        `json:"bestPair"`
	Risk      domain.RiskAssessment       `json:"risk"`
	Dump      domain.DumpAssessment       `json:"dump"`
	Whale     domain.WhaleAssessment      `json:"whale"`
	Smart     domain.SmartMoneyAssessment `json:"smart"`
	Potential *domain.PotentialAssessment `json:"potential,omitempty"`

	SmartScore  int     `json:"smartScore,omitempty"`
	SmartStreak int     `json:"smartStreak,omitempty"`
	WhaleScore  int     `json:"whaleScore,omitempty"`
	HotScore    float64 `json:"hotScore,omitempty"`
	BuyRatio    float64 `json:"buyRatio,omitempty"`
	TotalTx     float64 `json:"totalTx,omitempty"`
	Trend       float64 `json:"trend,omitempty"`
	Liq         float64 `json:"liq,omitempty"`
	Vol24       float64 `json:"vol24,omitempty"`

	ShowBuy bool     `json:"showBuy"`
	BuyWhy  []string `json:"buyWhy,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

func (it *Item) clone() *Item {
	copied := *it
	return &copied
}

// MarketCap returns the best pair's market cap, zero without a pair.
func (it *Item) MarketCap() float64 {
	if it.BestPair == nil {
		return 0
	}
	return it.BestPair.MarketCap.Float()
}
