package scan

import (
	"math"
	"sort"

	"github.com/dexpulse/dexpulse/internal/classify"
	"github.com/dexpulse/dexpulse/internal/domain"
)

const (
	listCap       = 30
	mergedListCap = 60
)

func capItems(items []*Item, n int) []*Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func withPotential(it *Item, tf domain.Timeframe) *Item {
	out := it.clone()
	pot := classify.Potential(out.BestPair, tf)
	out.Potential = &pot
	out.ShowBuy = pot.Buy
	out.BuyWhy = pot.BuyWhy
	return out
}

// BuildSmartMoney applies the continuity streak on top of the smart-money
// score: very strong items show immediately, everything else needs two
// qualifying ticks inside the window.
func BuildSmartMoney(seed []*Item, tf domain.Timeframe, streaks *StreakTracker) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := withPotential(it, tf)
		item.SmartScore = item.Smart.Score

		qualifying := item.SmartScore >= streakMinScore &&
			item.Risk.Label != domain.LabelHigh &&
			item.Dump.Label != domain.LabelHigh &&
			!item.Risk.HasFlag(domain.FlagFallingKnife)
		item.SmartStreak = streaks.Observe(item.Address, item.SmartScore, qualifying)

		if item.Risk.Label == domain.LabelHigh {
			continue
		}
		if item.SmartScore >= 70 || (item.SmartScore >= streakMinScore && item.SmartStreak >= 2) {
			out = append(out, item)
		}
	}

	rank := func(it *Item) int {
		bonus := 0
		if it.SmartStreak >= 2 {
			bonus = 6
		}
		return it.SmartScore + bonus
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) > rank(out[j]) })
	return capItems(out, listCap)
}

// BuildWhaleAlert keeps items with meaningful whale flow and tolerable risk.
func BuildWhaleAlert(seed []*Item, tf domain.Timeframe) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := withPotential(it, tf)
		item.WhaleScore = item.Whale.Score
		if item.WhaleScore >= 45 && item.Risk.Label != domain.LabelHigh {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WhaleScore > out[j].WhaleScore })
	return capItems(out, listCap)
}

// BuildHotBuys ranks active buy-dominated tapes by a composite score:
// activity plus buy ratio, a smart-money bonus, and penalties for wild
// moves and dump pressure.
func BuildHotBuys(seed []*Item, tf domain.Timeframe) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := withPotential(it, tf)

		flow := item.BestPair.Flow()
		item.BuyRatio = flow.BuyRatio
		item.TotalTx = flow.Total

		ch5 := math.Abs(item.BestPair.Change5())
		ch15 := math.Abs(item.BestPair.Change15())
		controlled := ch5 <= 18 && ch15 <= 35

		score := flow.Total*2 + flow.BuyRatio*100

		switch {
		case item.Smart.Score >= 55:
			score += 18
		case item.Smart.Score >= 40:
			score += 8
		}

		if !controlled {
			score -= 14
		}
		if item.Dump.Label == domain.LabelMed {
			score -= 10
		}
		if item.Dump.Label == domain.LabelHigh {
			score -= 40
		}
		if item.Risk.HasFlag(domain.FlagFallingKnife) {
			score -= 40
		}
		item.HotScore = score

		if item.TotalTx < 16 || item.BuyRatio < 0.62 {
			continue
		}
		if item.Risk.Label == domain.LabelHigh ||
			item.Dump.Label == domain.LabelHigh ||
			item.Risk.HasFlag(domain.FlagFallingKnife) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HotScore > out[j].HotScore })
	return capItems(out, listCap)
}

// BuildSignalPlus keeps only items whose buy gate fired, behind hard vetoes
// and tier-specific quality thresholds. The LOW tier is deliberately the
// narrowest: staying rug-averse beats list length.
func BuildSignalPlus(seed []*Item, tf domain.Timeframe, tier domain.Label) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := withPotential(it, tf)
		if item.BestPair == nil || classify.Trash(item.BestPair) {
			continue
		}
		if item.Risk.Label == domain.LabelHigh {
			continue
		}
		if !signalPlusGate(item, tier) {
			continue
		}
		if !item.ShowBuy {
			continue
		}
		item.Trend = tf.Trend(item.BestPair)
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if d := domain.TierRank(b.Potential.Tier) - domain.TierRank(a.Potential.Tier); d != 0 {
			return d < 0
		}
		if a.Risk.Score != b.Risk.Score {
			return a.Risk.Score < b.Risk.Score
		}
		return a.Trend > b.Trend
	})
	return capItems(out, listCap)
}

func signalPlusGate(item *Item, tier domain.Label) bool {
	liq := item.BestPair.LiquidityUSD()
	risk := item.Risk

	// Hard vetoes regardless of tier.
	if item.Dump.Label == domain.LabelHigh {
		return false
	}
	if risk.HasFlag(domain.FlagMicroLiquidity) || risk.HasFlag(domain.FlagManipulationRisk) {
		return false
	}

	switch tier {
	case domain.LabelHigh:
		if item.Potential.Tier != domain.LabelHigh {
			return false
		}
		if risk.Label != domain.LabelLow {
			return false
		}
		if item.Dump.Label != domain.LabelLow {
			return false
		}
		if risk.HasFlag(domain.FlagVeryLowLiquidity) || risk.HasFlag(domain.FlagLowLiquidity) {
			return false
		}
		if risk.HasFlag(domain.FlagAnomalousFlow) || risk.HasFlag(domain.FlagFallingKnife) {
			return false
		}
		return liq >= 2500
	case domain.LabelMed:
		if item.Potential.Tier != domain.LabelMed && item.Potential.Tier != domain.LabelHigh {
			return false
		}
		if risk.Score > 55 {
			return false
		}
		if risk.HasFlag(domain.FlagFallingKnife) {
			return false
		}
		return liq >= 1800
	case domain.LabelLow:
		if risk.Score > 65 {
			return false
		}
		if item.Dump.Label != domain.LabelLow {
			return false
		}
		if risk.HasFlag(domain.FlagVeryLowLiquidity) || risk.HasFlag(domain.FlagLowLiquidity) {
			return false
		}
		return liq >= 2200
	}
	return true
}

// MergeAllSignals unions the four signal views by address. Sources
// accumulate deduplicated; the buy flag ORs across contributing views.
// Sorted buy-first, then safest risk first.
func MergeAllSignals(views map[string][]*Item) []*Item {
	order := []string{"Smart Money", "Whale Alert", "Hot Buys", "Signal+"}

	by := make(map[string]*Item)
	var sequence []string
	for _, source := range order {
		for _, it := range views[source] {
			if it.Address == "" {
				continue
			}
			existing, ok := by[it.Address]
			if !ok {
				merged := it.clone()
				merged.Sources = []string{source}
				by[it.Address] = merged
				sequence = append(sequence, it.Address)
				continue
			}
			existing.Sources = appendUnique(existing.Sources, source)
			existing.ShowBuy = existing.ShowBuy || it.ShowBuy
			if existing.BuyWhy == nil && it.BuyWhy != nil {
				existing.BuyWhy = it.BuyWhy
			}
		}
	}

	out := make([]*Item, 0, len(sequence))
	for _, addr := range sequence {
		out = append(out, by[addr])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ShowBuy != b.ShowBuy {
			return a.ShowBuy
		}
		return a.Risk.Score < b.Risk.Score
	})
	return capItems(out, mergedListCap)
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

// BuildTrendingLowRisk sorts the seed safest-first, trend as tiebreaker.
func BuildTrendingLowRisk(seed []*Item, tf domain.Timeframe) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		if it.BestPair == nil || it.Risk.Label == domain.LabelHigh {
			continue
		}
		item := it.clone()
		item.Trend = tf.Trend(item.BestPair)
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Risk.Score != b.Risk.Score {
			return a.Risk.Score < b.Risk.Score
		}
		return a.Trend > b.Trend
	})
	return capItems(out, listCap)
}

// BuildTopVolume sorts the seed by 24h volume.
func BuildTopVolume(seed []*Item) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := it.clone()
		item.Vol24 = item.BestPair.Volume.H24.Float()
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Vol24 > out[j].Vol24 })
	return capItems(out, listCap)
}

// BuildHighLiquidity sorts the seed by pooled liquidity.
func BuildHighLiquidity(seed []*Item) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := it.clone()
		item.Liq = item.BestPair.LiquidityUSD()
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Liq > out[j].Liq })
	return capItems(out, listCap)
}

// BuildBoosted prefers higher liquidity, then volume, as "quality boosted".
func BuildBoosted(seed []*Item) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		item := it.clone()
		item.Liq = item.BestPair.LiquidityUSD()
		item.Vol24 = item.BestPair.Volume.H24.Float()
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Liq != b.Liq {
			return a.Liq > b.Liq
		}
		return a.Vol24 > b.Vol24
	})
	return capItems(out, listCap)
}

// BuildRisky surfaces HIGH-risk items for callers that opted in, still
// excluding micro liquidity, HIGH dump pressure and falling knives.
func BuildRisky(seed []*Item) []*Item {
	out := make([]*Item, 0, len(seed))
	for _, it := range seed {
		if it.Risk.Label != domain.LabelHigh || it.Risk.HasFlag(domain.FlagMicroLiquidity) {
			continue
		}
		if it.Dump.Label == domain.LabelHigh || it.Risk.HasFlag(domain.FlagFallingKnife) {
			continue
		}
		out = append(out, it.clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Risk.Score > out[j].Risk.Score })
	return capItems(out, listCap)
}
