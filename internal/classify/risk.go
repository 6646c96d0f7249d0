// Package classify holds the heuristic classifiers that turn one best-pair
// snapshot into risk and opportunity assessments. All functions here are
// pure: no clocks, no I/O, no shared state.
package classify

import (
	"math"

	"github.com/dexpulse/dexpulse/internal/domain"
)

const riskBaseScore = 25

// Risk scores a snapshot on a 0-100 scale from base 25. Liquidity bands are
// mutually exclusive (tightest range wins); every other adjustment stacks.
// A nil snapshot is the worst case: no tradable market.
func Risk(p *domain.PairSnapshot) domain.RiskAssessment {
	if p == nil {
		return domain.RiskAssessment{
			Score: 85,
			Label: domain.LabelHigh,
			Flags: []domain.RiskFlag{domain.FlagNoPairData},
		}
	}

	liq := p.LiquidityUSD()
	ch5 := math.Abs(p.Change5())
	ch15 := math.Abs(p.Change15())
	flow := p.Flow()

	flags := []domain.RiskFlag{}
	score := float64(riskBaseScore)

	switch {
	case liq < 1000:
		score += 45
		flags = append(flags, domain.FlagMicroLiquidity)
	case liq < 2500:
		score += 35
		flags = append(flags, domain.FlagVeryLowLiquidity)
	case liq < 7500:
		score += 25
		flags = append(flags, domain.FlagLowLiquidity)
	case liq < 15000:
		score += 15
	case liq < 30000:
		score += 8
	}

	if ch5 > 25 || ch15 > 50 {
		score += 22
		flags = append(flags, domain.FlagExtremeShortMove)
	} else if ch5 > 12 || ch15 > 25 {
		score += 12
		flags = append(flags, domain.FlagHighVolatility)
	}

	if liq < 7500 && (ch5 > 15 || ch15 > 30) {
		score += 18
		flags = append(flags, domain.FlagManipulationRisk)
	}

	if flow.Total >= 25 && (flow.BuyRatio > 0.9 || flow.BuyRatio < 0.1) {
		score += 14
		flags = append(flags, domain.FlagAnomalousFlow)
	} else if flow.Total >= 15 && (flow.BuyRatio > 0.82 || flow.BuyRatio < 0.18) {
		score += 8
		flags = append(flags, domain.FlagFlowImbalance)
	}

	if flow.Total < 6 {
		score += 10
		flags = append(flags, domain.FlagLowActivity)
	}

	if p.FallingKnife() {
		score += 18
		flags = append(flags, domain.FlagFallingKnife)
	}

	final := domain.Clamp100(score)
	return domain.RiskAssessment{Score: final, Label: riskLabel(final), Flags: flags}
}

func riskLabel(score int) domain.Label {
	switch {
	case score <= 35:
		return domain.LabelLow
	case score <= 65:
		return domain.LabelMed
	}
	return domain.LabelHigh
}
