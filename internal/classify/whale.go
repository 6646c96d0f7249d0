package classify

import (
	"math"

	"github.com/dexpulse/dexpulse/internal/domain"
)

// Whale scores how much the tape looks like large coordinated buying:
// transaction spikes and buy dominance push the score up, thin liquidity
// and out-of-control moves pull it down. Reasons are capped at three.
func Whale(p *domain.PairSnapshot) domain.WhaleAssessment {
	if p == nil {
		return domain.WhaleAssessment{Label: domain.LabelNone, Reasons: []string{}}
	}

	liq := p.LiquidityUSD()
	flow := p.Flow()
	ch5 := p.Change5()
	ch15 := p.Change15()
	vol24 := p.Volume.H24.Float()

	var score float64
	var reasons []string

	if flow.Total >= 35 {
		score += 20
		reasons = append(reasons, "txn spike")
	}
	if flow.BuyRatio >= 0.68 && flow.Total >= 18 {
		score += 25
		reasons = append(reasons, "buy dominance")
	}
	if vol24 >= 300000 {
		score += 10
		reasons = append(reasons, "strong 24h vol")
	}
	if ch5 >= 2 || ch15 >= 4 {
		score += 10
		reasons = append(reasons, "price lift")
	}
	if liq < 2500 {
		score -= 25
		reasons = append(reasons, "very low liq")
	} else if liq < 7500 {
		score -= 12
		reasons = append(reasons, "low liq")
	}
	if math.Abs(ch5) > 35 || math.Abs(ch15) > 70 {
		score -= 10
		reasons = append(reasons, "too wild")
	}

	final := domain.Clamp100(score)
	return domain.WhaleAssessment{Score: final, Label: whaleLabel(final), Reasons: capReasons(reasons, 3)}
}

func whaleLabel(score int) domain.Label {
	switch {
	case score >= 70:
		return domain.LabelHigh
	case score >= 45:
		return domain.LabelMed
	case score >= 25:
		return domain.LabelLow
	}
	return domain.LabelNone
}

func capReasons(reasons []string, n int) []string {
	if len(reasons) == 0 {
		return []string{}
	}
	if len(reasons) > n {
		return reasons[:n]
	}
	return reasons
}
