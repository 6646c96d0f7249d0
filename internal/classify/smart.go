package classify

import (
	"math"

	"github.com/dexpulse/dexpulse/internal/domain"
)

// SmartMoney scores whether the tape looks like informed accumulation.
// It layers on top of Risk, Dump and Whale for the same snapshot and has
// two hard vetoes: a falling-knife flag or HIGH dump risk zeroes it out.
func SmartMoney(p *domain.PairSnapshot) domain.SmartMoneyAssessment {
	risk := Risk(p)
	whale := Whale(p)
	if p == nil {
		return domain.SmartMoneyAssessment{Label: domain.LabelNone, Reasons: []string{}}
	}

	dump := Dump(p)
	if risk.HasFlag(domain.FlagFallingKnife) {
		return domain.SmartMoneyAssessment{Label: domain.LabelNone, Reasons: []string{"falling knife"}}
	}
	if dump.Label == domain.LabelHigh {
		return domain.SmartMoneyAssessment{Label: domain.LabelNone, Reasons: []string{"dump risk"}}
	}

	ch5 := math.Abs(p.Change5())
	ch15 := math.Abs(p.Change15())
	controlled := ch5 <= 16 && ch15 <= 30

	var score float64
	var reasons []string

	switch risk.Label {
	case domain.LabelLow:
		score += 30
		reasons = append(reasons, "low risk")
	case domain.LabelMed:
		score += 15
		reasons = append(reasons, "med risk")
	default:
		score -= 30
		reasons = append(reasons, "high risk")
	}

	if whale.Score >= 45 {
		score += 25
		reasons = append(reasons, "smart flow")
	}
	if controlled {
		score += 15
		reasons = append(reasons, "controlled move")
	} else {
		score -= 10
		reasons = append(reasons, "too volatile")
	}

	flow := p.Flow()
	if flow.Total >= 18 {
		score += 10
		reasons = append(reasons, "active tape")
	} else {
		score -= 10
		reasons = append(reasons, "low activity")
	}

	if flow.BuyRatio >= 0.62 && flow.Total >= 16 {
		score += 12
		reasons = append(reasons, "buy pressure")
	} else if flow.BuyRatio < 0.45 && flow.Total >= 16 {
		score -= 14
		reasons = append(reasons, "sell pressure")
	}

	// Medium dump risk still costs points to keep the feed clean.
	if dump.Label == domain.LabelMed {
		score -= 10
		reasons = append(reasons, "elevated dump risk")
	}

	final := domain.Clamp100(score)
	return domain.SmartMoneyAssessment{Score: final, Label: smartLabel(final), Reasons: capReasons(reasons, 3)}
}

func smartLabel(score int) domain.Label {
	switch {
	case score >= 70:
		return domain.LabelHigh
	case score >= 50:
		return domain.LabelMed
	case score >= 30:
		return domain.LabelLow
	}
	return domain.LabelNone
}
