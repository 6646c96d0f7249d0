package classify

import "github.com/dexpulse/dexpulse/internal/domain"

// Dump grades near-term sell pressure by counting matched reasons:
// zero is LOW, one is MED, two or more is HIGH.
func Dump(p *domain.PairSnapshot) domain.DumpAssessment {
	if p == nil {
		return domain.DumpAssessment{Label: domain.LabelHigh, Reasons: []string{"no pair data"}}
	}

	flow := p.Flow()
	reasons := []string{}
	if p.Change5() < -6 {
		reasons = append(reasons, "5m down")
	}
	if p.Change15() < -12 {
		reasons = append(reasons, "15m down")
	}
	if flow.Total >= 20 && flow.BuyRatio < 0.35 {
		reasons = append(reasons, "sell pressure")
	}

	label := domain.LabelLow
	switch {
	case len(reasons) >= 2:
		label = domain.LabelHigh
	case len(reasons) == 1:
		label = domain.LabelMed
	}
	return domain.DumpAssessment{Label: label, Reasons: reasons}
}
