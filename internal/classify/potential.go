package classify

import (
	"fmt"

	"github.com/dexpulse/dexpulse/internal/domain"
)

// Potential buckets a snapshot into an opportunity tier for the requested
// timeframe and runs the buy gate. Every failed gate lands in BuyWhy; when
// all gates pass the list collapses to a single success reason.
func Potential(p *domain.PairSnapshot, tf domain.Timeframe) domain.PotentialAssessment {
	risk := Risk(p)
	dump := Dump(p)
	if p == nil {
		return domain.PotentialAssessment{Tier: domain.LabelLow, Why: []string{"no data"}, BuyWhy: []string{}}
	}

	if risk.Label == domain.LabelHigh {
		return domain.PotentialAssessment{Tier: domain.LabelLow, Why: []string{"high risk"}, BuyWhy: []string{}}
	}
	if dump.Label == domain.LabelHigh {
		return domain.PotentialAssessment{Tier: domain.LabelLow, Why: []string{"dump risk"}, BuyWhy: []string{}}
	}

	trend := tf.Trend(p)
	flow := p.Flow()

	var why []string
	if trend > 0 {
		why = append(why, fmt.Sprintf("%s momentum up", tf))
	}
	if flow.BuyRatio >= 0.62 && flow.Total >= 12 {
		why = append(why, "buy flow")
	}
	if risk.Label == domain.LabelLow {
		why = append(why, "low risk")
	}

	tier := domain.LabelLow
	if trend > 1.5 && flow.BuyRatio >= 0.6 && flow.Total >= 12 && risk.Label != domain.LabelHigh {
		tier = domain.LabelMed
	}
	if trend > 3 && flow.BuyRatio >= 0.65 && flow.Total >= 18 && risk.Label == domain.LabelLow {
		tier = domain.LabelHigh
	}

	var buyWhy []string

	ch1 := p.PriceChange.H1.Float()
	ch4 := p.PriceChange.H4.Float()
	ch24 := p.PriceChange.H24.Float()

	// Dip setup: something red on the higher timeframes, but not the deep
	// falling-knife shape, which disqualifies.
	dipSetup := (ch1 < 0 || ch4 < 0 || ch24 < 0) && !p.FallingKnife()
	if !dipSetup {
		buyWhy = append(buyWhy, "no dip setup")
	}

	reversal := (p.Change5() > 0 && p.Change15() > 0) ||
		(p.Change15() > 2 && p.Change5() > -0.5)
	if !reversal {
		buyWhy = append(buyWhy, "no reversal confirmation")
	}

	riskOK := risk.Label != domain.LabelHigh
	if !riskOK {
		buyWhy = append(buyWhy, "risk veto")
	}

	flowOK := flow.BuyRatio >= 0.62 && flow.Total >= 15
	if !flowOK {
		buyWhy = append(buyWhy, "flow not strong")
	}

	activityOK := flow.Total >= 10
	if !activityOK {
		buyWhy = append(buyWhy, "low activity")
	}

	manipulationVeto := risk.HasFlag(domain.FlagManipulationRisk) || risk.HasFlag(domain.FlagExtremeShortMove)
	if manipulationVeto {
		buyWhy = append(buyWhy, "manipulation risk")
	}

	dumpVeto := dump.Label == domain.LabelHigh
	if dumpVeto {
		buyWhy = append(buyWhy, "dump risk")
	}

	tierOK := tier != domain.LabelLow
	if !tierOK {
		buyWhy = append(buyWhy, "potential too low")
	}

	buy := false
	if dipSetup && reversal && riskOK && flowOK && activityOK && !manipulationVeto && !dumpVeto && tierOK {
		buy = true
		buyWhy = []string{"deep setup + reversal + flow + low/med risk"}
	}

	return domain.PotentialAssessment{Tier: tier, Why: capReasons(why, 3), Buy: buy, BuyWhy: buyWhy}
}
