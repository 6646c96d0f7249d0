package classify

import "github.com/dexpulse/dexpulse/internal/domain"

// Trash reports whether a snapshot is unsalvageable junk that no list
// should ever surface, regardless of the caller's risk appetite.
func Trash(p *domain.PairSnapshot) bool {
	risk := Risk(p)
	dump := Dump(p)
	if dump.Label == domain.LabelHigh {
		return true
	}
	if risk.Label == domain.LabelHigh && risk.Score >= 75 {
		return true
	}
	if risk.HasFlag(domain.FlagFallingKnife) {
		return true
	}
	if risk.HasFlag(domain.FlagManipulationRisk) && risk.Score >= 70 {
		return true
	}
	if risk.HasFlag(domain.FlagMicroLiquidity) {
		return true
	}
	return false
}

// QualityGate is the standard drop filter applied after the veto check:
// trash never passes, HIGH risk passes only when the caller opts in.
func QualityGate(p *domain.PairSnapshot, allowHighRisk bool) bool {
	if p == nil {
		return false
	}
	if Trash(p) {
		return false
	}
	if allowHighRisk {
		return true
	}
	return Risk(p).Label != domain.LabelHigh
}

// Warning is a human-readable caution for the token detail view.
type Warning struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Warnings translates classifier output into detail-view cautions, with a
// single "ok" entry when nothing tripped.
func Warnings(risk domain.RiskAssessment, dump domain.DumpAssessment) []Warning {
	var out []Warning
	if risk.HasFlag(domain.FlagLowLiquidity) || risk.HasFlag(domain.FlagVeryLowLiquidity) || risk.HasFlag(domain.FlagMicroLiquidity) {
		out = append(out, Warning{Level: "warn", Text: "Low liquidity — price can be manipulated easily."})
	}
	if risk.HasFlag(domain.FlagFallingKnife) {
		out = append(out, Warning{Level: "danger", Text: "Falling knife pattern — high dump risk, avoid catching a falling knife."})
	}
	if dump.Label == domain.LabelHigh {
		out = append(out, Warning{Level: "danger", Text: "High dump risk — strong sell pressure detected."})
	}
	if risk.HasFlag(domain.FlagManipulationRisk) {
		out = append(out, Warning{Level: "danger", Text: "Manipulation risk — extreme move with weak liquidity."})
	}
	if risk.HasFlag(domain.FlagAnomalousFlow) {
		out = append(out, Warning{Level: "warn", Text: "Anomalous flow — unusually one-sided tape (bots/wash possible)."})
	}
	if len(out) == 0 {
		out = append(out, Warning{Level: "ok", Text: "No major red flags detected by heuristics (still DYOR)."})
	}
	return out
}
