package domain

// Label is the coarse severity bucket shared by the classifiers.
type Label string

const (
	LabelNone Label = "NONE"
	LabelLow  Label = "LOW"
	LabelMed  Label = "MED"
	LabelHigh Label = "HIGH"
)

// RiskFlag names a matched risk condition.
type RiskFlag string

const (
	FlagNoPairData       RiskFlag = "NO_PAIR_DATA"
	FlagMicroLiquidity   RiskFlag = "MICRO_LIQUIDITY"
	FlagVeryLowLiquidity RiskFlag = "VERY_LOW_LIQUIDITY"
	FlagLowLiquidity     RiskFlag = "LOW_LIQUIDITY"
	FlagExtremeShortMove RiskFlag = "EXTREME_SHORT_MOVE"
	FlagHighVolatility   RiskFlag = "HIGH_VOLATILITY"
	FlagManipulationRisk RiskFlag = "MANIPULATION_RISK"
	FlagAnomalousFlow    RiskFlag = "ANOMALOUS_FLOW"
	FlagFlowImbalance    RiskFlag = "FLOW_IMBALANCE"
	FlagLowActivity      RiskFlag = "LOW_ACTIVITY"
	FlagFallingKnife     RiskFlag = "FALLING_KNIFE"
)

// RiskAssessment is the output of the risk classifier.
type RiskAssessment struct {
	Score int        `json:"riskScore"`
	Label Label      `json:"riskLabel"`
	Flags []RiskFlag `json:"flags"`
}

// HasFlag reports whether the assessment carries the given flag.
func (r RiskAssessment) HasFlag(flag RiskFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// DumpAssessment is the output of the dump-risk classifier.
type DumpAssessment struct {
	Label   Label    `json:"dumpRisk"`
	Reasons []string `json:"reasons"`
}

// WhaleAssessment is the output of the whale-likeness classifier.
type WhaleAssessment struct {
	Score   int      `json:"whaleScore"`
	Label   Label    `json:"whaleLabel"`
	Reasons []string `json:"reasons"`
}

// SmartMoneyAssessment is the output of the smart-money classifier.
type SmartMoneyAssessment struct {
	Score   int      `json:"smartScore"`
	Label   Label    `json:"smartLabel"`
	Reasons []string `json:"reasons"`
}

// PotentialAssessment is the output of the potential / buy-gate classifier.
// BuyWhy lists every failed gate, or a single success reason when Buy is set.
type PotentialAssessment struct {
	Tier   Label    `json:"potential"`
	Why    []string `json:"why"`
	Buy    bool     `json:"buy"`
	BuyWhy []string `json:"buyWhy"`
}

// TierRank orders potential tiers for sorting, HIGH first.
func TierRank(t Label) int {
	switch t {
	case LabelHigh:
		return 3
	case LabelMed:
		return 2
	}
	return 1
}

// ParseTier coerces a request parameter to a potential tier, default MED.
func ParseTier(s string) Label {
	switch Label(s) {
	case LabelLow, LabelMed, LabelHigh:
		return Label(s)
	}
	return LabelMed
}
