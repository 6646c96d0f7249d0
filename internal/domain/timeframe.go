package domain

// Timeframe selects the trend bucket a request is scored against.
type Timeframe string

const (
	TF5m  Timeframe = "5m"
	TF10m Timeframe = "10m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// ParseTimeframe coerces a request parameter to a known timeframe.
// Anything unrecognized falls back to the 15m bucket.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case TF5m, TF10m, TF15m, TF1h, TF4h, TF1d:
		return Timeframe(s)
	}
	return TF15m
}

// Trend returns the price change for this timeframe. The synthetic 10m
// bucket is a 0.6/0.4 blend of the 5m and 15m changes.
func (tf Timeframe) Trend(p *PairSnapshot) float64 {
	if p == nil {
		return 0
	}
	switch tf {
	case TF5m:
		return p.PriceChange.M5.Float()
	case TF10m:
		return p.PriceChange.M5.Float()*0.6 + p.PriceChange.M15.Float()*0.4
	case TF15m:
		return p.PriceChange.M15.Float()
	case TF1h:
		return p.PriceChange.H1.Float()
	case TF4h:
		return p.PriceChange.H4.Float()
	case TF1d:
		return p.PriceChange.H24.Float()
	}
	return p.PriceChange.M15.Float()
}
