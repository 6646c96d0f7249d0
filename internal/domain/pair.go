package domain

import "math"

// TokenRef identifies one side of a trading pair as reported upstream.
type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// PairLiquidity is the pooled liquidity attached to a pair. The upstream
// field is nullable, consumers go through PairSnapshot.LiquidityUSD.
type PairLiquidity struct {
	USD   Num `json:"usd"`
	Base  Num `json:"base"`
	Quote Num `json:"quote"`
}

// TxnWindow counts buys and sells inside one bucket.
type TxnWindow struct {
	Buys  Num `json:"buys"`
	Sells Num `json:"sells"`
}

// PairTxns carries per-bucket transaction counts.
type PairTxns struct {
	M5  TxnWindow `json:"m5"`
	M15 TxnWindow `json:"m15"`
	H1  TxnWindow `json:"h1"`
	H6  TxnWindow `json:"h6"`
	H24 TxnWindow `json:"h24"`
}

// PairVolume carries per-bucket traded volume in USD.
type PairVolume struct {
	M5  Num `json:"m5"`
	H1  Num `json:"h1"`
	H6  Num `json:"h6"`
	H24 Num `json:"h24"`
}

// PairPriceChange carries per-bucket price change percentages.
type PairPriceChange struct {
	M5  Num `json:"m5"`
	M15 Num `json:"m15"`
	H1  Num `json:"h1"`
	H4  Num `json:"h4"`
	H24 Num `json:"h24"`
}

// PairInfo is the subset of upstream pair metadata we surface.
type PairInfo struct {
	ImageURL string `json:"imageUrl"`
}

// PairSnapshot is the normalized read-only view of one trading pair.
// It is constructed once per classification pass and never mutated;
// classifiers treat a nil snapshot as "no tradable market".
type PairSnapshot struct {
	ChainID       string          `json:"chainId"`
	DexID         string          `json:"dexId"`
	PairAddress   string          `json:"pairAddress"`
	URL           string          `json:"url"`
	BaseToken     TokenRef        `json:"baseToken"`
	QuoteToken    TokenRef        `json:"quoteToken"`
	PriceUSD      string          `json:"priceUsd"`
	FDV           Num             `json:"fdv"`
	MarketCap     Num             `json:"marketCap"`
	Liquidity     *PairLiquidity  `json:"liquidity"`
	Volume        PairVolume      `json:"volume"`
	PriceChange   PairPriceChange `json:"priceChange"`
	Txns          PairTxns        `json:"txns"`
	Info          *PairInfo       `json:"info,omitempty"`
	PairCreatedAt int64           `json:"pairCreatedAt"`
}

// LiquidityUSD returns pooled USD liquidity, zero when upstream sent null.
func (p *PairSnapshot) LiquidityUSD() float64 {
	if p == nil || p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD.Float()
}

// ShortFlow aggregates the 5m and 15m transaction buckets. The buy ratio is
// Laplace-smoothed, (buys+1)/(total+2), so an empty tape yields 0.5 instead
// of a division by zero and tiny samples stay near the middle.
type ShortFlow struct {
	Buys     float64
	Sells    float64
	Total    float64
	BuyRatio float64
}

// Flow computes the combined 5m+15m transaction flow for a snapshot.
func (p *PairSnapshot) Flow() ShortFlow {
	var f ShortFlow
	if p != nil {
		f.Buys = p.Txns.M5.Buys.Float() + p.Txns.M15.Buys.Float()
		f.Sells = p.Txns.M5.Sells.Float() + p.Txns.M15.Sells.Float()
	}
	f.Total = f.Buys + f.Sells
	f.BuyRatio = (f.Buys + 1) / (f.Total + 2)
	return f
}

// Change5 returns the 5m price change, zero for a nil snapshot.
func (p *PairSnapshot) Change5() float64 {
	if p == nil {
		return 0
	}
	return p.PriceChange.M5.Float()
}

// Change15 returns the 15m price change, zero for a nil snapshot.
func (p *PairSnapshot) Change15() float64 {
	if p == nil {
		return 0
	}
	return p.PriceChange.M15.Float()
}

// FallingKnife reports the sustained-collapse shape: down more than 10% on
// the hour, 18% over four hours and 35% on the day, all at once.
func (p *PairSnapshot) FallingKnife() bool {
	if p == nil {
		return false
	}
	return p.PriceChange.H1.Float() < -10 &&
		p.PriceChange.H4.Float() < -18 &&
		p.PriceChange.H24.Float() < -35
}

// TokenIdentity is the display identity derived from a best pair.
type TokenIdentity struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Logo    string `json:"logo"`
}

// IdentityFromPair derives a display identity from a pair's base token,
// falling back to "Token" and empty strings when fields are absent.
func IdentityFromPair(p *PairSnapshot, address string) TokenIdentity {
	ident := TokenIdentity{Address: address, Name: "Token"}
	if p == nil {
		return ident
	}
	if p.BaseToken.Name != "" {
		ident.Name = p.BaseToken.Name
	}
	ident.Symbol = p.BaseToken.Symbol
	if p.Info != nil {
		ident.Logo = p.Info.ImageURL
	}
	return ident
}

// Clamp100 bounds a score to the [0,100] range classifiers report in.
func Clamp100(score float64) int {
	return int(math.Max(0, math.Min(100, score)))
}
