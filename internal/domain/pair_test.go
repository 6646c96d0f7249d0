package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumToleratesLooseEncodings(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`null`, 0},
		{`"not a number"`, 0},
		{`""`, 0},
		{`-3`, -3},
	}
	for _, tc := range cases {
		var n Num
		require.NoError(t, json.Unmarshal([]byte(tc.in), &n), "input %s", tc.in)
		assert.Equal(t, tc.want, n.Float(), "input %s", tc.in)
	}
}

func TestNumCoercesNonFiniteToZero(t *testing.T) {
	for _, in := range []string{`"NaN"`, `"nan"`, `"Inf"`, `"+Inf"`, `"-Infinity"`} {
		var n Num
		require.NoError(t, json.Unmarshal([]byte(in), &n), "input %s", in)
		assert.Zero(t, n.Float(), "input %s", in)
	}

	// A snapshot that picked up non-finite values some other way still
	// serializes as valid JSON.
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		data, err := json.Marshal(Num(v))
		require.NoError(t, err)
		assert.Equal(t, "0", string(data))
	}
}

func TestSnapshotWithNaNFieldsRoundTrips(t *testing.T) {
	raw := `{"liquidity":{"usd":"NaN"},"priceChange":{"m5":"NaN","m15":"NaN"}}`
	var p PairSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Zero(t, p.LiquidityUSD())
	assert.Zero(t, p.Change5())

	data, err := json.Marshal(&p)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestNumMissingFieldDecodesToZero(t *testing.T) {
	var liq PairLiquidity
	require.NoError(t, json.Unmarshal([]byte(`{"base": 1}`), &liq))
	assert.Zero(t, liq.USD.Float())
	assert.Equal(t, 1.0, liq.Base.Float())
}

func TestFlowLaplaceSmoothing(t *testing.T) {
	// Empty tape lands exactly on 0.5 instead of dividing by zero.
	var empty PairSnapshot
	f := empty.Flow()
	assert.Zero(t, f.Total)
	assert.Equal(t, 0.5, f.BuyRatio)

	p := &PairSnapshot{Txns: PairTxns{
		M5:  TxnWindow{Buys: 3, Sells: 1},
		M15: TxnWindow{Buys: 5, Sells: 1},
	}}
	f = p.Flow()
	assert.Equal(t, 10.0, f.Total)
	assert.InDelta(t, 9.0/12.0, f.BuyRatio, 1e-9)
}

func TestLiquidityUSDNilSafe(t *testing.T) {
	var p *PairSnapshot
	assert.Zero(t, p.LiquidityUSD())
	assert.Zero(t, (&PairSnapshot{}).LiquidityUSD())
}

func TestFallingKnifeNeedsAllThreeLegs(t *testing.T) {
	p := &PairSnapshot{PriceChange: PairPriceChange{H1: -11, H4: -19, H24: -36}}
	assert.True(t, p.FallingKnife())

	p.PriceChange.H24 = -20
	assert.False(t, p.FallingKnife())
}

func TestIdentityFromPairFallbacks(t *testing.T) {
	ident := IdentityFromPair(nil, "addr1")
	assert.Equal(t, TokenIdentity{Address: "addr1", Name: "Token"}, ident)

	p := &PairSnapshot{
		BaseToken: TokenRef{Name: "Bonk", Symbol: "BONK"},
		Info:      &PairInfo{ImageURL: "https://img"},
	}
	ident = IdentityFromPair(p, "addr2")
	assert.Equal(t, "Bonk", ident.Name)
	assert.Equal(t, "BONK", ident.Symbol)
	assert.Equal(t, "https://img", ident.Logo)
}

func TestParseTimeframeFallsBackTo15m(t *testing.T) {
	assert.Equal(t, TF5m, ParseTimeframe("5m"))
	assert.Equal(t, TF15m, ParseTimeframe(""))
	assert.Equal(t, TF15m, ParseTimeframe("2w"))
}

func TestTrendBlends10m(t *testing.T) {
	p := &PairSnapshot{PriceChange: PairPriceChange{M5: 10, M15: 5}}
	assert.InDelta(t, 8.0, TF10m.Trend(p), 1e-9)
	assert.Equal(t, 10.0, TF5m.Trend(p))
	assert.Equal(t, 5.0, TF15m.Trend(p))
	assert.Zero(t, TF1h.Trend(nil))
}

func TestClamp100(t *testing.T) {
	assert.Equal(t, 0, Clamp100(-5))
	assert.Equal(t, 100, Clamp100(140))
	assert.Equal(t, 42, Clamp100(42.7))
}
