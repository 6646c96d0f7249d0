package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexpulse/dexpulse/internal/domain"
)

func TestTrashConditions(t *testing.T) {
	assert.False(t, Trash(calm().pair()))

	// HIGH dump pressure.
	s := calm()
	s.ch5, s.ch15 = -7, -13
	assert.True(t, Trash(s.pair()))

	// Micro liquidity.
	s = calm()
	s.liq = 500
	assert.True(t, Trash(s.pair()))

	// Falling knife.
	s = calm()
	s.ch1, s.ch4, s.ch24 = -12, -20, -40
	assert.True(t, Trash(s.pair()))
}

func TestQualityGate(t *testing.T) {
	assert.False(t, QualityGate(nil, false))
	assert.False(t, QualityGate(nil, true))
	assert.True(t, QualityGate(calm().pair(), false))

	// HIGH risk but not trash: low liquidity, volatility, dead tape.
	s := calm()
	s.liq = 5000
	s.ch15 = 26
	s.buys5, s.sells5, s.buys15, s.sells15 = 1, 1, 0, 0
	require.Equal(t, domain.LabelHigh, Risk(s.pair()).Label)
	assert.False(t, QualityGate(s.pair(), false))
	assert.True(t, QualityGate(s.pair(), true))

	// Trash never passes, even with the opt-in.
	s = calm()
	s.liq = 500
	assert.False(t, QualityGate(s.pair(), true))
}

func TestWarningsTexts(t *testing.T) {
	s := calm()
	s.liq = 5000
	warnings := Warnings(Risk(s.pair()), Dump(s.pair()))
	require.Len(t, warnings, 1)
	assert.Equal(t, "warn", warnings[0].Level)
	assert.Contains(t, warnings[0].Text, "Low liquidity")
}

func TestWarningsOkFallback(t *testing.T) {
	warnings := Warnings(Risk(calm().pair()), Dump(calm().pair()))
	require.Len(t, warnings, 1)
	assert.Equal(t, "ok", warnings[0].Level)
}
