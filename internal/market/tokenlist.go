package market

import (
	"sort"
	"strings"
)

// ListedToken is one entry of the Jupiter verified token list.
type ListedToken struct {
	Address string   `json:"address"`
	Name    string   `json:"name"`
	Symbol  string   `json:"symbol"`
	LogoURI string   `json:"logoURI"`
	Tags    []string `json:"tags"`
}

var stableSymbols = map[string]struct{}{
	"USDC": {}, "USDT": {}, "DAI": {}, "UXD": {}, "USDH": {},
	"PYUSD": {}, "USDP": {}, "FRAX": {}, "TUSD": {}, "USDJ": {},
}

// Liquid staking wrappers kept out of the majors list.
var lstSymbols = map[string]struct{}{
	"MSOL": {}, "JITOSOL": {}, "JUPSOL": {}, "BSOL": {}, "SCNSOL": {},
	"HUBSOL": {}, "INF": {}, "SOLBLZE": {}, "LST": {},
}

// IsStableSymbol reports whether a symbol names a stablecoin.
func IsStableSymbol(sym string) bool {
	_, ok := stableSymbols[strings.ToUpper(sym)]
	return ok
}

// IsLSTSymbol reports whether a symbol names a staked-SOL wrapper.
func IsLSTSymbol(sym string) bool {
	_, ok := lstSymbols[strings.ToUpper(sym)]
	return ok
}

// ResolveListedToken picks the best token-list match for a symbol, scoring
// verified and strict tags highest, then an exact name match, then having a
// logo at all. Returns nil when the symbol is absent.
func ResolveListedToken(list []ListedToken, wantSymbol, wantName string) *ListedToken {
	symbol := strings.ToUpper(strings.TrimSpace(wantSymbol))
	if symbol == "" {
		return nil
	}
	name := strings.ToLower(strings.TrimSpace(wantName))

	var candidates []ListedToken
	for _, t := range list {
		if strings.ToUpper(t.Symbol) == symbol {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	score := func(t ListedToken) int {
		s := 0
		for _, tag := range t.Tags {
			switch strings.ToLower(tag) {
			case "verified":
				s += 5
			case "strict":
				s += 3
			}
		}
		if name != "" && strings.ToLower(t.Name) == name {
			s += 4
		}
		if t.LogoURI != "" {
			s++
		}
		return s
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return score(candidates[i]) > score(candidates[j])
	})
	return &candidates[0]
}
