package domain

import (
	"bytes"
	"math"
	"strconv"
)

// Num is a float64 that survives the looser numeric encodings DexScreener
// emits: plain numbers, quoted numbers, null, or a missing field all decode
// without error. Anything unparseable decodes to 0, so classifier math
// never sees NaN.
type Num float64

func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			*n = 0
			return nil
		}
		data = []byte(unquoted)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		// ParseFloat accepts quoted "NaN"/"Inf"; those coerce to zero too.
		*n = 0
		return nil
	}
	*n = Num(f)
	return nil
}

func (n Num) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// Float returns the plain float64 value.
func (n Num) Float() float64 { return float64(n) }
