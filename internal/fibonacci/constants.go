package fibonacci

import "math"

const (
	// MaxUint64Index is the largest n for which F(n) fits in a uint64.
	// F(93) = 12200160415121876738.
	MaxUint64Index = 93

	// log10Phi and log10Sqrt5 drive the decimal digit estimate via Binet's formula.
	log10Phi   = 0.20898764024997873
	log10Sqrt5 = 0.3494850021680094
)

// EstimateDigits returns the number of decimal digits of F(n), computed from
// Binet's formula. F(0) and F(1) report one digit.
func EstimateDigits(n uint64) int {
	if n < 2 {
		return 1
	}
	return int(math.Floor(float64(n)*log10Phi-log10Sqrt5)) + 1
}
