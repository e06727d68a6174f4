package spectrum

import "github.com/shopspring/decimal"

// PreciseFloat is the arbitrary-precision count type of every bin.
type PreciseFloat = decimal.Decimal

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// PreciseFromFloat converts a float64 count.
func PreciseFromFloat(f float64) PreciseFloat {
	return decimal.NewFromFloat(f)
}

// PreciseFromInt converts an integer count.
func PreciseFromInt(i int64) PreciseFloat {
	return decimal.NewFromInt(i)
}

// divisionPrecision bounds the digits kept by compensation quotients.
const divisionPrecision = 24

func quo(a, b PreciseFloat) PreciseFloat {
	return a.DivRound(b, divisionPrecision)
}
