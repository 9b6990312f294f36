package currency

import (
	"math/big"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// Percent is a fraction expressed out of one, e.g. NewPercent(5, 100) is 5%.
type Percent struct {
	rat *big.Rat
}

func NewPercent(numerator, denominator int64) (Percent, error) {
	if denominator == 0 {
		return Percent{}, sdkerr.New(sdkerr.CodeUsage, "percent denominator is zero")
	}
	return Percent{rat: big.NewRat(numerator, denominator)}, nil
}

func MustPercent(numerator, denominator int64) Percent {
	p, err := NewPercent(numerator, denominator)
	if err != nil {
		panic(err)
	}
	return p
}

// PercentFromBps converts basis points, e.g. 50 -> 0.5%.
func PercentFromBps(bps int64) Percent {
	return MustPercent(bps, 10_000)
}

func (p Percent) Add(other Percent) Percent {
	return Percent{rat: new(big.Rat).Add(p.Rat(), other.Rat())}
}

func (p Percent) Rat() *big.Rat {
	if p.rat == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(p.rat)
}

// Bps returns the percent in basis points, rounded down.
func (p Percent) Bps() int64 {
	scaled := new(big.Rat).Mul(p.Rat(), big.NewRat(10_000, 1))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom()).Int64()
}

func (p Percent) String() string {
	scaled := new(big.Rat).Mul(p.Rat(), big.NewRat(100, 1))
	return scaled.FloatString(2) + "%"
}
