package pools

import (
	"fmt"
	"math"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// FeeAmount is a V3 pool fee in hundredths of a basis point.
type FeeAmount uint32

const (
	FeeLowest FeeAmount = 100
	FeeLow    FeeAmount = 500
	FeeMedium FeeAmount = 3000
	FeeHigh   FeeAmount = 10000
)

const (
	MinTick = -887272
	MaxTick = -MinTick
)

var tickSpacings = map[FeeAmount]int{
	FeeLowest: 1,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

func ParseFeeAmount(fee uint32) (FeeAmount, error) {
	f := FeeAmount(fee)
	if _, ok := tickSpacings[f]; !ok {
		return 0, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("unsupported fee tier %d; use 100, 500, 3000 or 10000", fee))
	}
	return f, nil
}

func TickSpacing(fee FeeAmount) (int, error) {
	spacing, ok := tickSpacings[fee]
	if !ok {
		return 0, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("unsupported fee tier %d", fee))
	}
	return spacing, nil
}

// NearestUsableTick rounds tick to a multiple of spacing, half away from negative infinity,
// and keeps the result inside [MinTick, MaxTick].
func NearestUsableTick(tick, spacing int) int {
	if spacing <= 0 {
		panic("tick spacing must be positive")
	}
	rounded := int(math.Floor(float64(tick)/float64(spacing)+0.5)) * spacing
	if rounded < MinTick {
		return rounded + spacing
	}
	if rounded > MaxTick {
		return rounded - spacing
	}
	return rounded
}
