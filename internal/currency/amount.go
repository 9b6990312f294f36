package currency

import (
	"fmt"
	"math/big"
	"strings"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/holiman/uint256"
)

// Amount is a raw on-chain integer amount bound to a currency. The currency's decimals
// give it a human scale; the raw value is never rescaled.
type Amount struct {
	currency Currency
	raw      uint256.Int
}

// FromRawAmount parses a base-unit integer (decimal, or hex with a 0x prefix) for c.
// Values that are negative, malformed or wider than 256 bits are rejected.
func FromRawAmount(c Currency, raw string) (Amount, error) {
	if c == nil {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount currency is required")
	}
	value, err := parseRaw(raw)
	if err != nil {
		return Amount{}, err
	}
	return FromBig(c, value)
}

func FromBig(c Currency, raw *big.Int) (Amount, error) {
	if c == nil {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount currency is required")
	}
	if raw == nil {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount is required")
	}
	if raw.Sign() < 0 {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount must be non-negative")
	}
	value, overflow := uint256.FromBig(raw)
	if overflow {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount exceeds uint256")
	}
	return Amount{currency: c, raw: *value}, nil
}

func FromUint256(c Currency, raw *uint256.Int) (Amount, error) {
	if c == nil || raw == nil {
		return Amount{}, sdkerr.New(sdkerr.CodeInvalidAmount, "amount currency and value are required")
	}
	return Amount{currency: c, raw: *raw}, nil
}

func (a Amount) Currency() Currency { return a.currency }

// Raw returns a copy of the base-unit value.
func (a Amount) Raw() *uint256.Int { return a.raw.Clone() }

// Quotient returns the base-unit value as a big.Int.
func (a Amount) Quotient() *big.Int { return a.raw.ToBig() }

func (a Amount) IsZero() bool { return a.raw.IsZero() }

// ToExact renders the amount at currency precision without rounding.
func (a Amount) ToExact() string {
	if a.currency == nil {
		return a.raw.Dec()
	}
	return formatUnits(a.raw.Dec(), a.currency.Decimals())
}

func (a Amount) Equal(other Amount) bool {
	return Equal(a.currency, other.currency) && a.raw.Eq(&other.raw)
}

func (a Amount) String() string {
	if a.currency == nil {
		return a.raw.Dec()
	}
	return fmt.Sprintf("%s %s", a.ToExact(), a.currency.Symbol())
}

func parseRaw(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, sdkerr.New(sdkerr.CodeInvalidAmount, "amount is empty")
	}
	value := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = value.SetString(s[2:], 16)
	} else {
		_, ok = value.SetString(s, 10)
	}
	if !ok {
		return nil, sdkerr.New(sdkerr.CodeInvalidAmount, fmt.Sprintf("invalid integer amount %q", raw))
	}
	return value, nil
}

func formatUnits(digits string, decimals int) string {
	if decimals == 0 {
		return digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	intPart := digits[:len(digits)-decimals]
	fracPart := strings.TrimRight(digits[len(digits)-decimals:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}
