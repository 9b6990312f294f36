package currency

import (
	"fmt"
	"math/big"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// Price is an exchange rate of quote per base, kept as the raw base-unit fraction
// numerator/denominator. A zero denominator is allowed; the price is then undefined and
// every ratio conversion fails with CodeInvalidAmount.
type Price struct {
	base        Currency
	quote       Currency
	denominator *big.Int
	numerator   *big.Int
}

func NewPrice(base, quote Currency, denominator, numerator *big.Int) (Price, error) {
	if base == nil || quote == nil {
		return Price{}, sdkerr.New(sdkerr.CodeInvalidAmount, "price currencies are required")
	}
	if denominator == nil || numerator == nil {
		return Price{}, sdkerr.New(sdkerr.CodeInvalidAmount, "price terms are required")
	}
	return Price{
		base:        base,
		quote:       quote,
		denominator: new(big.Int).Set(denominator),
		numerator:   new(big.Int).Set(numerator),
	}, nil
}

// PriceFromAmounts builds the price of output per input.
func PriceFromAmounts(in, out Amount) (Price, error) {
	return NewPrice(in.Currency(), out.Currency(), in.Quotient(), out.Quotient())
}

func (p Price) Base() Currency  { return p.base }
func (p Price) Quote() Currency { return p.quote }

func (p Price) Numerator() *big.Int   { return new(big.Int).Set(p.numerator) }
func (p Price) Denominator() *big.Int { return new(big.Int).Set(p.denominator) }

// Defined reports whether the price has a nonzero denominator.
func (p Price) Defined() bool {
	return p.denominator != nil && p.denominator.Sign() != 0
}

// Raw is the base-unit ratio, not adjusted for decimals.
func (p Price) Raw() (*big.Rat, error) {
	if !p.Defined() {
		return nil, errZeroDenominator()
	}
	return new(big.Rat).SetFrac(p.numerator, p.denominator), nil
}

// Adjusted is the human-scale ratio: raw * 10^base.decimals / 10^quote.decimals.
func (p Price) Adjusted() (*big.Rat, error) {
	raw, err := p.Raw()
	if err != nil {
		return nil, err
	}
	scalar := new(big.Rat).SetFrac(pow10(p.base.Decimals()), pow10(p.quote.Decimals()))
	return raw.Mul(raw, scalar), nil
}

func (p Price) ToFixed(decimals int) (string, error) {
	adjusted, err := p.Adjusted()
	if err != nil {
		return "", err
	}
	return adjusted.FloatString(decimals), nil
}

func (p Price) Invert() (Price, error) {
	return NewPrice(p.quote, p.base, p.numerator, p.denominator)
}

// QuoteAmount converts an amount of the base currency into the quote currency, rounding down.
func (p Price) QuoteAmount(amount Amount) (Amount, error) {
	if !Equal(amount.Currency(), p.base) {
		return Amount{}, sdkerr.New(sdkerr.CodeUsage, "amount currency does not match price base")
	}
	if !p.Defined() {
		return Amount{}, errZeroDenominator()
	}
	out := new(big.Int).Mul(amount.Quotient(), p.numerator)
	out.Quo(out, p.denominator)
	return FromBig(p.quote, out)
}

// Equal compares the ratios. Undefined prices only equal each other with the same numerator.
func (p Price) Equal(other Price) bool {
	if p.denominator == nil || other.denominator == nil {
		return p.denominator == other.denominator
	}
	if !Equal(p.base, other.base) || !Equal(p.quote, other.quote) {
		return false
	}
	if !p.Defined() || !other.Defined() {
		return !p.Defined() && !other.Defined() && p.numerator.Cmp(other.numerator) == 0
	}
	left := new(big.Int).Mul(p.numerator, other.denominator)
	right := new(big.Int).Mul(other.numerator, p.denominator)
	return left.Cmp(right) == 0
}

func (p Price) String() string {
	if p.base == nil || p.quote == nil {
		return "<nil price>"
	}
	value, err := p.ToFixed(6)
	if err != nil {
		value = "undefined"
	}
	return fmt.Sprintf("%s %s/%s", value, p.quote.Symbol(), p.base.Symbol())
}

func errZeroDenominator() error {
	return sdkerr.New(sdkerr.CodeInvalidAmount, "price denominator is zero")
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
