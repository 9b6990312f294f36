// Package trade resolves the amounts and prices of a UniswapX priority order trade.
//
// Two views of each quantity are exposed. The public amounts (InputAmount, OutputAmount,
// ExecutionPrice) prefer an externally supplied classic quote when one is present. The
// order amounts (MaximumAmountIn, MinimumAmountOut, WorstExecutionPrice) always come from
// the order itself and are what the reactor enforces on-chain.
package trade

import (
	"fmt"
	"sync"

	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/order"
)

type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "exact_input"
	case ExactOutput:
		return "exact_output"
	default:
		return fmt.Sprintf("trade_type(%d)", int(t))
	}
}

// ClassicAmounts are raw base-unit amounts from a classic routing quote, already adjusted
// for gas and portion fees. An empty field is absent.
type ClassicAmounts struct {
	AmountInGasAndPortionAdjusted  string `json:"classicAmountInGasAndPortionAdjusted,omitempty"`
	AmountOutGasAndPortionAdjusted string `json:"classicAmountOutGasAndPortionAdjusted,omitempty"`
}

type PriorityOrderTradeParams struct {
	CurrencyIn     currency.Currency
	CurrenciesOut  []currency.Currency
	OrderInfo      order.PriorityOrderInfo
	TradeType      TradeType
	ClassicAmounts *ClassicAmounts
}

// amountSource says where a public amount comes from. It is fixed at construction.
type amountSource struct {
	override bool
	raw      string
}

func sourceFor(raw string) amountSource {
	if raw == "" {
		return amountSource{}
	}
	return amountSource{override: true, raw: raw}
}

// PriorityOrderTrade is safe for concurrent use. Each derived value is computed at most
// once per instance.
type PriorityOrderTrade struct {
	tradeType      TradeType
	order          order.UnsignedPriorityOrder
	classicAmounts *ClassicAmounts

	currencyIn    currency.Currency
	currenciesOut []currency.Currency

	inSource  amountSource
	outSource amountSource

	inputAmount             func() (currency.Amount, error)
	outputAmounts           func() ([]currency.Amount, error)
	firstNonFeeOutputAmount func() (currency.Amount, error)
	executionPrice          func() (currency.Price, error)
}

func NewPriorityOrderTrade(p PriorityOrderTradeParams) *PriorityOrderTrade {
	var chainID int64
	if p.CurrencyIn != nil {
		chainID = p.CurrencyIn.ChainID()
	}
	t := &PriorityOrderTrade{
		tradeType:      p.TradeType,
		classicAmounts: p.ClassicAmounts,
		currencyIn:     p.CurrencyIn,
		currenciesOut:  p.CurrenciesOut,
		// single chain across input and outputs for now
		order: order.NewUnsignedPriorityOrder(p.OrderInfo, chainID),
	}
	if p.ClassicAmounts != nil {
		t.inSource = sourceFor(p.ClassicAmounts.AmountInGasAndPortionAdjusted)
		t.outSource = sourceFor(p.ClassicAmounts.AmountOutGasAndPortionAdjusted)
	}
	t.inputAmount = sync.OnceValues(t.resolveInputAmount)
	t.outputAmounts = sync.OnceValues(t.resolveOutputAmounts)
	t.firstNonFeeOutputAmount = sync.OnceValues(t.resolveFirstNonFeeOutputAmount)
	t.executionPrice = sync.OnceValues(t.resolveExecutionPrice)
	return t
}

func (t *PriorityOrderTrade) TradeType() TradeType                 { return t.tradeType }
func (t *PriorityOrderTrade) Order() order.UnsignedPriorityOrder   { return t.order }
func (t *PriorityOrderTrade) ClassicAmounts() *ClassicAmounts      { return t.classicAmounts }
func (t *PriorityOrderTrade) CurrencyIn() currency.Currency        { return t.currencyIn }
func (t *PriorityOrderTrade) CurrenciesOut() []currency.Currency   { return t.currenciesOut }

// InputAmount is the classic-quote input when present, else the order input.
func (t *PriorityOrderTrade) InputAmount() (currency.Amount, error) {
	return t.inputAmount()
}

// OutputAmounts resolves every order output against CurrenciesOut. A single unmatched
// output fails the whole call.
func (t *PriorityOrderTrade) OutputAmounts() ([]currency.Amount, error) {
	amounts, err := t.outputAmounts()
	if err != nil {
		return nil, err
	}
	return append([]currency.Amount(nil), amounts...), nil
}

// OutputAmount is the classic-quote output when present, else the first non-fee output.
// Only one non-fee output is assumed, and it is the first.
func (t *PriorityOrderTrade) OutputAmount() (currency.Amount, error) {
	if t.outSource.override {
		return t.classicAmountOut()
	}
	return t.firstNonFeeOutputAmount()
}

// MinimumAmountOut ignores any classic quote.
func (t *PriorityOrderTrade) MinimumAmountOut() (currency.Amount, error) {
	return t.firstNonFeeOutputAmount()
}

// MaximumAmountIn ignores any classic quote and is recomputed from the order on every call.
func (t *PriorityOrderTrade) MaximumAmountIn() (currency.Amount, error) {
	return t.orderInputAmount()
}

// ExecutionPrice is output per input over the public amounts.
func (t *PriorityOrderTrade) ExecutionPrice() (currency.Price, error) {
	return t.executionPrice()
}

// WorstExecutionPrice is MinimumAmountOut per MaximumAmountIn. It is not cached.
func (t *PriorityOrderTrade) WorstExecutionPrice() (currency.Price, error) {
	in, err := t.InputAmount()
	if err != nil {
		return currency.Price{}, err
	}
	out, err := t.OutputAmount()
	if err != nil {
		return currency.Price{}, err
	}
	maxIn, err := t.MaximumAmountIn()
	if err != nil {
		return currency.Price{}, err
	}
	minOut, err := t.MinimumAmountOut()
	if err != nil {
		return currency.Price{}, err
	}
	return currency.NewPrice(in.Currency(), out.Currency(), maxIn.Quotient(), minOut.Quotient())
}

func (t *PriorityOrderTrade) resolveInputAmount() (currency.Amount, error) {
	if t.inSource.override {
		return t.classicAmountIn()
	}
	return t.orderInputAmount()
}

func (t *PriorityOrderTrade) orderInputAmount() (currency.Amount, error) {
	return currency.FromBig(t.currencyIn, t.order.Info.Input.Amount)
}

func (t *PriorityOrderTrade) resolveOutputAmounts() ([]currency.Amount, error) {
	amounts := make([]currency.Amount, 0, len(t.order.Info.Outputs))
	for _, output := range t.order.Info.Outputs {
		currencyOut, ok := t.findCurrencyOut(output)
		if !ok {
			return nil, sdkerr.New(sdkerr.CodeCurrencyNotFound, "currency not found in output array")
		}
		amount, err := currency.FromBig(currencyOut, output.Amount)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

func (t *PriorityOrderTrade) resolveFirstNonFeeOutputAmount() (currency.Amount, error) {
	if len(t.order.Info.Outputs) == 0 {
		return currency.Amount{}, sdkerr.New(sdkerr.CodeEmptyOutputs, "there must be at least one output token")
	}
	output := t.order.Info.Outputs[0]
	currencyOut, ok := t.findCurrencyOut(output)
	if !ok {
		return currency.Amount{}, sdkerr.New(sdkerr.CodeCurrencyNotFound, "currency output from order must exist in currenciesOut list")
	}
	return currency.FromBig(currencyOut, output.Amount)
}

func (t *PriorityOrderTrade) resolveExecutionPrice() (currency.Price, error) {
	in, err := t.InputAmount()
	if err != nil {
		return currency.Price{}, err
	}
	out, err := t.OutputAmount()
	if err != nil {
		return currency.Price{}, err
	}
	return currency.NewPrice(in.Currency(), out.Currency(), in.Quotient(), out.Quotient())
}

// findCurrencyOut scans CurrenciesOut in order. The chain id comes from each candidate,
// not the order, so outputs are assumed to share one chain.
func (t *PriorityOrderTrade) findCurrencyOut(output order.PriorityOutput) (currency.Currency, bool) {
	for _, c := range t.currenciesOut {
		if currency.MatchesAddress(c, output.Token, c.ChainID()) {
			return c, true
		}
	}
	return nil, false
}

func (t *PriorityOrderTrade) classicAmountIn() (currency.Amount, error) {
	if !t.inSource.override {
		return currency.Amount{}, sdkerr.New(sdkerr.CodeInvalidState, "classicAmountInGasAndPortionAdjusted not set")
	}
	return currency.FromRawAmount(t.currencyIn, t.inSource.raw)
}

func (t *PriorityOrderTrade) classicAmountOut() (currency.Amount, error) {
	if !t.outSource.override {
		return currency.Amount{}, sdkerr.New(sdkerr.CodeInvalidState, "classicAmountOutGasAndPortionAdjusted not set")
	}
	if len(t.currenciesOut) == 0 {
		return currency.Amount{}, sdkerr.New(sdkerr.CodeCurrencyNotFound, "no output currency for classic amount")
	}
	return currency.FromRawAmount(t.currenciesOut[0], t.outSource.raw)
}
