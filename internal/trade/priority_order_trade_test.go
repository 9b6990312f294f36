package trade

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = currency.MustToken(50, "0xfA2958CB79b0491CC627c1557F441eF849Ca8eb1", 6, "USDC", "USDC")
	tokenB = currency.MustToken(50, "0x36726235dAdbdb4658D33E62a249dCA7c4B2bC68", 18, "XSP", "XSP Token")
	tokenC = currency.MustToken(50, "0x8f9920283470F52128bF11B0c14E798bE704fD15", 18, "CGO", "Comtech Gold")
	xdc    = currency.NewNative(50, "XDC", "XDC")
)

func orderInfo(in currency.Currency, inAmount string, outputs ...order.PriorityOutput) order.PriorityOrderInfo {
	return order.PriorityOrderInfo{
		Input:   order.PriorityInput{Token: in.Address(), Amount: mustBig(inAmount), MpsPerPriorityFeeWei: new(big.Int)},
		Outputs: outputs,
	}
}

func output(token common.Address, amount string) order.PriorityOutput {
	return order.PriorityOutput{Token: token, Amount: mustBig(amount), MpsPerPriorityFeeWei: new(big.Int)}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func newTrade(outputs []order.PriorityOutput, classic *ClassicAmounts) *PriorityOrderTrade {
	return NewPriorityOrderTrade(PriorityOrderTradeParams{
		CurrencyIn:     tokenA,
		CurrenciesOut:  []currency.Currency{tokenB},
		OrderInfo:      orderInfo(tokenA, "1000000", outputs...),
		TradeType:      ExactInput,
		ClassicAmounts: classic,
	})
}

func TestAmountsFromOrder(t *testing.T) {
	trade := newTrade([]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")}, nil)

	in, err := trade.InputAmount()
	require.NoError(t, err)
	assert.Equal(t, "1", in.ToExact())
	assert.True(t, currency.Equal(tokenA, in.Currency()))

	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, "2", out.ToExact())
	assert.True(t, currency.Equal(tokenB, out.Currency()))

	price, err := trade.ExecutionPrice()
	require.NoError(t, err)
	adjusted, err := price.Adjusted()
	require.NoError(t, err)
	assert.Equal(t, 0, adjusted.Cmp(big.NewRat(2, 1)))
	assert.Equal(t, "1000000", price.Denominator().String())
	assert.Equal(t, "2000000000000000000", price.Numerator().String())

	worst, err := trade.WorstExecutionPrice()
	require.NoError(t, err)
	assert.True(t, worst.Equal(price))
	assert.Equal(t, int64(50), trade.Order().ChainID)
}

func TestClassicOutputOverridesPublicAmountOnly(t *testing.T) {
	trade := newTrade(
		[]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")},
		&ClassicAmounts{AmountOutGasAndPortionAdjusted: "1900000000000000000"},
	)

	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, "1.9", out.ToExact())

	minOut, err := trade.MinimumAmountOut()
	require.NoError(t, err)
	assert.Equal(t, "2", minOut.ToExact())

	price, err := trade.ExecutionPrice()
	require.NoError(t, err)
	assert.Equal(t, "1.90", mustFixed(t, price, 2))

	worst, err := trade.WorstExecutionPrice()
	require.NoError(t, err)
	assert.Equal(t, "2.00", mustFixed(t, worst, 2))
	assert.False(t, worst.Equal(price))
}

func TestClassicInputOverridesInputButNotMaximum(t *testing.T) {
	trade := newTrade(
		[]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")},
		&ClassicAmounts{AmountInGasAndPortionAdjusted: "950000"},
	)

	in, err := trade.InputAmount()
	require.NoError(t, err)
	assert.Equal(t, "0.95", in.ToExact())

	maxIn, err := trade.MaximumAmountIn()
	require.NoError(t, err)
	assert.Equal(t, "1", maxIn.ToExact())

	worst, err := trade.WorstExecutionPrice()
	require.NoError(t, err)
	assert.Equal(t, "1000000", worst.Denominator().String())
	assert.Equal(t, "2000000000000000000", worst.Numerator().String())
}

func TestZeroInputYieldsUndefinedPrice(t *testing.T) {
	trade := NewPriorityOrderTrade(PriorityOrderTradeParams{
		CurrencyIn:    tokenA,
		CurrenciesOut: []currency.Currency{tokenB},
		OrderInfo:     orderInfo(tokenA, "0", output(tokenB.Address(), "2000000000000000000")),
		TradeType:     ExactInput,
	})

	price, err := trade.ExecutionPrice()
	require.NoError(t, err)
	assert.False(t, price.Defined())
	assert.Equal(t, "2000000000000000000", price.Numerator().String())
	_, err = price.ToFixed(2)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))

	worst, err := trade.WorstExecutionPrice()
	require.NoError(t, err)
	assert.False(t, worst.Defined())
}

func TestEmptyOverrideFieldsFallBackToOrder(t *testing.T) {
	trade := newTrade([]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")}, &ClassicAmounts{})

	in, err := trade.InputAmount()
	require.NoError(t, err)
	assert.Equal(t, "1000000", in.Quotient().String())

	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", out.Quotient().String())
}

func TestInvalidClassicAmountIsRejected(t *testing.T) {
	trade := newTrade(
		[]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")},
		&ClassicAmounts{AmountInGasAndPortionAdjusted: "not-a-number"},
	)
	_, err := trade.InputAmount()
	require.Error(t, err)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))
}

func TestOutputAmountsResolveEveryOutput(t *testing.T) {
	trade := NewPriorityOrderTrade(PriorityOrderTradeParams{
		CurrencyIn:    tokenA,
		CurrenciesOut: []currency.Currency{tokenC, tokenB},
		OrderInfo: orderInfo(tokenA, "1000000",
			output(tokenB.Address(), "2000000000000000000"),
			output(tokenC.Address(), "5000000000000000"),
		),
		TradeType: ExactOutput,
	})

	amounts, err := trade.OutputAmounts()
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.True(t, currency.Equal(tokenB, amounts[0].Currency()))
	assert.True(t, currency.Equal(tokenC, amounts[1].Currency()))
	assert.Equal(t, "0.005", amounts[1].ToExact())
	assert.Equal(t, ExactOutput, trade.TradeType())

	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.True(t, currency.Equal(tokenB, out.Currency()))
}

func TestNativeOutputMatchesZeroAndEAddress(t *testing.T) {
	for _, token := range []common.Address{{}, currency.EAddress} {
		trade := NewPriorityOrderTrade(PriorityOrderTradeParams{
			CurrencyIn:    tokenA,
			CurrenciesOut: []currency.Currency{xdc},
			OrderInfo:     orderInfo(tokenA, "1000000", output(token, "3000000000000000000")),
		})
		out, err := trade.OutputAmount()
		require.NoError(t, err)
		assert.True(t, out.Currency().IsNative())
		assert.Equal(t, "3", out.ToExact())
	}
}

func TestMissingOutputCurrency(t *testing.T) {
	trade := NewPriorityOrderTrade(PriorityOrderTradeParams{
		CurrencyIn:    tokenA,
		CurrenciesOut: []currency.Currency{tokenB},
		OrderInfo: orderInfo(tokenA, "1000000",
			output(tokenB.Address(), "2000000000000000000"),
			output(tokenC.Address(), "1"),
		),
	})

	amounts, err := trade.OutputAmounts()
	require.Error(t, err)
	assert.Nil(t, amounts)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeCurrencyNotFound))

	// The first output still resolves on its own.
	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, "2", out.ToExact())
}

func TestMissingFirstOutputCurrency(t *testing.T) {
	trade := newTrade([]order.PriorityOutput{output(tokenC.Address(), "1")}, nil)

	_, err := trade.OutputAmounts()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeCurrencyNotFound))
	_, err = trade.OutputAmount()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeCurrencyNotFound))
	_, err = trade.MinimumAmountOut()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeCurrencyNotFound))
	_, err = trade.ExecutionPrice()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeCurrencyNotFound))
}

func TestOutputMatchingTakesChainFromCandidate(t *testing.T) {
	apothemB := currency.MustToken(51, tokenB.Address().Hex(), 18, "XSP", "XSP Token")
	trade := NewPriorityOrderTrade(PriorityOrderTradeParams{
		CurrencyIn:    tokenA,
		CurrenciesOut: []currency.Currency{apothemB},
		OrderInfo:     orderInfo(tokenA, "1000000", output(tokenB.Address(), "1")),
	})
	out, err := trade.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, int64(51), out.Currency().ChainID())
}

func TestEmptyOutputs(t *testing.T) {
	trade := newTrade(nil, nil)

	_, err := trade.MinimumAmountOut()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeEmptyOutputs))
	_, err = trade.OutputAmount()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeEmptyOutputs))

	amounts, err := trade.OutputAmounts()
	require.NoError(t, err)
	assert.Empty(t, amounts)

	// The classic output does not depend on the order outputs.
	withClassic := newTrade(nil, &ClassicAmounts{AmountOutGasAndPortionAdjusted: "1"})
	out, err := withClassic.OutputAmount()
	require.NoError(t, err)
	assert.Equal(t, "1", out.Quotient().String())
	_, err = withClassic.MinimumAmountOut()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeEmptyOutputs))
}

func TestClassicAccessorsWithoutOverride(t *testing.T) {
	trade := newTrade(nil, nil)

	_, err := trade.classicAmountIn()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidState))
	_, err = trade.classicAmountOut()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidState))
}

func TestAccessorsAreIdempotent(t *testing.T) {
	trade := newTrade(
		[]order.PriorityOutput{output(tokenB.Address(), "2000000000000000000")},
		&ClassicAmounts{AmountInGasAndPortionAdjusted: "990000", AmountOutGasAndPortionAdjusted: "1900000000000000000"},
	)

	firstIn, err := trade.InputAmount()
	require.NoError(t, err)
	firstPrice, err := trade.ExecutionPrice()
	require.NoError(t, err)
	firstAmounts, err := trade.OutputAmounts()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in, err := trade.InputAmount()
			assert.NoError(t, err)
			assert.True(t, in.Equal(firstIn))
			price, err := trade.ExecutionPrice()
			assert.NoError(t, err)
			assert.True(t, price.Equal(firstPrice))
			amounts, err := trade.OutputAmounts()
			assert.NoError(t, err)
			assert.Equal(t, len(firstAmounts), len(amounts))
		}()
	}
	wg.Wait()

	// Callers cannot reach the memoized slice.
	firstAmounts[0] = currency.Amount{}
	again, err := trade.OutputAmounts()
	require.NoError(t, err)
	assert.Equal(t, "1900000000000000000", mustOutput(t, trade).Quotient().String())
	assert.Equal(t, "2000000000000000000", again[0].Quotient().String())
}

func mustOutput(t *testing.T, trade *PriorityOrderTrade) currency.Amount {
	t.Helper()
	out, err := trade.OutputAmount()
	require.NoError(t, err)
	return out
}

func mustFixed(t *testing.T, p currency.Price, decimals int) string {
	t.Helper()
	v, err := p.ToFixed(decimals)
	require.NoError(t, err)
	return v
}
