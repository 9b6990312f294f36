package currency

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = MustToken(50, "0xfA2958CB79b0491CC627c1557F441eF849Ca8eb1", 6, "USDC", "USDC")
	xsp  = MustToken(50, "0x36726235dAdbdb4658D33E62a249dCA7c4B2bC68", 18, "XSP", "XSP Token")
	xdc  = NewNative(50, "XDC", "XDC")
)

func TestEqualIsChainAwareAndCaseInsensitive(t *testing.T) {
	lower := MustToken(50, "0xfa2958cb79b0491cc627c1557f441ef849ca8eb1", 6, "USDC", "USDC")
	assert.True(t, Equal(usdc, lower))

	otherChain := MustToken(51, "0xfA2958CB79b0491CC627c1557F441eF849Ca8eb1", 6, "USDC", "USDC")
	assert.False(t, Equal(usdc, otherChain))

	assert.True(t, Equal(xdc, NewNative(50, "XDC", "XDC")))
	assert.False(t, Equal(xdc, NewNative(51, "TXDC", "XDC")))
	assert.False(t, Equal(xdc, usdc))
	assert.False(t, Equal(usdc, xsp))
}

func TestMatchesAddress(t *testing.T) {
	assert.True(t, MatchesAddress(usdc, common.HexToAddress("0xFA2958CB79B0491CC627C1557F441EF849CA8EB1"), 50))
	assert.False(t, MatchesAddress(usdc, usdc.Address(), 51))
	assert.False(t, MatchesAddress(usdc, xsp.Address(), 50))

	assert.True(t, MatchesAddress(xdc, common.Address{}, 50))
	assert.True(t, MatchesAddress(xdc, EAddress, 50))
	assert.False(t, MatchesAddress(xdc, usdc.Address(), 50))
}

func TestNewTokenRejectsInvalidDecimals(t *testing.T) {
	_, err := NewToken(50, common.Address{}, 255, "BAD", "bad")
	require.Error(t, err)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))
}

func TestSortsBefore(t *testing.T) {
	before, err := xsp.SortsBefore(usdc)
	require.NoError(t, err)
	assert.True(t, before)

	_, err = usdc.SortsBefore(usdc)
	require.Error(t, err)
}

func TestFromRawAmount(t *testing.T) {
	amount, err := FromRawAmount(usdc, "1000000")
	require.NoError(t, err)
	assert.Equal(t, "1", amount.ToExact())
	assert.Equal(t, "1 USDC", amount.String())

	hex, err := FromRawAmount(usdc, "0xf4240")
	require.NoError(t, err)
	assert.True(t, amount.Equal(hex))

	small, err := FromRawAmount(xsp, "1900000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1.9", small.ToExact())

	dust, err := FromRawAmount(usdc, "5")
	require.NoError(t, err)
	assert.Equal(t, "0.000005", dust.ToExact())
}

func TestFromRawAmountRejectsInvalidInput(t *testing.T) {
	for _, raw := range []string{"", "abc", "-1", "1.5", "0x10000000000000000000000000000000000000000000000000000000000000000"} {
		_, err := FromRawAmount(usdc, raw)
		require.Error(t, err, raw)
		assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount), raw)
	}
}

func TestAmountRawIsCopied(t *testing.T) {
	amount, err := FromRawAmount(usdc, "42")
	require.NoError(t, err)
	amount.Raw().SetUint64(7)
	assert.Equal(t, "42", amount.Quotient().String())
}

func TestPriceAdjustsForDecimals(t *testing.T) {
	in, err := FromRawAmount(usdc, "1000000")
	require.NoError(t, err)
	out, err := FromRawAmount(xsp, "2000000000000000000")
	require.NoError(t, err)

	price, err := PriceFromAmounts(in, out)
	require.NoError(t, err)
	adjusted, err := price.Adjusted()
	require.NoError(t, err)
	assert.Equal(t, 0, adjusted.Cmp(big.NewRat(2, 1)))
	assert.Equal(t, "2.00", mustFixed(t, price, 2))
	assert.Equal(t, "2.000000 XSP/USDC", price.String())

	quoted, err := price.QuoteAmount(in)
	require.NoError(t, err)
	assert.True(t, quoted.Equal(out))

	_, err = price.QuoteAmount(out)
	require.Error(t, err)

	inverted, err := price.Invert()
	require.NoError(t, err)
	assert.Equal(t, "0.5", mustFixed(t, inverted, 1))
}

func TestZeroDenominatorPriceIsUndefined(t *testing.T) {
	price, err := NewPrice(usdc, xsp, big.NewInt(0), big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, price.Defined())
	assert.Equal(t, "0", price.Denominator().String())

	_, err = price.Raw()
	require.Error(t, err)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))
	_, err = price.Adjusted()
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))
	_, err = price.ToFixed(2)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))

	in, err := FromRawAmount(usdc, "1000000")
	require.NoError(t, err)
	_, err = price.QuoteAmount(in)
	assert.True(t, sdkerr.Is(err, sdkerr.CodeInvalidAmount))

	assert.Equal(t, "undefined XSP/USDC", price.String())

	same, err := NewPrice(usdc, xsp, big.NewInt(0), big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, price.Equal(same))
	defined, err := NewPrice(usdc, xsp, big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, price.Equal(defined))
	assert.False(t, defined.Equal(price))

	inverted, err := price.Invert()
	require.NoError(t, err)
	assert.Equal(t, "0.000000000000", mustFixed(t, inverted, 12))
}

func TestPriceEqualComparesRatios(t *testing.T) {
	half, err := NewPrice(usdc, xsp, big.NewInt(2), big.NewInt(1))
	require.NoError(t, err)
	scaled, err := NewPrice(usdc, xsp, big.NewInt(10), big.NewInt(5))
	require.NoError(t, err)
	assert.True(t, half.Equal(scaled))
}

func mustFixed(t *testing.T, p Price, decimals int) string {
	t.Helper()
	v, err := p.ToFixed(decimals)
	require.NoError(t, err)
	return v
}

func TestPercent(t *testing.T) {
	p := MustPercent(5, 100).Add(PercentFromBps(50))
	assert.Equal(t, int64(550), p.Bps())
	assert.Equal(t, "5.50%", p.String())

	_, err := NewPercent(1, 0)
	require.Error(t, err)
}
