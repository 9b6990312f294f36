package pools

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
)

// DefaultSlippage is the tolerance used when a caller does not pick one.
var DefaultSlippage = currency.MustPercent(5, 100)

type FeeOptions struct {
	Fee       currency.Percent
	Recipient common.Address
}

type SwapOptions struct {
	SlippageTolerance currency.Percent
	Recipient         common.Address
	Fee               *FeeOptions
}

// DefaultSwapOptions uses DefaultSlippage. A portion fee reduces the amount out like
// slippage does, so it is added to the tolerance.
func DefaultSwapOptions(recipient common.Address, fee *FeeOptions) SwapOptions {
	slippage := DefaultSlippage
	if fee != nil {
		slippage = slippage.Add(fee.Fee)
	}
	return SwapOptions{SlippageTolerance: slippage, Recipient: recipient, Fee: fee}
}
