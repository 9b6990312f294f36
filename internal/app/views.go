package app

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/ggonzalez94/xswap-sdk/internal/permit2"
	"github.com/ggonzalez94/xswap-sdk/internal/registry"
)

// priceDecimals is the fixed precision of rendered prices.
const priceDecimals = 18

func tokenInfo(c currency.Currency) model.TokenInfo {
	return model.TokenInfo{
		Symbol:   c.Symbol(),
		Address:  c.Address().Hex(),
		Native:   c.IsNative(),
		Decimals: c.Decimals(),
	}
}

func amountInfo(a currency.Amount) model.AmountInfo {
	return model.AmountInfo{
		TokenInfo:       tokenInfo(a.Currency()),
		AmountBaseUnits: a.Quotient().String(),
		AmountDecimal:   a.ToExact(),
	}
}

// priceInfo leaves Value empty for an undefined price; the raw terms are always set.
func priceInfo(p currency.Price) model.PriceInfo {
	info := model.PriceInfo{
		Base:        p.Base().Symbol(),
		Quote:       p.Quote().Symbol(),
		Numerator:   p.Numerator().String(),
		Denominator: p.Denominator().String(),
	}
	if value, err := p.ToFixed(priceDecimals); err == nil {
		info.Value = trimFixed(value)
	}
	return info
}

// trimFixed drops trailing fractional zeros from a fixed-point string.
func trimFixed(v string) string {
	if !strings.Contains(v, ".") {
		return v
	}
	return strings.TrimSuffix(strings.TrimRight(v, "0"), ".")
}

func optionalHex(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}

func contractsView(chainID int64, cfg registry.ChainConfig) model.ContractsView {
	return model.ContractsView{
		ChainID:             chainID,
		Name:                cfg.Name,
		Permit2:             cfg.Permit2.Hex(),
		UniversalRouter:     cfg.Router.Hex(),
		UniversalRouterBeta: optionalHex(cfg.Beta),
		WETH:                optionalHex(cfg.WETH),
		CreationBlock:       cfg.CreationBlock,
		V2Factory:           optionalHex(cfg.V2Factory),
		V3Factory:           optionalHex(cfg.V3Factory),
		RPCURL:              cfg.RPCURL,
	}
}

func constantsView() model.ConstantsView {
	return model.ConstantsView{
		ETHAddress:                 registry.ETHAddress.Hex(),
		EETHAddress:                registry.EETHAddress.Hex(),
		ZeroAddress:                registry.ZeroAddress.Hex(),
		SenderAsRecipient:          registry.SenderAsRecipient.Hex(),
		RouterAsRecipient:          registry.RouterAsRecipient.Hex(),
		ContractBalance:            registry.ContractBalance().Dec(),
		OpenseaConduitSpenderID:    registry.OpenseaConduitSpenderID,
		SudoswapSpenderID:          registry.SudoswapSpenderID,
		MaxUint48:                  permit2.MaxUint48().Dec(),
		MaxUint160:                 permit2.MaxUint160().Dec(),
		MaxUint256:                 permit2.MaxUint256().Dec(),
		MaxAllowanceTransferAmount: permit2.MaxAllowanceTransferAmount().Dec(),
		MaxAllowanceExpiration:     permit2.MaxAllowanceExpiration().Dec(),
		MaxOrderedNonce:            permit2.MaxOrderedNonce().Dec(),
		MaxSignatureTransferAmount: permit2.MaxSignatureTransferAmount().Dec(),
		MaxUnorderedNonce:          permit2.MaxUnorderedNonce().Dec(),
		MaxSigDeadline:             permit2.MaxSigDeadline().Dec(),
		InstantExpiration:          permit2.InstantExpiration().Dec(),
	}
}
