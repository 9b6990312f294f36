// Package order carries the UniswapX priority order descriptor as decoded from its JSON form.
package order

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

type PriorityInput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
}

type PriorityOutput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
	Recipient            common.Address
}

// PriorityOrderInfo is the unsigned order body. Only Input and Outputs feed trade resolution.
type PriorityOrderInfo struct {
	Reactor                      common.Address
	Swapper                      common.Address
	Nonce                        *big.Int
	Deadline                     uint64
	AdditionalValidationContract common.Address
	AdditionalValidationData     []byte
	Cosigner                     common.Address
	AuctionStartBlock            *big.Int
	BaselinePriorityFeeWei       *big.Int
	Input                        PriorityInput
	Outputs                      []PriorityOutput
}

// UnsignedPriorityOrder binds an order body to the chain it will be filled on.
type UnsignedPriorityOrder struct {
	Info    PriorityOrderInfo
	ChainID int64
}

func NewUnsignedPriorityOrder(info PriorityOrderInfo, chainID int64) UnsignedPriorityOrder {
	return UnsignedPriorityOrder{Info: info, ChainID: chainID}
}

type inputJSON struct {
	Token                common.Address        `json:"token"`
	Amount               *math.HexOrDecimal256 `json:"amount"`
	MpsPerPriorityFeeWei *math.HexOrDecimal256 `json:"mpsPerPriorityFeeWei"`
}

type outputJSON struct {
	Token                common.Address        `json:"token"`
	Amount               *math.HexOrDecimal256 `json:"amount"`
	MpsPerPriorityFeeWei *math.HexOrDecimal256 `json:"mpsPerPriorityFeeWei"`
	Recipient            common.Address        `json:"recipient"`
}

type infoJSON struct {
	Reactor                      common.Address        `json:"reactor"`
	Swapper                      common.Address        `json:"swapper"`
	Nonce                        *math.HexOrDecimal256 `json:"nonce"`
	Deadline                     math.HexOrDecimal64   `json:"deadline"`
	AdditionalValidationContract common.Address        `json:"additionalValidationContract"`
	AdditionalValidationData     hexutil.Bytes         `json:"additionalValidationData"`
	Cosigner                     common.Address        `json:"cosigner"`
	AuctionStartBlock            *math.HexOrDecimal256 `json:"auctionStartBlock"`
	BaselinePriorityFeeWei       *math.HexOrDecimal256 `json:"baselinePriorityFeeWei"`
	Input                        *inputJSON            `json:"input"`
	Outputs                      []outputJSON          `json:"outputs"`
}

// Decode reads an order body in its JSON form. Integer fields accept decimal or 0x-hex,
// either quoted or bare.
func Decode(r io.Reader) (PriorityOrderInfo, error) {
	var wire infoJSON
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return PriorityOrderInfo{}, sdkerr.Wrap(sdkerr.CodeUsage, "decode priority order", err)
	}
	if wire.Input == nil {
		return PriorityOrderInfo{}, sdkerr.New(sdkerr.CodeUsage, "priority order has no input")
	}

	inputAmount, err := requiredAmount(wire.Input.Amount, "input.amount")
	if err != nil {
		return PriorityOrderInfo{}, err
	}
	info := PriorityOrderInfo{
		Reactor:                      wire.Reactor,
		Swapper:                      wire.Swapper,
		Nonce:                        optionalAmount(wire.Nonce),
		Deadline:                     uint64(wire.Deadline),
		AdditionalValidationContract: wire.AdditionalValidationContract,
		AdditionalValidationData:     []byte(wire.AdditionalValidationData),
		Cosigner:                     wire.Cosigner,
		AuctionStartBlock:            optionalAmount(wire.AuctionStartBlock),
		BaselinePriorityFeeWei:       optionalAmount(wire.BaselinePriorityFeeWei),
		Input: PriorityInput{
			Token:                wire.Input.Token,
			Amount:               inputAmount,
			MpsPerPriorityFeeWei: optionalAmount(wire.Input.MpsPerPriorityFeeWei),
		},
		Outputs: make([]PriorityOutput, 0, len(wire.Outputs)),
	}
	for i, out := range wire.Outputs {
		amount, err := requiredAmount(out.Amount, fmt.Sprintf("outputs[%d].amount", i))
		if err != nil {
			return PriorityOrderInfo{}, err
		}
		info.Outputs = append(info.Outputs, PriorityOutput{
			Token:                out.Token,
			Amount:               amount,
			MpsPerPriorityFeeWei: optionalAmount(out.MpsPerPriorityFeeWei),
			Recipient:            out.Recipient,
		})
	}
	return info, nil
}

func requiredAmount(v *math.HexOrDecimal256, field string) (*big.Int, error) {
	if v == nil {
		return nil, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("priority order field %s is required", field))
	}
	amount := (*big.Int)(v)
	if amount.Sign() < 0 {
		return nil, sdkerr.New(sdkerr.CodeInvalidAmount, fmt.Sprintf("priority order field %s must be non-negative", field))
	}
	return new(big.Int).Set(amount), nil
}

func optionalAmount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(v))
}
