package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Router command sentinels.
var (
	ETHAddress        = common.Address{}
	EETHAddress       = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	ZeroAddress       = common.Address{}
	SenderAsRecipient = common.HexToAddress("0x0000000000000000000000000000000000000001")
	RouterAsRecipient = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

const (
	OpenseaConduitSpenderID = 0
	SudoswapSpenderID       = 1
)

var (
	contractBalance = new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	maxUint256      = new(uint256.Int).SetAllOne()
	maxUint160      = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))
)

// ContractBalance tells the router to use its entire balance of a token.
func ContractBalance() *uint256.Int { return contractBalance.Clone() }
func MaxUint256() *uint256.Int      { return maxUint256.Clone() }
func MaxUint160() *uint256.Int      { return maxUint160.Clone() }
