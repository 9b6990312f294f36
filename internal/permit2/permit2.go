// Package permit2 holds the Permit2 deployment addresses and the numeric limits of its
// allowance and signature transfer types.
package permit2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DefaultAddress is the Permit2 deployment used on every chain without its own entry.
var DefaultAddress = common.HexToAddress("0x941acf4e2df51bf43c3c4167631dbefa268bc9d7")

var addressByChainID = map[int64]common.Address{
	51: common.HexToAddress("0x4b722f4a38f97e4078260de0c47f34ae0c404dbf"), // Apothem
}

// Address returns the Permit2 deployment for a chain.
func Address(chainID int64) common.Address {
	if addr, ok := addressByChainID[chainID]; ok {
		return addr
	}
	return DefaultAddress
}

var (
	maxUint48  = uint256.MustFromHex("0xffffffffffff")
	maxUint160 = uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffff")
	maxUint256 = new(uint256.Int).SetAllOne()
)

func MaxUint48() *uint256.Int  { return maxUint48.Clone() }
func MaxUint160() *uint256.Int { return maxUint160.Clone() }
func MaxUint256() *uint256.Int { return maxUint256.Clone() }

// Allowance transfer limits.
func MaxAllowanceTransferAmount() *uint256.Int { return MaxUint160() }
func MaxAllowanceExpiration() *uint256.Int     { return MaxUint48() }
func MaxOrderedNonce() *uint256.Int            { return MaxUint48() }

// Signature transfer limits.
func MaxSignatureTransferAmount() *uint256.Int { return MaxUint256() }
func MaxUnorderedNonce() *uint256.Int          { return MaxUint256() }
func MaxSigDeadline() *uint256.Int             { return MaxUint256() }

// InstantExpiration makes an allowance expire in the block it is set.
func InstantExpiration() *uint256.Int { return new(uint256.Int) }
