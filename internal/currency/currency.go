// Package currency holds the value types shared by the trade, order and pool packages:
// currencies (native asset or token), raw amounts bound to a currency, prices and percents.
package currency

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// EAddress is the 0xEeee...EEeE placeholder some integrations use for the native asset.
var EAddress = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

// Currency is the identity of a tradable asset on a given chain.
type Currency interface {
	ChainID() int64
	Decimals() int
	Symbol() string
	Name() string
	IsNative() bool
	// Address returns the token contract, or the zero address for the native asset.
	Address() common.Address
}

type Token struct {
	chainID  int64
	address  common.Address
	decimals int
	symbol   string
	name     string
}

func NewToken(chainID int64, address common.Address, decimals int, symbol, name string) (Token, error) {
	if err := validateDecimals(decimals); err != nil {
		return Token{}, err
	}
	return Token{chainID: chainID, address: address, decimals: decimals, symbol: symbol, name: name}, nil
}

// MustToken is NewToken for package-level fixtures; it panics on invalid decimals.
func MustToken(chainID int64, address string, decimals int, symbol, name string) Token {
	t, err := NewToken(chainID, common.HexToAddress(address), decimals, symbol, name)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Token) ChainID() int64          { return t.chainID }
func (t Token) Decimals() int           { return t.decimals }
func (t Token) Symbol() string          { return t.symbol }
func (t Token) Name() string            { return t.name }
func (t Token) IsNative() bool          { return false }
func (t Token) Address() common.Address { return t.address }

// SortsBefore orders tokens the way pool contracts do: by ascending address.
func (t Token) SortsBefore(other Token) (bool, error) {
	if t.chainID != other.chainID {
		return false, sdkerr.New(sdkerr.CodeUsage, "tokens are on different chains")
	}
	if t.address == other.address {
		return false, sdkerr.New(sdkerr.CodeUsage, "tokens have the same address")
	}
	return bytes.Compare(t.address.Bytes(), other.address.Bytes()) < 0, nil
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%d:%s)", t.symbol, t.chainID, t.address.Hex())
}

type Native struct {
	chainID  int64
	decimals int
	symbol   string
	name     string
}

// NewNative returns the native asset of a chain. Native assets are always 18 decimals.
func NewNative(chainID int64, symbol, name string) Native {
	return Native{chainID: chainID, decimals: 18, symbol: symbol, name: name}
}

func (n Native) ChainID() int64          { return n.chainID }
func (n Native) Decimals() int           { return n.decimals }
func (n Native) Symbol() string          { return n.symbol }
func (n Native) Name() string            { return n.name }
func (n Native) IsNative() bool          { return true }
func (n Native) Address() common.Address { return common.Address{} }

func (n Native) String() string {
	return fmt.Sprintf("%s(%d:native)", n.symbol, n.chainID)
}

// Equal reports whether two currencies are the same asset: same chain and either both
// native or the same contract address. Address comparison ignores checksum casing.
func Equal(a, b Currency) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ChainID() != b.ChainID() {
		return false
	}
	if a.IsNative() || b.IsNative() {
		return a.IsNative() && b.IsNative()
	}
	return a.Address() == b.Address()
}

// MatchesAddress reports whether an order token address refers to c on chainID.
// Native currencies match the zero address and EAddress.
func MatchesAddress(c Currency, token common.Address, chainID int64) bool {
	if c == nil || c.ChainID() != chainID {
		return false
	}
	if c.IsNative() {
		return token == (common.Address{}) || token == EAddress
	}
	return c.Address() == token
}

func validateDecimals(decimals int) error {
	if decimals < 0 || decimals >= 255 {
		return sdkerr.New(sdkerr.CodeInvalidAmount, fmt.Sprintf("decimals must be in [0, 255), got %d", decimals))
	}
	return nil
}
