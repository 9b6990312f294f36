package id

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

var (
	eip155ChainPattern = regexp.MustCompile(`^eip155:[0-9]+$`)
	evmAddressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	eip155AssetPattern = regexp.MustCompile(`^eip155:[0-9]+/(erc20:0x[0-9a-fA-F]{40}|slip44:[0-9]+)$`)
)

type Chain struct {
	Name         string
	Slug         string
	CAIP2        string
	EVMChainID   int64
	NativeSymbol string
}

// Native returns the chain's native currency.
func (c Chain) Native() currency.Native {
	symbol := c.NativeSymbol
	if symbol == "" {
		symbol = "ETH"
	}
	return currency.NewNative(c.EVMChainID, symbol, symbol)
}

// Asset is a parsed asset reference. Decimals is zero and Known false when an ERC20 address
// is not in the bootstrap registry; callers then read metadata on-chain.
type Asset struct {
	ChainID  string
	AssetID  string
	Address  string
	Symbol   string
	Name     string
	Decimals int
	Native   bool
	Known    bool
}

// Currency converts a known asset into a currency on the given chain.
func (a Asset) Currency(chain Chain) (currency.Currency, error) {
	if a.Native {
		return chain.Native(), nil
	}
	if !a.Known {
		return nil, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("token %s is not in the registry; decimals are unknown", a.Address))
	}
	token, err := currency.NewToken(chain.EVMChainID, common.HexToAddress(a.Address), a.Decimals, a.Symbol, a.Name)
	if err != nil {
		return nil, err
	}
	return token, nil
}

type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals int
}

var chainBySlug = map[string]Chain{
	"xdc":     {Name: "XDC Network", Slug: "xdc", CAIP2: "eip155:50", EVMChainID: 50, NativeSymbol: "XDC"},
	"xinfin":  {Name: "XDC Network", Slug: "xdc", CAIP2: "eip155:50", EVMChainID: 50, NativeSymbol: "XDC"},
	"apothem": {Name: "XDC Apothem", Slug: "apothem", CAIP2: "eip155:51", EVMChainID: 51, NativeSymbol: "TXDC"},
}

var chainByID = map[int64]Chain{
	50: chainBySlug["xdc"],
	51: chainBySlug["apothem"],
}

// Bootstrap registry for deterministic asset parsing.
var tokenRegistry = map[string][]Token{
	"eip155:50": {
		{Symbol: "WXDC", Name: "Wrapped XDC", Address: "0x951857744785E80e2De051c32EE7b25f9c458C42", Decimals: 18},
		{Symbol: "xUSDT", Name: "Bridged USDT", Address: "0xD4B5f10D61916Bd6E0860144a91Ac658dE8a1437", Decimals: 6},
		{Symbol: "USDC", Name: "USDC", Address: "0xfA2958CB79b0491CC627c1557F441eF849Ca8eb1", Decimals: 6},
		{Symbol: "XSP", Name: "XSP Token", Address: "0x36726235dAdbdb4658D33E62a249dCA7c4B2bC68", Decimals: 18},
		{Symbol: "CGO", Name: "Comtech Gold", Address: "0x8f9920283470F52128bF11B0c14E798bE704fD15", Decimals: 18},
	},
}

func ParseChain(input string) (Chain, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Chain{}, sdkerr.New(sdkerr.CodeUsage, "chain is required")
	}
	norm := strings.ToLower(raw)

	if chain, ok := chainBySlug[norm]; ok {
		return chain, nil
	}

	if eip155ChainPattern.MatchString(norm) {
		parts := strings.Split(norm, ":")
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		return chainForID(id), nil
	}

	if id, err := strconv.ParseInt(norm, 10, 64); err == nil && id > 0 {
		return chainForID(id), nil
	}

	return Chain{}, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("unsupported chain input: %s", input))
}

func chainForID(id int64) Chain {
	if known, ok := chainByID[id]; ok {
		return known
	}
	return Chain{Name: fmt.Sprintf("EVM-%d", id), Slug: fmt.Sprintf("evm-%d", id), CAIP2: fmt.Sprintf("eip155:%d", id), EVMChainID: id}
}

// ParseAsset resolves a symbol, an address or a CAIP-19 id. The native asset is accepted
// as its symbol, "native", the zero address, 0xEeee...EEeE or slip44.
func ParseAsset(input string, chain Chain) (Asset, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Asset{}, sdkerr.New(sdkerr.CodeUsage, "asset is required")
	}

	if strings.Contains(raw, "/") {
		if !eip155AssetPattern.MatchString(raw) {
			return Asset{}, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("invalid CAIP-19 asset format: %s", input))
		}
		parts := strings.SplitN(raw, "/", 2)
		if parts[0] != chain.CAIP2 {
			return Asset{}, sdkerr.New(sdkerr.CodeUsage, "asset chain does not match --chain")
		}
		assetParts := strings.SplitN(parts[1], ":", 2)
		if assetParts[0] == "slip44" {
			return nativeAsset(chain), nil
		}
		return addressAsset(chain, assetParts[1]), nil
	}

	if evmAddressPattern.MatchString(raw) {
		addr := common.HexToAddress(raw)
		if addr == (common.Address{}) || addr == currency.EAddress {
			return nativeAsset(chain), nil
		}
		return addressAsset(chain, raw), nil
	}

	if strings.EqualFold(raw, "native") || (chain.NativeSymbol != "" && strings.EqualFold(raw, chain.NativeSymbol)) {
		return nativeAsset(chain), nil
	}

	matches := findTokensBySymbol(chain.CAIP2, raw)
	if len(matches) == 0 {
		return Asset{}, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("symbol %s not found in registry for chain %s", input, chain.CAIP2))
	}
	if len(matches) > 1 {
		addresses := make([]string, 0, len(matches))
		for _, m := range matches {
			addresses = append(addresses, m.Address)
		}
		sort.Strings(addresses)
		return Asset{}, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("symbol %s is ambiguous on chain %s, use address or CAIP-19 (%s)", input, chain.CAIP2, strings.Join(addresses, ", ")))
	}
	return tokenAsset(chain, matches[0]), nil
}

func nativeAsset(chain Chain) Asset {
	native := chain.Native()
	return Asset{
		ChainID:  chain.CAIP2,
		AssetID:  fmt.Sprintf("%s/slip44:%d", chain.CAIP2, slip44(chain)),
		Address:  common.Address{}.Hex(),
		Symbol:   native.Symbol(),
		Name:     native.Name(),
		Decimals: native.Decimals(),
		Native:   true,
		Known:    true,
	}
}

// slip44 coin types; 60 is the generic EVM value.
func slip44(chain Chain) int {
	if chain.NativeSymbol == "XDC" || chain.NativeSymbol == "TXDC" {
		return 550
	}
	return 60
}

func addressAsset(chain Chain, address string) Asset {
	if token, ok := findTokenByAddress(chain.CAIP2, address); ok {
		return tokenAsset(chain, token)
	}
	addr := strings.ToLower(strings.TrimSpace(address))
	return Asset{ChainID: chain.CAIP2, AssetID: canonicalAssetID(chain.CAIP2, addr), Address: addr}
}

func tokenAsset(chain Chain, t Token) Asset {
	addr := strings.ToLower(t.Address)
	return Asset{
		ChainID:  chain.CAIP2,
		AssetID:  canonicalAssetID(chain.CAIP2, addr),
		Address:  addr,
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: t.Decimals,
		Known:    true,
	}
}

func canonicalAssetID(chainID, address string) string {
	return fmt.Sprintf("%s/erc20:%s", chainID, strings.ToLower(strings.TrimSpace(address)))
}

func findTokenByAddress(chainID, address string) (Token, bool) {
	for _, t := range tokenRegistry[chainID] {
		if strings.EqualFold(t.Address, strings.TrimSpace(address)) {
			return t, true
		}
	}
	return Token{}, false
}

func findTokensBySymbol(chainID, symbol string) []Token {
	matches := []Token{}
	for _, t := range tokenRegistry[chainID] {
		if strings.EqualFold(t.Symbol, symbol) {
			matches = append(matches, t)
		}
	}
	return matches
}

func KnownToken(chainID, symbol string) (Token, bool) {
	matches := findTokensBySymbol(chainID, symbol)
	if len(matches) != 1 {
		return Token{}, false
	}
	return matches[0], true
}

func LookupByAddress(chainID, address string) (Token, bool) {
	return findTokenByAddress(chainID, address)
}
