package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// WETHNotSupportedOnChain marks a chain whose wrapped native asset is not known.
var WETHNotSupportedOnChain = common.Address{}

// ChainConfig is the Universal Router deployment on one chain. A zero address means the
// contract is not available there.
type ChainConfig struct {
	Name          string
	Permit2       common.Address
	Router        common.Address
	Beta          common.Address
	WETH          common.Address
	CreationBlock uint64
	V2Factory     common.Address
	V3Factory     common.Address
	RPCURL        string
}

var defaultChains = map[int64]ChainConfig{
	50: {
		Name:          "XDC Network",
		Permit2:       common.HexToAddress("0x941acf4e2df51bf43c3c4167631dbefa268bc9d7"),
		Router:        common.HexToAddress("0xe1bcb1c502a545ee85a1881b95cdd46d394d2b2e"),
		Beta:          common.HexToAddress("0x4A4dE54bF3A539dDe03220F54601a4213b66d14d"),
		WETH:          common.HexToAddress("0x951857744785E80e2De051c32EE7b25f9c458C42"),
		CreationBlock: 59782467,
		V2Factory:     common.HexToAddress("0x347D14b13a68457186b2450bb2a6c2Fd7B38352f"),
		RPCURL:        "https://rpc.xinfin.network",
	},
	51: {
		Name:          "XDC Apothem",
		Permit2:       common.HexToAddress("0x4b722f4a38f97e4078260de0c47f34ae0c404dbf"),
		Router:        common.HexToAddress("0xef53145eaa955f0b7749a80315de815e383540fb"),
		WETH:          WETHNotSupportedOnChain,
		CreationBlock: 48412660,
		RPCURL:        "https://rpc.apothem.network",
	},
}

// Override replaces individual fields of a chain entry. Empty fields keep the default.
type Override struct {
	Name          string `yaml:"name"`
	Permit2       string `yaml:"permit2"`
	Router        string `yaml:"router"`
	Beta          string `yaml:"beta"`
	WETH          string `yaml:"weth"`
	CreationBlock uint64 `yaml:"creation_block"`
	V2Factory     string `yaml:"v2_factory"`
	V3Factory     string `yaml:"v3_factory"`
	RPCURL        string `yaml:"rpc_url"`
}

// Table is an immutable set of chain deployments.
type Table struct {
	chains map[int64]ChainConfig
}

var defaultTable = &Table{chains: defaultChains}

// Default returns the table of shipped deployments.
func Default() *Table { return defaultTable }

func NewTable(chains map[int64]ChainConfig) *Table {
	copied := make(map[int64]ChainConfig, len(chains))
	for id, cfg := range chains {
		copied[id] = cfg
	}
	return &Table{chains: copied}
}

// WithOverrides returns a copy of t with overrides applied. Overrides for unknown chain
// ids add a new entry.
func (t *Table) WithOverrides(overrides map[int64]Override) (*Table, error) {
	next := NewTable(t.chains)
	for chainID, o := range overrides {
		cfg := next.chains[chainID]
		if name := strings.TrimSpace(o.Name); name != "" {
			cfg.Name = name
		}
		fields := []struct {
			name  string
			value string
			dst   *common.Address
		}{
			{"permit2", o.Permit2, &cfg.Permit2},
			{"router", o.Router, &cfg.Router},
			{"beta", o.Beta, &cfg.Beta},
			{"weth", o.WETH, &cfg.WETH},
			{"v2_factory", o.V2Factory, &cfg.V2Factory},
			{"v3_factory", o.V3Factory, &cfg.V3Factory},
		}
		for _, f := range fields {
			value := strings.TrimSpace(f.value)
			if value == "" {
				continue
			}
			if !common.IsHexAddress(value) {
				return nil, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("chains.%d.%s: invalid address %q", chainID, f.name, value))
			}
			*f.dst = common.HexToAddress(value)
		}
		if rpc := strings.TrimSpace(o.RPCURL); rpc != "" {
			if err := validateRPCURL(rpc); err != nil {
				return nil, sdkerr.Wrap(sdkerr.CodeUsage, fmt.Sprintf("chains.%d.rpc_url", chainID), err)
			}
			cfg.RPCURL = rpc
		}
		if o.CreationBlock != 0 {
			cfg.CreationBlock = o.CreationBlock
		}
		next.chains[chainID] = cfg
	}
	return next, nil
}

func (t *Table) Lookup(chainID int64) (ChainConfig, bool) {
	cfg, ok := t.chains[chainID]
	return cfg, ok
}

// ChainIDs returns the configured chain ids in ascending order.
func (t *Table) ChainIDs() []int64 {
	ids := make([]int64, 0, len(t.chains))
	for id := range t.chains {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (t *Table) UniversalRouterAddress(chainID int64, beta bool) (common.Address, error) {
	cfg, ok := t.chains[chainID]
	if !ok {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "Universal Router", false)
	}
	if beta {
		if cfg.Beta == (common.Address{}) {
			return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "beta Universal Router", true)
		}
		return cfg.Beta, nil
	}
	if cfg.Router == (common.Address{}) {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "Universal Router", true)
	}
	return cfg.Router, nil
}

func (t *Table) CreationBlock(chainID int64) (uint64, error) {
	cfg, ok := t.chains[chainID]
	if !ok {
		return 0, sdkerr.UnsupportedNetwork(chainID, "Universal Router", false)
	}
	return cfg.CreationBlock, nil
}

func (t *Table) WETHAddress(chainID int64) (common.Address, error) {
	cfg, ok := t.chains[chainID]
	if !ok {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "Wrapped Token", false)
	}
	if cfg.WETH == WETHNotSupportedOnChain {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "WETH", true)
	}
	return cfg.WETH, nil
}

func (t *Table) Permit2Address(chainID int64) (common.Address, error) {
	cfg, ok := t.chains[chainID]
	if !ok {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "Permit", false)
	}
	if cfg.Permit2 == (common.Address{}) {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, "Permit", true)
	}
	return cfg.Permit2, nil
}

func (t *Table) V2Factory(chainID int64) (common.Address, error) {
	return t.factory(chainID, "Uniswap V2 factory", func(c ChainConfig) common.Address { return c.V2Factory })
}

func (t *Table) V3Factory(chainID int64) (common.Address, error) {
	return t.factory(chainID, "Uniswap V3 factory", func(c ChainConfig) common.Address { return c.V3Factory })
}

func (t *Table) factory(chainID int64, feature string, pick func(ChainConfig) common.Address) (common.Address, error) {
	cfg, ok := t.chains[chainID]
	if !ok {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, feature, false)
	}
	addr := pick(cfg)
	if addr == (common.Address{}) {
		return common.Address{}, sdkerr.UnsupportedNetwork(chainID, feature, true)
	}
	return addr, nil
}

func UniversalRouterAddress(chainID int64, beta bool) (common.Address, error) {
	return defaultTable.UniversalRouterAddress(chainID, beta)
}

func UniversalRouterCreationBlock(chainID int64) (uint64, error) {
	return defaultTable.CreationBlock(chainID)
}

func WETHAddress(chainID int64) (common.Address, error) {
	return defaultTable.WETHAddress(chainID)
}

func Permit2Address(chainID int64) (common.Address, error) {
	return defaultTable.Permit2Address(chainID)
}
