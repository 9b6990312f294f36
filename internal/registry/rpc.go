package registry

import (
	"fmt"
	"net/url"
	"strings"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

// RPCURL picks the endpoint for chainID: override first, then the chain entry.
func (t *Table) RPCURL(override string, chainID int64) (string, error) {
	if value := strings.TrimSpace(override); value != "" {
		if err := validateRPCURL(value); err != nil {
			return "", err
		}
		return value, nil
	}
	if cfg, ok := t.chains[chainID]; ok && cfg.RPCURL != "" {
		return cfg.RPCURL, nil
	}
	return "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("no rpc endpoint for chain id %d; pass --rpc-url or set chains.%d.rpc_url", chainID, chainID))
}

// DefaultRPCURL is the public endpoint shipped for chainID.
func DefaultRPCURL(chainID int64) (string, bool) {
	cfg, ok := defaultTable.chains[chainID]
	return cfg.RPCURL, ok && cfg.RPCURL != ""
}

func ResolveRPCURL(override string, chainID int64) (string, error) {
	return defaultTable.RPCURL(override, chainID)
}

func validateRPCURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return sdkerr.Wrap(sdkerr.CodeUsage, "parse rpc url", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("rpc url %q must use http, https, ws or wss", raw))
	}
}
