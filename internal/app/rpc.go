package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/id"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/ggonzalez94/xswap-sdk/internal/pools"
	"go.uber.org/zap"
)

// chainSession dials the chain's RPC endpoint on first use and records every read as a
// source in the envelope.
type chainSession struct {
	state   *runtimeState
	chain   id.Chain
	fetcher *pools.Fetcher
	client  *ethclient.Client
	sources []model.SourceStatus
}

func (s *runtimeState) newChainSession(chain id.Chain) *chainSession {
	return &chainSession{state: s, chain: chain}
}

func (c *chainSession) get(ctx context.Context) (*pools.Fetcher, error) {
	if c.fetcher != nil {
		return c.fetcher, nil
	}
	rpcURL, err := c.state.registry.RPCURL(c.state.settings.RPCURL, c.chain.EVMChainID)
	if err != nil {
		return nil, err
	}
	fetcher, client, err := pools.Dial(ctx, rpcURL, pools.WithLogger(c.state.logger.Named("pools")))
	if err != nil {
		return nil, err
	}
	c.state.logger.Debug("rpc connected", zap.Int64("chain_id", c.chain.EVMChainID))
	c.fetcher = fetcher
	c.client = client
	return fetcher, nil
}

func (c *chainSession) record(name string, start time.Time, err error) {
	c.sources = append(c.sources, model.SourceStatus{Name: name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()})
}

func (c *chainSession) close() {
	if c.client != nil {
		c.client.Close()
	}
}

// resolveCurrency parses input on the session chain. Tokens missing from the bootstrap
// registry get their metadata from the chain.
func (c *chainSession) resolveCurrency(ctx context.Context, input string) (currency.Currency, error) {
	asset, err := id.ParseAsset(input, c.chain)
	if err != nil {
		return nil, err
	}
	if asset.Known {
		return asset.Currency(c.chain)
	}
	fetcher, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	token, err := fetcher.FetchToken(ctx, c.chain.EVMChainID, common.HexToAddress(asset.Address))
	c.record("rpc:token", start, err)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// resolveToken is resolveCurrency for pool reads. The native currency maps to the chain's
// wrapped token.
func (c *chainSession) resolveToken(ctx context.Context, input string) (currency.Token, error) {
	cur, err := c.resolveCurrency(ctx, input)
	if err != nil {
		return currency.Token{}, err
	}
	if token, ok := cur.(currency.Token); ok {
		return token, nil
	}
	weth, err := c.state.registry.WETHAddress(c.chain.EVMChainID)
	if err != nil {
		return currency.Token{}, err
	}
	wrapped, err := c.resolveCurrency(ctx, weth.Hex())
	if err != nil {
		return currency.Token{}, err
	}
	token, ok := wrapped.(currency.Token)
	if !ok {
		return currency.Token{}, sdkerr.New(sdkerr.CodeInternal, fmt.Sprintf("wrapped token for chain %d resolved to a native currency", c.chain.EVMChainID))
	}
	return token, nil
}
