package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/xswap-sdk/internal/cache"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/id"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/ggonzalez94/xswap-sdk/internal/pools"
	"github.com/spf13/cobra"
)

const (
	latestSnapshotTTL = 15 * time.Second
	pinnedSnapshotTTL = 24 * time.Hour
)

type poolArgs struct {
	chain   string
	tokenA  string
	tokenB  string
	factory string
	block   string
	fee     uint32
}

func (a *poolArgs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.chain, "chain", "xdc", "Chain identifier")
	cmd.Flags().StringVar(&a.tokenA, "token-a", "", "First token (symbol, address or CAIP-19)")
	cmd.Flags().StringVar(&a.tokenB, "token-b", "", "Second token (symbol, address or CAIP-19)")
	cmd.Flags().StringVar(&a.factory, "factory", "", "Factory address override")
	cmd.Flags().StringVar(&a.block, "block", "", "Block number to read at (latest when omitted)")
	_ = cmd.MarkFlagRequired("token-a")
	_ = cmd.MarkFlagRequired("token-b")
}

func (s *runtimeState) newPoolsCommand() *cobra.Command {
	root := &cobra.Command{Use: "pools", Short: "On-chain pool snapshot commands"}

	var pairArgs poolArgs
	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Read Uniswap V2 pair reserves",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runPoolsCommand(cmd, "v2", pairArgs)
		},
	}
	pairArgs.bind(pairCmd)

	var poolFlags poolArgs
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Read Uniswap V3 pool state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runPoolsCommand(cmd, "v3", poolFlags)
		},
	}
	poolFlags.bind(poolCmd)
	poolCmd.Flags().Uint32Var(&poolFlags.fee, "fee", uint32(pools.FeeMedium), "Fee tier: 100|500|3000|10000")

	root.AddCommand(pairCmd)
	root.AddCommand(poolCmd)
	return root
}

func (s *runtimeState) runPoolsCommand(cmd *cobra.Command, kind string, a poolArgs) error {
	chain, err := id.ParseChain(a.chain)
	if err != nil {
		return err
	}
	block, err := parseBlock(a.block)
	if err != nil {
		return err
	}
	factory, err := s.poolFactory(chain.EVMChainID, kind, a.factory)
	if err != nil {
		return err
	}
	var fee pools.FeeAmount
	if kind == "v3" {
		if fee, err = pools.ParseFeeAmount(a.fee); err != nil {
			return err
		}
	}

	ttl := latestSnapshotTTL
	blockKey := "latest"
	if block != nil {
		ttl = pinnedSnapshotTTL
		blockKey = block.String()
	}
	path := trimRootPath(cmd.CommandPath())
	key := cache.Key(path,
		fmt.Sprint(chain.EVMChainID), factory.Hex(),
		strings.ToLower(strings.TrimSpace(a.tokenA)), strings.ToLower(strings.TrimSpace(a.tokenB)),
		fmt.Sprint(fee), blockKey, s.settings.RPCURL,
	)

	return s.runCachedCommand(path, key, ttl, func(ctx context.Context) (any, []model.SourceStatus, error) {
		session := s.newChainSession(chain)
		defer session.close()

		tokenA, err := session.resolveToken(ctx, a.tokenA)
		if err != nil {
			return nil, session.sources, err
		}
		tokenB, err := session.resolveToken(ctx, a.tokenB)
		if err != nil {
			return nil, session.sources, err
		}
		fetcher, err := session.get(ctx)
		if err != nil {
			return nil, session.sources, err
		}

		start := time.Now()
		if kind == "v2" {
			snap, err := fetcher.FetchPair(ctx, factory, tokenA, tokenB, block)
			session.record("rpc:v2_pair", start, err)
			if err != nil {
				return nil, session.sources, err
			}
			view, err := s.pairView(chain.EVMChainID, factory, snap)
			return view, session.sources, err
		}
		snap, err := fetcher.FetchPool(ctx, factory, tokenA, tokenB, fee, block)
		session.record("rpc:v3_pool", start, err)
		if err != nil {
			return nil, session.sources, err
		}
		view, err := s.poolView(chain.EVMChainID, factory, snap)
		return view, session.sources, err
	})
}

func (s *runtimeState) poolFactory(chainID int64, kind, override string) (common.Address, error) {
	if strings.TrimSpace(override) != "" {
		if !common.IsHexAddress(strings.TrimSpace(override)) {
			return common.Address{}, sdkerr.New(sdkerr.CodeUsage, "--factory must be a hex address")
		}
		return common.HexToAddress(strings.TrimSpace(override)), nil
	}
	if kind == "v2" {
		return s.registry.V2Factory(chainID)
	}
	return s.registry.V3Factory(chainID)
}

func (s *runtimeState) pairView(chainID int64, factory common.Address, snap pools.PairSnapshot) (model.PairSnapshot, error) {
	price, err := snap.Token0Price()
	if err != nil {
		return model.PairSnapshot{}, err
	}
	return model.PairSnapshot{
		ChainID:            chainID,
		Pair:               snap.Address.Hex(),
		Factory:            factory.Hex(),
		Reserve0:           amountInfo(snap.Reserve0),
		Reserve1:           amountInfo(snap.Reserve1),
		Token0Price:        priceInfo(price),
		BlockTimestampLast: snap.BlockTimestampLast,
		Block:              blockLabel(snap.Block),
		FetchedAt:          s.runner.now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *runtimeState) poolView(chainID int64, factory common.Address, snap pools.PoolSnapshot) (model.PoolSnapshot, error) {
	price, err := snap.Token0Price()
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	ticks := make([]model.TickInfo, 0, len(snap.Ticks))
	for _, tick := range snap.Ticks {
		ticks = append(ticks, model.TickInfo{
			Index:          tick.Index,
			LiquidityNet:   tick.LiquidityNet.String(),
			LiquidityGross: tick.LiquidityGross.String(),
		})
	}
	return model.PoolSnapshot{
		ChainID:      chainID,
		Pool:         snap.Address.Hex(),
		Factory:      factory.Hex(),
		Token0:       tokenInfo(snap.Token0),
		Token1:       tokenInfo(snap.Token1),
		Fee:          uint32(snap.Fee),
		SqrtPriceX96: snap.SqrtPriceX96.String(),
		Liquidity:    snap.Liquidity.String(),
		TickCurrent:  snap.TickCurrent,
		Ticks:        ticks,
		Token0Price:  priceInfo(price),
		Block:        blockLabel(snap.Block),
		FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
	}, nil
}

func parseBlock(v string) (*big.Int, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "latest") {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(v, 0)
	if !ok || n.Sign() < 0 {
		return nil, sdkerr.New(sdkerr.CodeUsage, "--block must be a non-negative block number")
	}
	return n, nil
}

func blockLabel(block *big.Int) string {
	if block == nil {
		return "latest"
	}
	return block.String()
}
