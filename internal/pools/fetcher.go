// Package pools reads Uniswap V2 pair reserves and V3 pool state from a node, pinned to a
// block when one is given.
package pools

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/logging"
	"github.com/ggonzalez94/xswap-sdk/internal/registry"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	erc20ABI     = mustABI(registry.ERC20MinimalABI)
	v2FactoryABI = mustABI(registry.UniswapV2FactoryABI)
	v2PairABI    = mustABI(registry.UniswapV2PairABI)
	v3FactoryABI = mustABI(registry.UniswapV3FactoryABI)
	v3PoolABI    = mustABI(registry.UniswapV3PoolABI)
)

const defaultMemoSize = 256

// ContractCaller is the read side of an Ethereum client. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Fetcher struct {
	caller ContractCaller
	memo   *lru.Cache[string, any]
	logger *zap.Logger
}

type Option func(*Fetcher)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrNop(logger) }
}

// WithMemoSize bounds the in-process memo of block-pinned snapshots.
func WithMemoSize(size int) Option {
	return func(f *Fetcher) {
		if size <= 0 {
			size = defaultMemoSize
		}
		memo, _ := lru.New[string, any](size)
		f.memo = memo
	}
}

func NewFetcher(caller ContractCaller, opts ...Option) *Fetcher {
	memo, _ := lru.New[string, any](defaultMemoSize)
	f := &Fetcher{caller: caller, memo: memo, logger: logging.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dial connects to rpcURL and returns a fetcher over it. Callers close the client.
func Dial(ctx context.Context, rpcURL string, opts ...Option) (*Fetcher, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, sdkerr.Wrap(sdkerr.CodeUnavailable, "connect rpc", err)
	}
	return NewFetcher(client, opts...), client, nil
}

type PairSnapshot struct {
	Address            common.Address
	Token0             currency.Token
	Token1             currency.Token
	Reserve0           currency.Amount
	Reserve1           currency.Amount
	BlockTimestampLast uint32
	Block              *big.Int
}

// Token0Price is token1 per token0 at the snapshot reserves.
func (p PairSnapshot) Token0Price() (currency.Price, error) {
	return currency.NewPrice(p.Token0, p.Token1, p.Reserve0.Quotient(), p.Reserve1.Quotient())
}

func (p PairSnapshot) clone() PairSnapshot {
	p.Block = copyBig(p.Block)
	return p
}

type Tick struct {
	Index          int
	LiquidityNet   *big.Int
	LiquidityGross *big.Int
}

type PoolSnapshot struct {
	Address      common.Address
	Token0       currency.Token
	Token1       currency.Token
	Fee          FeeAmount
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	TickCurrent  int
	Ticks        []Tick
	Block        *big.Int
}

// Token0Price is token1 per token0 derived from sqrtPriceX96.
func (p PoolSnapshot) Token0Price() (currency.Price, error) {
	numerator := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	denominator := new(big.Int).Lsh(big.NewInt(1), 192)
	return currency.NewPrice(p.Token0, p.Token1, denominator, numerator)
}

// clone copies every big.Int and the tick slice so memoized snapshots never alias a caller's.
func (p PoolSnapshot) clone() PoolSnapshot {
	p.SqrtPriceX96 = copyBig(p.SqrtPriceX96)
	p.Liquidity = copyBig(p.Liquidity)
	p.Block = copyBig(p.Block)
	if p.Ticks != nil {
		ticks := make([]Tick, len(p.Ticks))
		for i, t := range p.Ticks {
			ticks[i] = Tick{Index: t.Index, LiquidityNet: copyBig(t.LiquidityNet), LiquidityGross: copyBig(t.LiquidityGross)}
		}
		p.Ticks = ticks
	}
	return p
}

// FetchPair reads the V2 pair for tokenA/tokenB from factory. A nil block reads latest and
// is never memoized.
func (f *Fetcher) FetchPair(ctx context.Context, factory common.Address, tokenA, tokenB currency.Token, block *big.Int) (PairSnapshot, error) {
	token0, token1, err := sortTokens(tokenA, tokenB)
	if err != nil {
		return PairSnapshot{}, err
	}
	key := memoKey("pair", block, factory.Hex(), token0.Address().Hex(), token1.Address().Hex())
	if cached, ok := f.lookup(key); ok {
		return cached.(PairSnapshot).clone(), nil
	}

	pairAddr, err := f.callAddress(ctx, factory, v2FactoryABI, "getPair", block, token0.Address(), token1.Address())
	if err != nil {
		return PairSnapshot{}, err
	}
	if pairAddr == (common.Address{}) {
		return PairSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, fmt.Sprintf("no v2 pair for %s/%s", token0.Symbol(), token1.Symbol()))
	}

	out, err := f.call(ctx, pairAddr, v2PairABI, "getReserves", block)
	if err != nil {
		return PairSnapshot{}, err
	}
	if len(out) < 3 {
		return PairSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected getReserves result")
	}
	raw0, ok0 := out[0].(*big.Int)
	raw1, ok1 := out[1].(*big.Int)
	ts, ok2 := out[2].(uint32)
	if !ok0 || !ok1 || !ok2 {
		return PairSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected getReserves result types")
	}
	reserve0, err := currency.FromBig(token0, raw0)
	if err != nil {
		return PairSnapshot{}, err
	}
	reserve1, err := currency.FromBig(token1, raw1)
	if err != nil {
		return PairSnapshot{}, err
	}

	snapshot := PairSnapshot{
		Address:            pairAddr,
		Token0:             token0,
		Token1:             token1,
		Reserve0:           reserve0,
		Reserve1:           reserve1,
		BlockTimestampLast: ts,
		Block:              copyBig(block),
	}
	f.logger.Debug("fetched v2 pair", zap.String("pair", pairAddr.Hex()), zap.Stringer("reserve0", reserve0), zap.Stringer("reserve1", reserve1))
	f.store(key, snapshot.clone())
	return snapshot, nil
}

// FetchPool reads the V3 pool for tokenA/tokenB/fee from factory. The returned ticks are the
// two full-range ticks carrying the pool's current liquidity.
func (f *Fetcher) FetchPool(ctx context.Context, factory common.Address, tokenA, tokenB currency.Token, fee FeeAmount, block *big.Int) (PoolSnapshot, error) {
	spacing, err := TickSpacing(fee)
	if err != nil {
		return PoolSnapshot{}, err
	}
	token0, token1, err := sortTokens(tokenA, tokenB)
	if err != nil {
		return PoolSnapshot{}, err
	}
	key := memoKey("pool", block, factory.Hex(), token0.Address().Hex(), token1.Address().Hex(), fmt.Sprint(fee))
	if cached, ok := f.lookup(key); ok {
		return cached.(PoolSnapshot).clone(), nil
	}

	poolAddr, err := f.callAddress(ctx, factory, v3FactoryABI, "getPool", block, token0.Address(), token1.Address(), big.NewInt(int64(fee)))
	if err != nil {
		return PoolSnapshot{}, err
	}
	if poolAddr == (common.Address{}) {
		return PoolSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, fmt.Sprintf("no v3 pool for %s/%s fee %d", token0.Symbol(), token1.Symbol(), fee))
	}

	liqOut, err := f.call(ctx, poolAddr, v3PoolABI, "liquidity", block)
	if err != nil {
		return PoolSnapshot{}, err
	}
	liquidity, ok := firstBig(liqOut)
	if !ok {
		return PoolSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected liquidity result")
	}

	slot0, err := f.call(ctx, poolAddr, v3PoolABI, "slot0", block)
	if err != nil {
		return PoolSnapshot{}, err
	}
	if len(slot0) < 2 {
		return PoolSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected slot0 result")
	}
	sqrtPrice, ok1 := slot0[0].(*big.Int)
	tick, ok2 := slot0[1].(*big.Int)
	if !ok1 || !ok2 {
		return PoolSnapshot{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected slot0 result types")
	}

	snapshot := PoolSnapshot{
		Address:      poolAddr,
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		SqrtPriceX96: new(big.Int).Set(sqrtPrice),
		Liquidity:    new(big.Int).Set(liquidity),
		TickCurrent:  int(tick.Int64()),
		Ticks: []Tick{
			{Index: NearestUsableTick(MinTick, spacing), LiquidityNet: new(big.Int).Set(liquidity), LiquidityGross: new(big.Int).Set(liquidity)},
			{Index: NearestUsableTick(MaxTick, spacing), LiquidityNet: new(big.Int).Neg(liquidity), LiquidityGross: new(big.Int).Set(liquidity)},
		},
		Block: copyBig(block),
	}
	f.logger.Debug("fetched v3 pool", zap.String("pool", poolAddr.Hex()), zap.Stringer("liquidity", liquidity), zap.Int("tick", snapshot.TickCurrent))
	f.store(key, snapshot.clone())
	return snapshot, nil
}

// FetchToken reads ERC20 metadata for tokens missing from the bootstrap registry.
func (f *Fetcher) FetchToken(ctx context.Context, chainID int64, address common.Address) (currency.Token, error) {
	key := memoKey("token", big.NewInt(chainID), address.Hex())
	if cached, ok := f.lookup(key); ok {
		return cached.(currency.Token), nil
	}
	decOut, err := f.call(ctx, address, erc20ABI, "decimals", nil)
	if err != nil {
		return currency.Token{}, err
	}
	if len(decOut) == 0 {
		return currency.Token{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected decimals result")
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return currency.Token{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected decimals result type")
	}
	symbol := ""
	if symOut, err := f.call(ctx, address, erc20ABI, "symbol", nil); err == nil && len(symOut) > 0 {
		symbol, _ = symOut[0].(string)
	} else if err != nil {
		f.logger.Warn("token symbol unavailable", zap.String("token", address.Hex()), zap.Error(err))
	}
	token, err := currency.NewToken(chainID, address, int(decimals), symbol, symbol)
	if err != nil {
		return currency.Token{}, err
	}
	// Token metadata does not change, so it is memoized regardless of block.
	f.memo.Add(key, token)
	return token, nil
}

func (f *Fetcher) call(ctx context.Context, to common.Address, contract abi.ABI, method string, block *big.Int, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, sdkerr.Wrap(sdkerr.CodeInternal, "pack "+method, err)
	}
	out, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, sdkerr.Wrap(sdkerr.CodeUnavailable, "call "+method, err)
	}
	decoded, err := contract.Unpack(method, out)
	if err != nil {
		return nil, sdkerr.Wrap(sdkerr.CodeUnavailable, "unpack "+method, err)
	}
	return decoded, nil
}

func (f *Fetcher) callAddress(ctx context.Context, to common.Address, contract abi.ABI, method string, block *big.Int, args ...any) (common.Address, error) {
	out, err := f.call(ctx, to, contract, method, block, args...)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		return common.Address{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected "+method+" result")
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, sdkerr.New(sdkerr.CodeUnavailable, "unexpected "+method+" result type")
	}
	return addr, nil
}

func (f *Fetcher) lookup(key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	value, ok := f.memo.Get(key)
	if ok {
		f.logger.Debug("snapshot memo hit", zap.String("key", key))
	}
	return value, ok
}

func (f *Fetcher) store(key string, value any) {
	if key == "" {
		return
	}
	f.memo.Add(key, value)
}

// memoKey is empty for unpinned reads.
func memoKey(kind string, block *big.Int, parts ...string) string {
	if block == nil {
		return ""
	}
	return kind + ":" + block.String() + ":" + strings.ToLower(strings.Join(parts, ":"))
}

func sortTokens(a, b currency.Token) (currency.Token, currency.Token, error) {
	before, err := a.SortsBefore(b)
	if err != nil {
		return currency.Token{}, currency.Token{}, err
	}
	if before {
		return a, b, nil
	}
	return b, a, nil
}

func firstBig(out []any) (*big.Int, bool) {
	if len(out) == 0 {
		return nil, false
	}
	v, ok := out[0].(*big.Int)
	return v, ok && v != nil
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
