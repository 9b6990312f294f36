package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	// Network details are set for unsupported network errors.
	ChainID int64  `json:"chain_id,omitempty"`
	Feature string `json:"feature,omitempty"`
}

type EnvelopeMeta struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Command   string         `json:"command"`
	Sources   []SourceStatus `json:"sources,omitempty"`
	Cache     CacheStatus    `json:"cache"`
}

// SourceStatus reports one upstream read: the RPC node or the classic quote endpoint.
type SourceStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ContractsView struct {
	ChainID             int64  `json:"chain_id"`
	Name                string `json:"name"`
	Permit2             string `json:"permit2"`
	UniversalRouter     string `json:"universal_router"`
	UniversalRouterBeta string `json:"universal_router_beta,omitempty"`
	WETH                string `json:"weth,omitempty"`
	CreationBlock       uint64 `json:"creation_block"`
	V2Factory           string `json:"v2_factory,omitempty"`
	V3Factory           string `json:"v3_factory,omitempty"`
	RPCURL              string `json:"rpc_url,omitempty"`
}

type ConstantsView struct {
	ETHAddress                 string `json:"eth_address"`
	EETHAddress                string `json:"e_eth_address"`
	ZeroAddress                string `json:"zero_address"`
	SenderAsRecipient          string `json:"sender_as_recipient"`
	RouterAsRecipient          string `json:"router_as_recipient"`
	ContractBalance            string `json:"contract_balance"`
	OpenseaConduitSpenderID    int    `json:"opensea_conduit_spender_id"`
	SudoswapSpenderID          int    `json:"sudoswap_spender_id"`
	MaxUint48                  string `json:"max_uint48"`
	MaxUint160                 string `json:"max_uint160"`
	MaxUint256                 string `json:"max_uint256"`
	MaxAllowanceTransferAmount string `json:"max_allowance_transfer_amount"`
	MaxAllowanceExpiration     string `json:"max_allowance_expiration"`
	MaxOrderedNonce            string `json:"max_ordered_nonce"`
	MaxSignatureTransferAmount string `json:"max_signature_transfer_amount"`
	MaxUnorderedNonce          string `json:"max_unordered_nonce"`
	MaxSigDeadline             string `json:"max_sig_deadline"`
	InstantExpiration          string `json:"instant_expiration"`
}

type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Native   bool   `json:"native,omitempty"`
	Decimals int    `json:"decimals"`
}

type AmountInfo struct {
	TokenInfo
	AmountBaseUnits string `json:"amount_base_units"`
	AmountDecimal   string `json:"amount_decimal"`
}

// PriceInfo is quote per base. Value is decimal-adjusted and omitted when the denominator
// is zero; the raw terms are base units.
type PriceInfo struct {
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	Value       string `json:"value,omitempty"`
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

type ClassicAmountsInfo struct {
	AmountInGasAndPortionAdjusted  string `json:"classic_amount_in_gas_and_portion_adjusted,omitempty"`
	AmountOutGasAndPortionAdjusted string `json:"classic_amount_out_gas_and_portion_adjusted,omitempty"`
	Source                         string `json:"source"`
}

type TradeResolution struct {
	ChainID             int64               `json:"chain_id"`
	TradeType           string              `json:"trade_type"`
	InputAmount         AmountInfo          `json:"input_amount"`
	OutputAmount        AmountInfo          `json:"output_amount"`
	OutputAmounts       []AmountInfo        `json:"output_amounts"`
	MaximumAmountIn     AmountInfo          `json:"maximum_amount_in"`
	MinimumAmountOut    AmountInfo          `json:"minimum_amount_out"`
	ExecutionPrice      PriceInfo           `json:"execution_price"`
	WorstExecutionPrice PriceInfo           `json:"worst_execution_price"`
	ClassicAmounts      *ClassicAmountsInfo `json:"classic_amounts,omitempty"`
	AuctionStartBlock   string              `json:"auction_start_block"`
	Deadline            uint64              `json:"deadline"`
	FetchedAt           string              `json:"fetched_at"`
}

type PairSnapshot struct {
	ChainID            int64      `json:"chain_id"`
	Pair               string     `json:"pair"`
	Factory            string     `json:"factory"`
	Reserve0           AmountInfo `json:"reserve0"`
	Reserve1           AmountInfo `json:"reserve1"`
	Token0Price        PriceInfo  `json:"token0_price"`
	BlockTimestampLast uint32     `json:"block_timestamp_last"`
	Block              string     `json:"block"`
	FetchedAt          string     `json:"fetched_at"`
}

type TickInfo struct {
	Index          int    `json:"index"`
	LiquidityNet   string `json:"liquidity_net"`
	LiquidityGross string `json:"liquidity_gross"`
}

type PoolSnapshot struct {
	ChainID      int64      `json:"chain_id"`
	Pool         string     `json:"pool"`
	Factory      string     `json:"factory"`
	Token0       TokenInfo  `json:"token0"`
	Token1       TokenInfo  `json:"token1"`
	Fee          uint32     `json:"fee"`
	SqrtPriceX96 string     `json:"sqrt_price_x96"`
	Liquidity    string     `json:"liquidity"`
	TickCurrent  int        `json:"tick_current"`
	Ticks        []TickInfo `json:"ticks"`
	Token0Price  PriceInfo  `json:"token0_price"`
	Block        string     `json:"block"`
	FetchedAt    string     `json:"fetched_at"`
}
