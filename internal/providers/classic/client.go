// Package classic fetches gas- and portion-adjusted amounts from a classic routing quote
// endpoint. The amounts feed the public view of a priority order trade.
package classic

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/httpx"
	"github.com/ggonzalez94/xswap-sdk/internal/logging"
	"github.com/ggonzalez94/xswap-sdk/internal/trade"
	"go.uber.org/zap"
)

// quoteOnlySwapper is a deterministic placeholder for quote retrieval flows.
const quoteOnlySwapper = "0x0000000000000000000000000000000000000001"

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func New(httpClient *httpx.Client, baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logging.OrNop(logger),
	}
}

type Request struct {
	ChainID   int64
	TokenIn   common.Address
	TokenOut  common.Address
	Amount    string
	TradeType trade.TradeType
	Swapper   common.Address
}

type quoteFields struct {
	Amount                     string `json:"amount"`
	Quote                      string `json:"quote"`
	QuoteGasAndPortionAdjusted string `json:"quoteGasAndPortionAdjusted"`
	QuoteGasAdjusted           string `json:"quoteGasAdjusted"`
}

type quoteResponse struct {
	flat   quoteFields
	nested *quoteFields
}

// UnmarshalJSON accepts both the flat routing shape and the shape nested under "quote".
func (r *quoteResponse) UnmarshalJSON(data []byte) error {
	// A nested "quote" object makes the flat decode report a type error; the other
	// flat fields are still filled.
	_ = json.Unmarshal(data, &r.flat)
	var wrapper struct {
		Quote json.RawMessage `json:"quote"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(wrapper.Quote))
	if strings.HasPrefix(trimmed, "{") {
		var nested quoteFields
		if err := json.Unmarshal(wrapper.Quote, &nested); err != nil {
			return err
		}
		r.nested = &nested
	}
	return nil
}

func (r quoteResponse) fields() quoteFields {
	if r.nested == nil {
		return r.flat
	}
	merged := *r.nested
	merged.Amount = firstNonEmpty(merged.Amount, r.flat.Amount)
	return merged
}

// Quote returns the classic amounts for req. The side fixed by the trade type keeps the
// requested amount; the other side is the gas and portion adjusted quote.
func (c *Client) Quote(ctx context.Context, req Request) (trade.ClassicAmounts, error) {
	if c.baseURL == "" {
		return trade.ClassicAmounts{}, sdkerr.New(sdkerr.CodeUsage, "classic quote endpoint is not configured (XSWAP_CLASSIC_QUOTE_URL)")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return trade.ClassicAmounts{}, sdkerr.New(sdkerr.CodeUsage, "classic quote amount is required")
	}
	swapper := req.Swapper.Hex()
	if req.Swapper == (common.Address{}) {
		swapper = quoteOnlySwapper
	}

	payload := map[string]any{
		"tokenInChainId":  req.ChainID,
		"tokenOutChainId": req.ChainID,
		"tokenIn":         req.TokenIn.Hex(),
		"tokenOut":        req.TokenOut.Hex(),
		"amount":          req.Amount,
		"type":            routingTradeType(req.TradeType),
		"swapper":         swapper,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return trade.ClassicAmounts{}, sdkerr.Wrap(sdkerr.CodeInternal, "marshal classic quote request", err)
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["x-api-key"] = c.apiKey
	}
	var resp quoteResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.baseURL+"/quote", buf, headers, &resp); err != nil {
		return trade.ClassicAmounts{}, err
	}

	fields := resp.fields()
	adjusted := firstNonEmpty(fields.QuoteGasAndPortionAdjusted, fields.QuoteGasAdjusted, fields.Quote)
	if adjusted == "" {
		return trade.ClassicAmounts{}, sdkerr.New(sdkerr.CodeUnavailable, "classic quote missing adjusted amount")
	}
	requested := firstNonEmpty(fields.Amount, req.Amount)

	c.logger.Debug("classic quote", zap.Int64("chain_id", req.ChainID), zap.Stringer("trade_type", req.TradeType), zap.String("adjusted", adjusted))
	if req.TradeType == trade.ExactOutput {
		return trade.ClassicAmounts{AmountInGasAndPortionAdjusted: adjusted, AmountOutGasAndPortionAdjusted: requested}, nil
	}
	return trade.ClassicAmounts{AmountInGasAndPortionAdjusted: requested, AmountOutGasAndPortionAdjusted: adjusted}, nil
}

func routingTradeType(t trade.TradeType) string {
	if t == trade.ExactOutput {
		return "EXACT_OUTPUT"
	}
	return "EXACT_INPUT"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
