package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ggonzalez94/xswap-sdk/internal/currency"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/id"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/ggonzalez94/xswap-sdk/internal/order"
	"github.com/ggonzalez94/xswap-sdk/internal/providers/classic"
	"github.com/ggonzalez94/xswap-sdk/internal/trade"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type tradeResolveArgs struct {
	orderPath     string
	chain         string
	currencyIn    string
	currenciesOut string
	tradeType     string
	classicIn     string
	classicInDec  string
	classicOut    string
	classicOutDec string
	classicQuote  bool
}

func (s *runtimeState) newTradeCommand() *cobra.Command {
	root := &cobra.Command{Use: "trade", Short: "Priority order trade commands"}
	var a tradeResolveArgs
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve amounts and prices of a priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			data, sources, err := s.resolveTrade(ctx, cmd.InOrStdin(), a)
			s.lastSources = sources
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), sources)
		},
	}
	cmd.Flags().StringVar(&a.orderPath, "order", "", "Path to the priority order JSON (- for stdin)")
	cmd.Flags().StringVar(&a.chain, "chain", "xdc", "Chain identifier")
	cmd.Flags().StringVar(&a.currencyIn, "currency-in", "", "Input currency (symbol, address or CAIP-19); defaults to the order input token")
	cmd.Flags().StringVar(&a.currenciesOut, "currencies-out", "", "Output currencies (comma-separated); defaults to the order output tokens")
	cmd.Flags().StringVar(&a.tradeType, "trade-type", "exact-input", "Trade type: exact-input|exact-output")
	cmd.Flags().StringVar(&a.classicIn, "classic-amount-in", "", "Classic gas and portion adjusted input in base units")
	cmd.Flags().StringVar(&a.classicInDec, "classic-amount-in-decimal", "", "Classic gas and portion adjusted input in decimal units")
	cmd.Flags().StringVar(&a.classicOut, "classic-amount-out", "", "Classic gas and portion adjusted output in base units")
	cmd.Flags().StringVar(&a.classicOutDec, "classic-amount-out-decimal", "", "Classic gas and portion adjusted output in decimal units")
	cmd.Flags().BoolVar(&a.classicQuote, "classic-quote", false, "Fetch classic amounts from the configured quote endpoint")
	_ = cmd.MarkFlagRequired("order")
	root.AddCommand(cmd)
	return root
}

func (s *runtimeState) resolveTrade(ctx context.Context, stdin io.Reader, a tradeResolveArgs) (model.TradeResolution, []model.SourceStatus, error) {
	tradeType, err := parseTradeType(a.tradeType)
	if err != nil {
		return model.TradeResolution{}, nil, err
	}
	info, err := readOrder(a.orderPath, stdin)
	if err != nil {
		return model.TradeResolution{}, nil, err
	}
	chain, err := id.ParseChain(a.chain)
	if err != nil {
		return model.TradeResolution{}, nil, err
	}

	session := s.newChainSession(chain)
	defer session.close()

	inputArg := a.currencyIn
	if strings.TrimSpace(inputArg) == "" {
		inputArg = info.Input.Token.Hex()
	}
	currencyIn, err := session.resolveCurrency(ctx, inputArg)
	if err != nil {
		return model.TradeResolution{}, session.sources, err
	}

	outArgs := splitCSV(a.currenciesOut)
	if len(outArgs) == 0 {
		outArgs = orderOutputTokens(info)
	}
	currenciesOut := make([]currency.Currency, 0, len(outArgs))
	for _, arg := range outArgs {
		c, err := session.resolveCurrency(ctx, arg)
		if err != nil {
			return model.TradeResolution{}, session.sources, err
		}
		currenciesOut = append(currenciesOut, c)
	}

	classicAmounts, classicSource, err := s.classicAmounts(ctx, session, a, info, tradeType, currencyIn, currenciesOut)
	if err != nil {
		return model.TradeResolution{}, session.sources, err
	}

	t := trade.NewPriorityOrderTrade(trade.PriorityOrderTradeParams{
		CurrencyIn:     currencyIn,
		CurrenciesOut:  currenciesOut,
		OrderInfo:      info,
		TradeType:      tradeType,
		ClassicAmounts: classicAmounts,
	})
	resolution, err := tradeResolution(t)
	if err != nil {
		return model.TradeResolution{}, session.sources, err
	}
	if classicAmounts != nil {
		resolution.ClassicAmounts = &model.ClassicAmountsInfo{
			AmountInGasAndPortionAdjusted:  classicAmounts.AmountInGasAndPortionAdjusted,
			AmountOutGasAndPortionAdjusted: classicAmounts.AmountOutGasAndPortionAdjusted,
			Source:                         classicSource,
		}
	}
	resolution.FetchedAt = s.runner.now().UTC().Format(time.RFC3339)
	s.logger.Debug("trade resolved",
		zap.Int64("chain_id", resolution.ChainID),
		zap.String("input", resolution.InputAmount.AmountBaseUnits),
		zap.String("output", resolution.OutputAmount.AmountBaseUnits),
	)
	return resolution, session.sources, nil
}

func (s *runtimeState) classicAmounts(ctx context.Context, session *chainSession, a tradeResolveArgs, info order.PriorityOrderInfo, tradeType trade.TradeType, currencyIn currency.Currency, currenciesOut []currency.Currency) (*trade.ClassicAmounts, string, error) {
	explicit := a.classicIn != "" || a.classicInDec != "" || a.classicOut != "" || a.classicOutDec != ""
	if explicit && a.classicQuote {
		return nil, "", sdkerr.New(sdkerr.CodeUsage, "use either --classic-quote or explicit classic amounts, not both")
	}

	if explicit {
		amounts := &trade.ClassicAmounts{}
		if a.classicIn != "" || a.classicInDec != "" {
			base, _, err := id.NormalizeAmount("classic-amount-in", a.classicIn, a.classicInDec, currencyIn.Decimals())
			if err != nil {
				return nil, "", err
			}
			amounts.AmountInGasAndPortionAdjusted = base
		}
		if a.classicOut != "" || a.classicOutDec != "" {
			if len(currenciesOut) == 0 {
				return nil, "", sdkerr.New(sdkerr.CodeCurrencyNotFound, "classic output amount needs an output currency")
			}
			base, _, err := id.NormalizeAmount("classic-amount-out", a.classicOut, a.classicOutDec, currenciesOut[0].Decimals())
			if err != nil {
				return nil, "", err
			}
			amounts.AmountOutGasAndPortionAdjusted = base
		}
		return amounts, "flags", nil
	}

	if !a.classicQuote {
		return nil, "", nil
	}
	if len(info.Outputs) == 0 {
		return nil, "", sdkerr.New(sdkerr.CodeEmptyOutputs, "there must be at least one output token")
	}
	amount := info.Input.Amount
	if tradeType == trade.ExactOutput {
		amount = info.Outputs[0].Amount
	}
	client := classic.New(s.http, s.settings.ClassicQuoteURL, s.settings.ClassicQuoteAPIKey, s.logger.Named("classic"))
	start := time.Now()
	quoted, err := client.Quote(ctx, classic.Request{
		ChainID:   session.chain.EVMChainID,
		TokenIn:   currencyIn.Address(),
		TokenOut:  info.Outputs[0].Token,
		Amount:    amount.String(),
		TradeType: tradeType,
		Swapper:   info.Swapper,
	})
	session.record("classic_quote", start, err)
	if err != nil {
		return nil, "", err
	}
	return &quoted, "classic_quote", nil
}

func tradeResolution(t *trade.PriorityOrderTrade) (model.TradeResolution, error) {
	input, err := t.InputAmount()
	if err != nil {
		return model.TradeResolution{}, err
	}
	output, err := t.OutputAmount()
	if err != nil {
		return model.TradeResolution{}, err
	}
	outputs, err := t.OutputAmounts()
	if err != nil {
		return model.TradeResolution{}, err
	}
	maxIn, err := t.MaximumAmountIn()
	if err != nil {
		return model.TradeResolution{}, err
	}
	minOut, err := t.MinimumAmountOut()
	if err != nil {
		return model.TradeResolution{}, err
	}
	price, err := t.ExecutionPrice()
	if err != nil {
		return model.TradeResolution{}, err
	}
	worst, err := t.WorstExecutionPrice()
	if err != nil {
		return model.TradeResolution{}, err
	}

	ord := t.Order()
	resolution := model.TradeResolution{
		ChainID:             ord.ChainID,
		TradeType:           t.TradeType().String(),
		InputAmount:         amountInfo(input),
		OutputAmount:        amountInfo(output),
		OutputAmounts:       make([]model.AmountInfo, 0, len(outputs)),
		MaximumAmountIn:     amountInfo(maxIn),
		MinimumAmountOut:    amountInfo(minOut),
		ExecutionPrice:      priceInfo(price),
		WorstExecutionPrice: priceInfo(worst),
		AuctionStartBlock:   ord.Info.AuctionStartBlock.String(),
		Deadline:            ord.Info.Deadline,
	}
	for _, amount := range outputs {
		resolution.OutputAmounts = append(resolution.OutputAmounts, amountInfo(amount))
	}
	return resolution, nil
}

func parseTradeType(v string) (trade.TradeType, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(v, "_", "-"))) {
	case "", "exact-input", "exact-in":
		return trade.ExactInput, nil
	case "exact-output", "exact-out":
		return trade.ExactOutput, nil
	default:
		return 0, sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("unsupported trade type %q; use exact-input or exact-output", v))
	}
}

func readOrder(path string, stdin io.Reader) (order.PriorityOrderInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return order.PriorityOrderInfo{}, sdkerr.New(sdkerr.CodeUsage, "--order is required")
	}
	if path == "-" {
		return order.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return order.PriorityOrderInfo{}, sdkerr.Wrap(sdkerr.CodeUsage, "open order file", err)
	}
	defer f.Close()
	return order.Decode(f)
}

// orderOutputTokens lists the distinct output tokens in order of appearance.
func orderOutputTokens(info order.PriorityOrderInfo) []string {
	seen := map[string]struct{}{}
	tokens := make([]string, 0, len(info.Outputs))
	for _, out := range info.Outputs {
		hex := out.Token.Hex()
		if _, ok := seen[hex]; ok {
			continue
		}
		seen[hex] = struct{}{}
		tokens = append(tokens, hex)
	}
	return tokens
}
