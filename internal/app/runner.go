package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ggonzalez94/xswap-sdk/internal/cache"
	"github.com/ggonzalez94/xswap-sdk/internal/config"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/httpx"
	"github.com/ggonzalez94/xswap-sdk/internal/logging"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/ggonzalez94/xswap-sdk/internal/out"
	"github.com/ggonzalez94/xswap-sdk/internal/registry"
	"github.com/ggonzalez94/xswap-sdk/internal/schema"
	"github.com/ggonzalez94/xswap-sdk/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	logger      *zap.Logger
	registry    *registry.Table
	http        *httpx.Client
	cache       *cache.Store
	root        *cobra.Command
	lastCommand string
	lastSources []model.SourceStatus
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r, logger: logging.Nop()}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := normalizeRunError(root.Execute())
	if err != nil {
		state.renderError("", err)
	}
	state.close()
	return sdkerr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	_ = s.logger.Sync()
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "XSwap router constants and priority order trade resolution",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return sdkerr.Wrap(sdkerr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.lastCommand = trimRootPath(cmd.CommandPath())

			logger, err := logging.New(settings.LogLevel, s.runner.stderr)
			if err != nil {
				return sdkerr.Wrap(sdkerr.CodeUsage, "configure logging", err)
			}
			s.logger = logger

			table, err := settings.Registry()
			if err != nil {
				return err
			}
			s.registry = table
			s.http = httpx.New(settings.Timeout, settings.Retries,
				httpx.WithRateLimit(settings.RateLimit),
				httpx.WithLogger(logger.Named("http")),
			)

			if settings.CacheEnabled && shouldOpenCache(s.lastCommand) && s.cache == nil {
				store, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return sdkerr.Wrap(sdkerr.CodeInternal, "open cache", err)
				}
				if settings.MaxStale >= 0 {
					if err := store.Prune(settings.MaxStale); err != nil {
						s.logger.Warn("cache prune failed", zap.Error(err))
					}
				}
				s.cache = store
			}
			s.logger.Debug("command start", zap.String("command", s.lastCommand), zap.Bool("cache", s.cache != nil))
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return sdkerr.Wrap(sdkerr.CodeUsage, "parse flags", err)
	})

	flags := cmd.PersistentFlags()
	flags.BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	flags.BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	flags.StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated, dotted paths allowed)")
	flags.BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	flags.StringVar(&s.flags.Timeout, "timeout", "", "Request timeout")
	flags.IntVar(&s.flags.Retries, "retries", -1, "Retries per HTTP request")
	flags.Float64Var(&s.flags.RateLimit, "rate-limit", -1, "Maximum HTTP requests per second (0 disables)")
	flags.StringVar(&s.flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&s.flags.RPCURL, "rpc-url", "", "RPC endpoint override")
	flags.StringVar(&s.flags.MaxStale, "max-stale", "", "Maximum stale fallback window after TTL expiry")
	flags.BoolVar(&s.flags.NoStale, "no-stale", false, "Reject stale cache entries")
	flags.BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	flags.StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	flags.StringVar(&s.flags.EnvFile, "env-file", "", "Path to a .env file")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newContractsCommand())
	cmd.AddCommand(s.newConstantsCommand())
	cmd.AddCommand(s.newTradeCommand())
	cmd.AddCommand(s.newPoolsCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil)
		},
	}
}

type fetchFn func(ctx context.Context) (data any, sources []model.SourceStatus, err error)

// runCachedCommand serves key from the cache when fresh, otherwise fetches. A failed fetch
// falls back to a stale entry within the max-stale budget.
func (s *runtimeState) runCachedCommand(commandPath, key string, ttl time.Duration, fetch fetchFn) error {
	s.lastSources = nil
	cacheStatus := cacheMetaBypass()
	var (
		staleData   any
		staleStatus model.CacheStatus
		staleAge    time.Duration
		haveStale   bool
	)

	if s.settings.CacheEnabled && s.cache != nil {
		cacheStatus = cacheMetaMiss()
		// The stale budget is checked after the fetch so that entries past it still fail as stale.
		data, res, ok, err := cache.GetJSON[any](s.cache, key, -1)
		switch {
		case err != nil:
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		case ok && !res.Stale:
			s.logger.Debug("cache hit", zap.String("key", key), zap.Duration("age", res.Age))
			return s.emitSuccess(commandPath, data, nil, model.CacheStatus{Status: "hit", AgeMS: res.Age.Milliseconds()}, nil)
		case ok:
			staleData = data
			staleAge = res.Age
			staleStatus = model.CacheStatus{Status: "hit", AgeMS: res.Age.Milliseconds(), Stale: true}
			haveStale = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
	defer cancel()
	start := time.Now()
	data, sources, err := fetch(ctx)
	s.lastSources = sources
	if err != nil {
		if !haveStale || !staleFallbackAllowed(err) {
			return err
		}
		if s.settings.NoStale {
			return sdkerr.Wrap(sdkerr.CodeStale, "fresh fetch failed and stale fallback is disabled (--no-stale)", err)
		}
		if staleExceedsBudget(staleAge+time.Since(start), ttl, s.settings.MaxStale) {
			return sdkerr.Wrap(sdkerr.CodeStale, "fresh fetch failed and cached data exceeded stale budget", err)
		}
		s.logger.Warn("serving stale cache entry", zap.String("key", key), zap.Error(err))
		warnings := []string{"fetch failed; serving stale data within max-stale budget"}
		return s.emitSuccess(commandPath, staleData, warnings, staleStatus, sources)
	}

	if s.settings.CacheEnabled && s.cache != nil {
		if err := cache.SetJSON(s.cache, key, data, ttl); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		} else {
			cacheStatus = model.CacheStatus{Status: "write"}
		}
	}
	return s.emitSuccess(commandPath, data, nil, cacheStatus, sources)
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus, sources []model.SourceStatus) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   sources,
			Cache:     cacheStatus,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	body := &model.ErrorBody{
		Code:    sdkerr.ExitCode(err),
		Type:    "internal_error",
		Message: err.Error(),
	}
	if sErr, ok := sdkerr.As(err); ok {
		body.Type = sdkerr.TypeName(sErr.Code)
	}
	if nErr, ok := sdkerr.AsNetworkError(err); ok {
		body.ChainID = nErr.ChainID
		body.Feature = nErr.Feature
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  false,
		Data:     []any{},
		Error:    body,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   s.lastSources,
			Cache:     cacheMetaBypass(),
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if norm := strings.TrimSpace(part); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func statusFromErr(err error) string {
	if err == nil {
		return "ok"
	}
	if sErr, ok := sdkerr.As(err); ok {
		switch sErr.Code {
		case sdkerr.CodeAuth:
			return "auth_error"
		case sdkerr.CodeRateLimited:
			return "rate_limited"
		case sdkerr.CodeUnavailable:
			return "unavailable"
		}
	}
	return "error"
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass"}
}

func cacheMetaMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss"}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := sdkerr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return sdkerr.Wrap(sdkerr.CodeUsage, "invalid command input", err)
	}
	return sdkerr.Wrap(sdkerr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func staleExceedsBudget(age, ttl, maxStale time.Duration) bool {
	if age <= ttl {
		return false
	}
	if maxStale < 0 {
		return false
	}
	return age > ttl+maxStale
}

func staleFallbackAllowed(err error) bool {
	return sdkerr.Is(err, sdkerr.CodeUnavailable) || sdkerr.Is(err, sdkerr.CodeRateLimited)
}

// shouldOpenCache is true for commands that read remote state.
func shouldOpenCache(commandPath string) bool {
	return strings.HasPrefix(normalizeCommandPath(commandPath), "pools ")
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}
