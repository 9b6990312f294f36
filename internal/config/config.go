package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/xswap-sdk/internal/registry"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath  string
	EnvFile     string
	JSON        bool
	Plain       bool
	Select      string
	ResultsOnly bool
	Timeout     string
	Retries     int
	RateLimit   float64
	LogLevel    string
	RPCURL      string
	MaxStale    string
	NoStale     bool
	NoCache     bool
}

type Settings struct {
	OutputMode         string
	SelectFields       []string
	ResultsOnly        bool
	Timeout            time.Duration
	Retries            int
	RateLimit          float64
	LogLevel           string
	RPCURL             string
	MaxStale           time.Duration
	NoStale            bool
	CacheEnabled       bool
	CachePath          string
	CacheLockPath      string
	ClassicQuoteURL    string
	ClassicQuoteAPIKey string
	Chains             map[int64]registry.Override
}

type fileConfig struct {
	Output    string   `yaml:"output"`
	Timeout   string   `yaml:"timeout"`
	Retries   *int     `yaml:"retries"`
	RateLimit *float64 `yaml:"rate_limit"`
	LogLevel  string   `yaml:"log_level"`
	RPCURL    string   `yaml:"rpc_url"`
	Cache     struct {
		Enabled  *bool  `yaml:"enabled"`
		MaxStale string `yaml:"max_stale"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	ClassicQuote struct {
		URL       string `yaml:"url"`
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"classic_quote"`
	Chains map[int64]registry.Override `yaml:"chains"`
}

// env resolves variables from the process first, then from the .env file.
type env struct {
	dotenv map[string]string
}

func (e env) get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return e.dotenv[key]
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	vars, err := loadEnvFile(flags.EnvFile)
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, vars, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(vars, &settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.RateLimit < 0 {
		settings.RateLimit = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 5 * time.Minute
	}

	return settings, nil
}

// Registry applies the configured chain overrides to the shipped deployment table.
func (s Settings) Registry() (*registry.Table, error) {
	if len(s.Chains) == 0 {
		return registry.Default(), nil
	}
	return registry.Default().WithOverrides(s.Chains)
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       10 * time.Second,
		Retries:       2,
		RateLimit:     10,
		LogLevel:      "warn",
		MaxStale:      5 * time.Minute,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
	}, nil
}

// loadEnvFile reads KEY=VALUE pairs without touching the process environment. A missing
// default .env is not an error; a missing explicit file is.
func loadEnvFile(path string) (env, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return env{}, nil
		}
		return env{}, fmt.Errorf("read env file: %w", err)
	}
	return env{dotenv: vars}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "xswap", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "xswap")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, vars env, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.RateLimit != nil {
		settings.RateLimit = *cfg.RateLimit
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.RPCURL != "" {
		settings.RPCURL = cfg.RPCURL
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.MaxStale != "" {
		d, err := time.ParseDuration(cfg.Cache.MaxStale)
		if err != nil {
			return fmt.Errorf("config cache.max_stale: %w", err)
		}
		settings.MaxStale = d
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.ClassicQuote.URL != "" {
		settings.ClassicQuoteURL = cfg.ClassicQuote.URL
	}
	if cfg.ClassicQuote.APIKey != "" {
		settings.ClassicQuoteAPIKey = cfg.ClassicQuote.APIKey
	}
	if cfg.ClassicQuote.APIKeyEnv != "" {
		settings.ClassicQuoteAPIKey = vars.get(cfg.ClassicQuote.APIKeyEnv)
	}
	if len(cfg.Chains) > 0 {
		settings.Chains = cfg.Chains
	}

	return nil
}

func applyEnv(vars env, settings *Settings) {
	if v := vars.get("XSWAP_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := vars.get("XSWAP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := vars.get("XSWAP_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := vars.get("XSWAP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.RateLimit = f
		}
	}
	if v := vars.get("XSWAP_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := vars.get("XSWAP_MAX_STALE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.MaxStale = d
		}
	}
	if v := vars.get("XSWAP_NO_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.NoStale = b
		}
	}
	if v := vars.get("XSWAP_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := vars.get("XSWAP_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := vars.get("XSWAP_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	// FORK_URL is what the router test suites export for a forked node.
	if v := vars.get("FORK_URL"); v != "" {
		settings.RPCURL = v
	}
	if v := vars.get("XSWAP_RPC_URL"); v != "" {
		settings.RPCURL = v
	}
	if v := vars.get("XSWAP_CLASSIC_QUOTE_URL"); v != "" {
		settings.ClassicQuoteURL = v
	}
	if v := vars.get("XSWAP_CLASSIC_API_KEY"); v != "" {
		settings.ClassicQuoteAPIKey = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.RateLimit >= 0 {
		settings.RateLimit = flags.RateLimit
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = strings.ToLower(strings.TrimSpace(flags.LogLevel))
	}
	if strings.TrimSpace(flags.RPCURL) != "" {
		settings.RPCURL = strings.TrimSpace(flags.RPCURL)
	}
	if flags.MaxStale != "" {
		d, err := time.ParseDuration(flags.MaxStale)
		if err != nil {
			return fmt.Errorf("parse --max-stale: %w", err)
		}
		settings.MaxStale = d
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}
