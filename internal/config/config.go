// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
)

// Seeds overrides the PDA seed prefixes. Empty values keep the defaults.
type Seeds struct {
	ChipMint         string `mapstructure:"chip_mint"`
	Treasury         string `mapstructure:"treasury"`
	GlobalConfig     string `mapstructure:"global_config"`
	ChipTokenPrice   string `mapstructure:"chip_token_price"`
	ClaimableRewards string `mapstructure:"claimable_rewards"`
}

type Config struct {
	RPCURL             string  `mapstructure:"rpc_url"`
	WebSocketURL       string  `mapstructure:"websocket_url"`
	ProgramID          string  `mapstructure:"program_id"`
	TokenProgram       string  `mapstructure:"token_program"`
	Seeds              Seeds   `mapstructure:"seeds"`
	Commitment         string  `mapstructure:"commitment"`
	Retries            int     `mapstructure:"retries"`
	RetryDelay         int     `mapstructure:"retry_delay"`     // ms
	ConfirmTimeout     int     `mapstructure:"confirm_timeout"` // s
	PriorityFee        uint64  `mapstructure:"priority_fee"`    // micro-lamports per CU
	ComputeUnits       uint32  `mapstructure:"compute_units"`
	RoundingRule       string  `mapstructure:"rounding_rule"`
	ChipDecimals       uint8   `mapstructure:"chip_decimals"`
	KeypairPath        string  `mapstructure:"keypair_path"`
	LogFile            string  `mapstructure:"log_file"`
	DebugLogging       bool    `mapstructure:"debug_logging"`
	SubscriptionBuffer int     `mapstructure:"subscription_buffer"`
	MetricsAddr        string  `mapstructure:"metrics_addr"`
	JournalDSN         string  `mapstructure:"journal_dsn"`     // sqlite path or postgres:// URL
	RPCRateLimit       float64 `mapstructure:"rpc_rate_limit"`  // requests per second, 0 = unlimited
	RPCBurst           int     `mapstructure:"rpc_burst"`
}

const (
	DefaultRPCURL             = "https://api.devnet.solana.com"
	DefaultCommitment         = "confirmed"
	DefaultRetries            = 3
	DefaultRetryDelay         = 200
	DefaultConfirmTimeout     = 60
	DefaultRoundingRule       = "floor"
	DefaultSubscriptionBuffer = 16
	DefaultLogFile            = "logs/chipctl.log"

	envPrefix = "SOLSTRIKE"
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"rpc_url":             DefaultRPCURL,
		"commitment":          DefaultCommitment,
		"retries":             DefaultRetries,
		"retry_delay":         DefaultRetryDelay,
		"confirm_timeout":     DefaultConfirmTimeout,
		"rounding_rule":       DefaultRoundingRule,
		"subscription_buffer": DefaultSubscriptionBuffer,
		"log_file":            DefaultLogFile,
	}
}

// LoadConfig reads path (JSON, YAML or TOML by extension) and applies
// SOLSTRIKE_* environment overrides. An empty path loads defaults and the
// environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{
		"websocket_url", "program_id", "token_program", "priority_fee", "compute_units",
		"keypair_path", "debug_logging", "metrics_addr", "chip_decimals",
		"journal_dsn", "rpc_rate_limit", "rpc_burst",
		"seeds.chip_mint", "seeds.treasury", "seeds.global_config",
		"seeds.chip_token_price", "seeds.claimable_rewards",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = deriveWebSocketURL(cfg.RPCURL)
	}

	return &cfg, validateConfig(&cfg)
}

// deriveWebSocketURL maps http(s)://host to ws(s)://host, the way public RPC
// providers expose both endpoints.
func deriveWebSocketURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	}
	return ""
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	for name, key := range map[string]string{
		"program_id":    cfg.ProgramID,
		"token_program": cfg.TokenProgram,
	} {
		if key == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(key); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if _, err := cfg.CommitmentType(); err != nil {
		return err
	}
	if _, err := economy.ParseRoundingRule(cfg.RoundingRule); err != nil {
		return err
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.RetryDelay < 0 {
		return errors.New("invalid retry_delay")
	}
	if cfg.ConfirmTimeout <= 0 {
		return errors.New("invalid confirm_timeout")
	}
	if cfg.ChipDecimals > 18 {
		return errors.New("invalid chip_decimals")
	}
	if cfg.SubscriptionBuffer <= 0 {
		return errors.New("invalid subscription_buffer")
	}
	if cfg.RPCRateLimit < 0 || cfg.RPCBurst < 0 {
		return errors.New("invalid rpc rate limit")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// CommitmentType maps the configured commitment onto the rpc constant.
func (c *Config) CommitmentType() (rpc.CommitmentType, error) {
	switch strings.ToLower(c.Commitment) {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "confirmed", "":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	}
	return "", fmt.Errorf("invalid commitment %q", c.Commitment)
}

// ProgramKey returns the configured program id, or the zero key when unset.
func (c *Config) ProgramKey() solana.PublicKey {
	if c.ProgramID == "" {
		return solana.PublicKey{}
	}
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

// TokenProgramKey returns the configured token program, or the zero key when unset.
func (c *Config) TokenProgramKey() solana.PublicKey {
	if c.TokenProgram == "" {
		return solana.PublicKey{}
	}
	return solana.MustPublicKeyFromBase58(c.TokenProgram)
}

// Rounding returns the configured rounding rule.
func (c *Config) Rounding() economy.RoundingRule {
	rule, _ := economy.ParseRoundingRule(c.RoundingRule)
	return rule
}

// Pricing returns the chip pricing in force.
func (c *Config) Pricing() economy.Pricing {
	return economy.Pricing{Rule: c.Rounding(), ChipDecimals: c.ChipDecimals}
}

// PDASeeds returns the seed prefixes with overrides applied.
func (c *Config) PDASeeds() solstrike.Seeds {
	return solstrike.Seeds{
		ChipMint:         []byte(c.Seeds.ChipMint),
		Treasury:         []byte(c.Seeds.Treasury),
		GlobalConfig:     []byte(c.Seeds.GlobalConfig),
		ChipTokenPrice:   []byte(c.Seeds.ChipTokenPrice),
		ClaimableRewards: []byte(c.Seeds.ClaimableRewards),
	}.Resolve()
}

func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

func (c *Config) ConfirmTimeoutDuration() time.Duration {
	return time.Duration(c.ConfirmTimeout) * time.Second
}
