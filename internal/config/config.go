// Package config loads the demo harness's deployment configuration from
// a YAML file, with environment-variable overrides for anything
// sensitive — grounded on the teacher's retrieval-pack sibling
// 0xtitan6-polymarket-mm's internal/config/config.go: viper-backed
// mapstructure-tagged Config tree, Load(path)/Validate() split. Env
// overrides come from viper's AutomaticEnv and are resolved during
// unmarshal, for keys that appear in the file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level demo harness configuration (cmd/engine's
// run/bench/replay subcommands all load one of these).
type Config struct {
	Tickers    []TickerConfig `mapstructure:"tickers"`
	Risk       RiskConfig     `mapstructure:"risk"`
	Rings      RingConfig     `mapstructure:"rings"`
	EventLog   EventLogConfig `mapstructure:"event_log"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// TickerConfig names one traded instrument and its strategy wiring.
type TickerConfig struct {
	Symbol           string  `mapstructure:"symbol"`
	MarketMaker      bool    `mapstructure:"market_maker"`
	LiquidityTaker   bool    `mapstructure:"liquidity_taker"`
	SpreadBpsThresh  float64 `mapstructure:"spread_bps_threshold"`
	QuoteOffsetTicks int64   `mapstructure:"quote_offset_ticks"`
	BaseClip         uint64  `mapstructure:"base_clip"`
	MaxPosition      int64   `mapstructure:"max_position"`
}

// RiskConfig sets the pre-trade check limits applied uniformly across
// every ticker (spec.md §4.8).
type RiskConfig struct {
	MaxOrderSize       uint64 `mapstructure:"max_order_size"`
	MaxPositionValue   int64  `mapstructure:"max_position_value"`
	MaxLoss            int64  `mapstructure:"max_loss"`
	MaxOrderRatePerSec uint32 `mapstructure:"max_order_rate_per_sec"`
	MinPriceTicks      int64  `mapstructure:"min_price_ticks"`
	MaxPriceTicks      int64  `mapstructure:"max_price_ticks"`
}

// RingConfig sizes the lock-free queues (spec.md §4.3/§4.4; capacities
// must be powers of two).
type RingConfig struct {
	MdCapacity  uint64 `mapstructure:"md_capacity"`
	ReqCapacity uint64 `mapstructure:"req_capacity"`
	RespCapacity uint64 `mapstructure:"resp_capacity"`
}

// EventLogConfig configures the off-hot-path audit trail.
type EventLogConfig struct {
	Path     string `mapstructure:"path"`
	SyncMode bool   `mapstructure:"sync_mode"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error"
}

// Load reads cfg from the YAML file at path, applying ENGINE_-prefixed
// environment variable overrides (e.g. ENGINE_RISK_MAX_LOSS).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("at least one entry under tickers is required")
	}
	for _, t := range c.Tickers {
		if t.Symbol == "" {
			return fmt.Errorf("tickers[].symbol is required")
		}
	}
	if c.Risk.MaxOrderSize == 0 {
		return fmt.Errorf("risk.max_order_size must be > 0")
	}
	if c.Risk.MaxOrderRatePerSec == 0 {
		return fmt.Errorf("risk.max_order_rate_per_sec must be > 0")
	}
	if c.Rings.MdCapacity == 0 || c.Rings.MdCapacity&(c.Rings.MdCapacity-1) != 0 {
		return fmt.Errorf("rings.md_capacity must be a power of two")
	}
	if c.Rings.ReqCapacity == 0 || c.Rings.ReqCapacity&(c.Rings.ReqCapacity-1) != 0 {
		return fmt.Errorf("rings.req_capacity must be a power of two")
	}
	if c.Rings.RespCapacity == 0 || c.Rings.RespCapacity&(c.Rings.RespCapacity-1) != 0 {
		return fmt.Errorf("rings.resp_capacity must be a power of two")
	}
	return nil
}
