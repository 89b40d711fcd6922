package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Margin   MarginConfig   `mapstructure:"margin"`
	Options  OptionsConfig  `mapstructure:"options"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DataConfig struct {
	// Files maps a ticker symbol to its CSV bar file
	Files map[string]string `mapstructure:"files"`
}

type StrategyConfig struct {
	LowIBS            float64 `mapstructure:"low_ibs"`
	HighIBS           float64 `mapstructure:"high_ibs"`
	MaxHoldDays       int     `mapstructure:"max_hold_days"`
	CapitalUsagePct   float64 `mapstructure:"capital_usage_pct"`
	InitialCapital    float64 `mapstructure:"initial_capital"`
	CommissionFixed   float64 `mapstructure:"commission_fixed"`
	CommissionPercent float64 `mapstructure:"commission_percent"`
}

type MarginConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	Leverage             float64 `mapstructure:"leverage"`
	MaintenanceMarginPct float64 `mapstructure:"maintenance_margin_pct"`
}

type OptionsConfig struct {
	Enabled         bool               `mapstructure:"enabled"`
	StrikePct       float64            `mapstructure:"strike_pct"`
	VolAdjPct       float64            `mapstructure:"vol_adj_pct"`
	CapitalPct      float64            `mapstructure:"capital_pct"`
	RiskFreeRate    float64            `mapstructure:"risk_free_rate"`
	RateTable       map[string]float64 `mapstructure:"rate_table"`
	ExpirationWeeks int                `mapstructure:"expiration_weeks"`
	MaxHoldingDays  int                `mapstructure:"max_holding_days"`
	VolWindow       int                `mapstructure:"vol_window"`
	MissingData     string             `mapstructure:"missing_data"`
}

type RunnerConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from the given file (or ./stonks.yaml when
// empty), applies defaults, and allows STONKS_* environment overrides
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stonks")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STONKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, core.WrapError(core.ErrConfigMissing, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("strategy.low_ibs", 0.10)
	v.SetDefault("strategy.high_ibs", 0.75)
	v.SetDefault("strategy.max_hold_days", 30)
	v.SetDefault("strategy.capital_usage_pct", 100)
	v.SetDefault("strategy.initial_capital", 10000)

	v.SetDefault("margin.leverage", 2)
	v.SetDefault("margin.maintenance_margin_pct", 25)

	v.SetDefault("options.strike_pct", 5)
	v.SetDefault("options.capital_pct", 100)
	v.SetDefault("options.risk_free_rate", 0.04)
	v.SetDefault("options.expiration_weeks", 4)
	v.SetDefault("options.max_holding_days", 30)
	v.SetDefault("options.vol_window", 30)
	v.SetDefault("options.missing_data", "carry_forward")

	v.SetDefault("runner.workers", 4)
}

// Validate rejects structurally invalid parameter combinations.
// Leverage below 1 with a maintenance margin is not an error: it
// simply makes liquidation impossible.
func (c *Config) Validate() error {
	if c.Strategy.LowIBS < 0 || c.Strategy.LowIBS > 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy.low_ibs must be in [0,1], got %v", c.Strategy.LowIBS))
	}
	if c.Strategy.HighIBS < 0 || c.Strategy.HighIBS > 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy.high_ibs must be in [0,1], got %v", c.Strategy.HighIBS))
	}
	if c.Strategy.MaxHoldDays < 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy.max_hold_days must be >= 1, got %d", c.Strategy.MaxHoldDays))
	}
	if c.Strategy.CapitalUsagePct <= 0 || c.Strategy.CapitalUsagePct > 100 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy.capital_usage_pct must be in (0,100], got %v", c.Strategy.CapitalUsagePct))
	}
	if c.Margin.MaintenanceMarginPct < 0 || c.Margin.MaintenanceMarginPct >= 100 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("margin.maintenance_margin_pct must be in [0,100), got %v", c.Margin.MaintenanceMarginPct))
	}
	switch c.Options.MissingData {
	case "", "carry_forward", "zero_fill", "exclude_from_equity":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("options.missing_data must be carry_forward, zero_fill, or exclude_from_equity, got %q", c.Options.MissingData))
	}
	if c.Runner.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("runner.workers must be >= 1, got %d", c.Runner.Workers))
	}
	return nil
}
