// Package config loads and validates backtest run configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantfold/backsim/backtest"
	"github.com/quantfold/backsim/market"
)

// Config is the complete description of one backtest run. Every instrument
// a run touches must appear in Instruments with all four parameters; missing
// entries are configuration errors, never silent defaults.
type Config struct {
	Start      string  `json:"start" yaml:"start"` // "2006-01-02"
	End        string  `json:"end" yaml:"end"`
	Interval   string  `json:"interval" yaml:"interval"` // 1m, 1h, 1d
	WarmupDays int     `json:"warmup_days" yaml:"warmup_days"`
	Capital    float64 `json:"capital" yaml:"capital"`

	Instruments map[string]InstrumentConfig `json:"instruments" yaml:"instruments"`
	Strategy    StrategyConfig              `json:"strategy" yaml:"strategy"`
	Journal     JournalConfig               `json:"journal" yaml:"journal"`
}

// InstrumentConfig holds the per-instrument simulation parameters.
type InstrumentConfig struct {
	Size      float64 `json:"size" yaml:"size"`
	Rate      float64 `json:"rate" yaml:"rate"`
	Slippage  float64 `json:"slippage" yaml:"slippage"`
	PriceTick float64 `json:"price_tick" yaml:"price_tick"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name   string  `json:"name" yaml:"name"`
	Fast   int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow   int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Volume float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// JournalConfig controls run persistence.
type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

const dateLayout = "2006-01-02"

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if yerr := yaml.Unmarshal(data, cfg); yerr != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("config: parse (tried YAML and JSON): %w", yerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	start, err := time.ParseInLocation(dateLayout, c.Start, time.UTC)
	if err != nil {
		return fmt.Errorf("config: invalid start %q: %w", c.Start, err)
	}
	end, err := time.ParseInLocation(dateLayout, c.End, time.UTC)
	if err != nil {
		return fmt.Errorf("config: invalid end %q: %w", c.End, err)
	}
	if !start.Before(end) {
		return errors.New("config: start must be before end")
	}

	if _, err := market.ParseInterval(c.Interval); err != nil {
		return err
	}
	if c.WarmupDays < 0 {
		return errors.New("config: warmup_days must not be negative")
	}
	if len(c.Instruments) == 0 {
		return errors.New("config: at least one instrument is required")
	}

	for symbol, inst := range c.Instruments {
		if inst.Size <= 0 {
			return fmt.Errorf("config: instrument %s: size must be positive", symbol)
		}
		if inst.Rate < 0 || inst.Slippage < 0 {
			return fmt.Errorf("config: instrument %s: rate and slippage must not be negative", symbol)
		}
		if inst.PriceTick <= 0 {
			return fmt.Errorf("config: instrument %s: price_tick must be positive", symbol)
		}
	}

	return nil
}

// EngineConfig converts the file form into engine parameters. Symbols are
// sorted so engine iteration order is deterministic.
func (c *Config) EngineConfig() (backtest.Config, error) {
	if err := c.Validate(); err != nil {
		return backtest.Config{}, err
	}

	start, _ := time.ParseInLocation(dateLayout, c.Start, time.UTC)
	end, _ := time.ParseInLocation(dateLayout, c.End, time.UTC)
	interval, _ := market.ParseInterval(c.Interval)

	symbols := make([]string, 0, len(c.Instruments))
	instruments := make(map[string]market.Instrument, len(c.Instruments))
	for symbol, ic := range c.Instruments {
		symbols = append(symbols, symbol)
		instruments[symbol] = market.Instrument{
			Symbol:    symbol,
			Size:      ic.Size,
			Rate:      ic.Rate,
			Slippage:  ic.Slippage,
			PriceTick: ic.PriceTick,
		}
	}
	sort.Strings(symbols)

	return backtest.Config{
		Symbols:     symbols,
		Interval:    interval,
		Start:       start,
		End:         end,
		WarmupDays:  c.WarmupDays,
		Capital:     c.Capital,
		Instruments: instruments,
	}, nil
}
