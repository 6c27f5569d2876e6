// Package strategies contains Strategy implementations for the replay
// engine, plus a small name-based factory used by the CLI.
package strategies

import (
	"fmt"
	"strings"

	"github.com/quantfold/backsim/backtest"
)

// Params are the knobs the CLI exposes to every built-in strategy.
type Params struct {
	Fast   int
	Slow   int
	Volume float64
}

// ByName builds a built-in strategy.
func ByName(name string, p Params) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none", "":
		return &Noop{}, nil

	case "sma-cross", "smacross":
		return NewSMACross(p.Fast, p.Slow, p.Volume), nil

	default:
		return nil, fmt.Errorf("strategies: unknown strategy %q (supported: noop, sma-cross)", name)
	}
}
