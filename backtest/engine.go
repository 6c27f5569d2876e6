// Package backtest replays historical bars through a strategy and simulates
// execution against a per-run order book, accumulating daily accounting in
// the ledger. The replay is strictly single-threaded: timestamps advance in
// ascending order and all state is threaded forward, never recomputed out of
// order.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/btree"
	"go.uber.org/zap"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/ledger"
	"github.com/quantfold/backsim/market"
	"github.com/quantfold/backsim/sim"
)

// State is the replay lifecycle.
type State uint8

const (
	Uninitialized State = iota
	WarmingUp
	Trading
	Finished
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case WarmingUp:
		return "warming_up"
	case Trading:
		return "trading"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Strategy is the fixed callback contract a backtest drives. All calls are
// synchronous within the replay step and must not block. Any error returned
// from OnInit, OnStart, or OnBars aborts the run immediately.
//
// Matching is unconditional during warm-up; a strategy that should not trade
// before OnStart has to gate itself (State() exposes the phase).
type Strategy interface {
	OnInit(e *Engine) error
	OnStart(e *Engine) error
	OnBars(e *Engine, bars map[string]market.Bar) error

	UpdateOrder(o broker.Order)
	UpdateTrade(t broker.Trade)
}

// Config are the engine parameters. Instruments must contain an entry for
// every symbol; there are no scalar fallbacks.
type Config struct {
	Symbols     []string
	Interval    market.Interval
	Start       time.Time
	End         time.Time
	WarmupDays  int
	Capital     float64
	Instruments map[string]market.Instrument
}

func (c Config) instrument(symbol string) (market.Instrument, error) {
	inst, ok := c.Instruments[symbol]
	if !ok {
		return market.Instrument{}, fmt.Errorf("backtest: %w: %q", ErrUnknownInstrument, symbol)
	}
	return inst, nil
}

var (
	// ErrInvalidSpan is returned when the configured start is not before the end.
	ErrInvalidSpan = errors.New("backtest: start must be before end")
	// ErrUnknownInstrument is returned for symbols without a configuration entry.
	ErrUnknownInstrument = errors.New("unknown instrument")
)

type barKey struct {
	ts     int64
	symbol string
}

// Engine owns all mutable replay state: the timeline, the bar cache, the
// order book, and the ledger. One engine is one isolated run; independent
// backtests run as separate instances.
type Engine struct {
	cfg      Config
	log      *zap.Logger
	strategy Strategy

	dts     btree.Set[int64]
	history map[barKey]market.Bar

	bars  map[string]market.Bar // last snapshot per symbol
	now   time.Time
	state State

	book   *sim.Book
	ledger *ledger.Ledger
	logs   []string
}

func NewEngine(cfg Config, strategy Strategy, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		history:  make(map[barKey]market.Bar),
		bars:     make(map[string]market.Bar),
		book:     sim.NewBook(),
		ledger:   ledger.New(),
	}
}

func (e *Engine) State() State           { return e.state }
func (e *Engine) Now() time.Time         { return e.now }
func (e *Engine) RunID() string          { return e.book.RunID() }
func (e *Engine) Capital() float64       { return e.cfg.Capital }
func (e *Engine) Orders() []broker.Order { return e.book.Orders() }
func (e *Engine) Trades() []broker.Trade { return e.book.Trades() }

// Logs returns the strategy log lines written so far, each prefixed with the
// simulation time it was written at.
func (e *Engine) Logs() []string {
	out := make([]string, len(e.logs))
	copy(out, e.logs)
	return out
}

// Run replays the loaded timeline through the strategy.
//
// OnInit fires exactly once before the first bar. The first WarmupDays
// calendar dates (counted by date transitions) are the warm-up span; OnStart
// fires exactly once at the boundary, before the first trading bar. A single
// error from any strategy callback stops the replay immediately and leaves
// all state as of the failing timestamp for inspection.
func (e *Engine) Run() error {
	if e.strategy == nil {
		return errors.New("backtest: no strategy attached")
	}
	if e.state != Uninitialized {
		return fmt.Errorf("backtest: engine already ran (state %s)", e.state)
	}

	if err := e.strategy.OnInit(e); err != nil {
		return fmt.Errorf("backtest: strategy init: %w", err)
	}
	e.state = WarmingUp
	e.log.Info("replay started",
		zap.String("run_id", e.RunID()),
		zap.Int("timestamps", e.dts.Len()),
		zap.Int("warmup_days", e.cfg.WarmupDays))

	dayCount := 0
	var prevDate ledger.Date
	var runErr error

	e.dts.Scan(func(ts int64) bool {
		dt := time.Unix(0, ts).UTC()

		d := ledger.DateOf(dt)
		if prevDate != "" && d != prevDate {
			dayCount++
		}
		prevDate = d

		if e.state == WarmingUp && dayCount >= e.cfg.WarmupDays {
			if err := e.strategy.OnStart(e); err != nil {
				runErr = fmt.Errorf("backtest: strategy start: %w", err)
				return false
			}
			e.state = Trading
			e.log.Info("warm-up complete, trading enabled", zap.Time("at", dt))
		}

		if err := e.processBars(dt); err != nil {
			runErr = err
			return false
		}
		return true
	})
	if runErr != nil {
		e.log.Error("replay aborted", zap.Error(runErr), zap.Time("at", e.now))
		return runErr
	}

	e.state = Finished
	e.log.Info("replay finished",
		zap.Int("orders", len(e.book.Orders())),
		zap.Int("trades", len(e.book.Trades())))
	return nil
}

// processBars advances the simulation to dt: build the snapshot with
// backfill, cross the book, deliver the bars to the strategy, then record
// the closing prices.
func (e *Engine) processBars(dt time.Time) error {
	e.now = dt

	for _, symbol := range e.cfg.Symbols {
		if bar, ok := e.history[barKey{ts: dt.UnixNano(), symbol: symbol}]; ok {
			e.bars[symbol] = bar
			continue
		}

		// No bar at this instant: carry the instrument forward on a flat
		// bar at its previous close. An instrument never seen stays out of
		// the snapshot entirely so it cannot match at a false price.
		if prev, ok := e.bars[symbol]; ok {
			e.bars[symbol] = market.Bar{
				Symbol: symbol,
				Time:   dt,
				Open:   prev.Close,
				High:   prev.Close,
				Low:    prev.Close,
				Close:  prev.Close,
			}
		}
	}

	e.book.Cross(e.bars, dt, e)

	if err := e.strategy.OnBars(e, e.bars); err != nil {
		return fmt.Errorf("backtest: strategy bars at %s: %w", dt.Format(time.RFC3339), err)
	}

	d := ledger.DateOf(dt)
	for symbol, bar := range e.bars {
		e.ledger.RecordClose(d, symbol, bar.Close)
	}
	return nil
}

// Finalize folds the ledger into the daily portfolio series. Safe to call
// repeatedly; the result is identical each time.
func (e *Engine) Finalize() ([]*ledger.PortfolioDailyResult, error) {
	return e.ledger.Finalize(e.cfg.Instruments)
}

// ClearData resets the run state (book, ledger, snapshot, logs) while
// keeping the loaded history, for parameter sweeps over the same dataset.
func (e *Engine) ClearData() {
	e.book = sim.NewBook()
	e.ledger = ledger.New()
	e.bars = make(map[string]market.Bar)
	e.logs = nil
	e.now = time.Time{}
	e.state = Uninitialized
}
