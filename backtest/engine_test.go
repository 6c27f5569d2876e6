package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// memSource serves bars from a slice, ascending per symbol.
type memSource struct {
	bars []market.Bar
}

func (m memSource) LoadBars(symbol string, _ market.Interval, start, end time.Time) ([]market.Bar, error) {
	var out []market.Bar
	for _, b := range m.bars {
		if b.Symbol == symbol && !b.Time.Before(start) && !b.Time.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

// scripted is a strategy wired from closures, recording every callback.
type scripted struct {
	onInit  func(e *Engine) error
	onStart func(e *Engine) error
	onBars  func(e *Engine, bars map[string]market.Bar) error

	initCalls  int
	startCalls int
	barCalls   []map[string]market.Bar
	barTimes   []time.Time

	orderUpdates []broker.Order
	tradeUpdates []broker.Trade
}

func (s *scripted) OnInit(e *Engine) error {
	s.initCalls++
	if s.onInit != nil {
		return s.onInit(e)
	}
	return nil
}

func (s *scripted) OnStart(e *Engine) error {
	s.startCalls++
	if s.onStart != nil {
		return s.onStart(e)
	}
	return nil
}

func (s *scripted) OnBars(e *Engine, bars map[string]market.Bar) error {
	snapshot := make(map[string]market.Bar, len(bars))
	for k, v := range bars {
		snapshot[k] = v
	}
	s.barCalls = append(s.barCalls, snapshot)
	s.barTimes = append(s.barTimes, e.Now())
	if s.onBars != nil {
		return s.onBars(e, bars)
	}
	return nil
}

func (s *scripted) UpdateOrder(o broker.Order) { s.orderUpdates = append(s.orderUpdates, o) }
func (s *scripted) UpdateTrade(t broker.Trade) { s.tradeUpdates = append(s.tradeUpdates, t) }

func testConfig(symbols ...string) Config {
	instruments := make(map[string]market.Instrument)
	for _, s := range symbols {
		instruments[s] = market.Instrument{Symbol: s, Size: 1, Rate: 0, Slippage: 0, PriceTick: 0.5}
	}
	return Config{
		Symbols:     symbols,
		Interval:    market.Minute,
		Start:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		Capital:     1_000_000,
		Instruments: instruments,
	}
}

func minuteBar(symbol string, day, hh, mm int, o, h, l, c float64) market.Bar {
	return market.Bar{
		Symbol: symbol,
		Time:   time.Date(2024, 3, day, hh, mm, 0, 0, time.UTC),
		Open:   o, High: h, Low: l, Close: c,
	}
}

func TestLoadDataInvalidSpan(t *testing.T) {
	t.Parallel()

	cfg := testConfig("A")
	cfg.End = cfg.Start
	e := NewEngine(cfg, &scripted{}, nil)

	err := e.LoadData(memSource{})
	assert.ErrorIs(t, err, ErrInvalidSpan)
}

func TestLoadDataUnknownSymbol(t *testing.T) {
	t.Parallel()

	cfg := testConfig("A")
	cfg.Symbols = []string{"A", "B"} // B has no instrument entry
	e := NewEngine(cfg, &scripted{}, nil)

	err := e.LoadData(memSource{})
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestRunEmptyTimeline(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{}))

	require.NoError(t, e.Run())
	assert.Equal(t, Finished, e.State())
	assert.Equal(t, 1, strat.initCalls)
	assert.Empty(t, strat.barCalls)

	days, err := e.Finalize()
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestRunOrdering(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 31, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 32, 10, 11, 9, 10),
	}}))

	require.NoError(t, e.Run())

	require.Len(t, strat.barTimes, 3)
	for i := 1; i < len(strat.barTimes); i++ {
		assert.True(t, strat.barTimes[i-1].Before(strat.barTimes[i]),
			"timestamps must be processed strictly ascending")
	}
}

func TestSnapshotBackfill(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	e := NewEngine(testConfig("A", "B", "C"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 31, 10, 11, 9, 10),
		minuteBar("B", 1, 9, 30, 99, 101, 98, 100),
		// B has no 9:31 bar; C never has data
	}}))

	require.NoError(t, e.Run())
	require.Len(t, strat.barCalls, 2)

	first := strat.barCalls[0]
	assert.Contains(t, first, "A")
	assert.Contains(t, first, "B")
	assert.NotContains(t, first, "C", "never-seen instruments stay out of the snapshot")

	second := strat.barCalls[1]
	b := second["B"]
	assert.Equal(t, 100.0, b.Open)
	assert.Equal(t, 100.0, b.High)
	assert.Equal(t, 100.0, b.Low)
	assert.Equal(t, 100.0, b.Close)
	assert.Equal(t, strat.barTimes[1], b.Time)
	assert.NotContains(t, second, "C")
}

func TestWarmupCallbacks(t *testing.T) {
	t.Parallel()

	var stateAtStart State
	var firstTradingBar time.Time

	strat := &scripted{}
	strat.onStart = func(e *Engine) error {
		stateAtStart = e.State()
		return nil
	}
	strat.onBars = func(e *Engine, _ map[string]market.Bar) error {
		if e.State() == Trading && firstTradingBar.IsZero() {
			firstTradingBar = e.Now()
		}
		return nil
	}

	cfg := testConfig("A")
	cfg.WarmupDays = 1
	e := NewEngine(cfg, strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 31, 10, 11, 9, 10),
		minuteBar("A", 4, 9, 30, 10, 11, 9, 10),
		minuteBar("A", 4, 9, 31, 10, 11, 9, 10),
	}}))

	require.NoError(t, e.Run())

	assert.Equal(t, 1, strat.initCalls)
	assert.Equal(t, 1, strat.startCalls)
	assert.Equal(t, WarmingUp, stateAtStart, "OnStart fires at the boundary, before trading state")
	assert.Equal(t, 4, len(strat.barCalls), "warm-up bars are still delivered")
	assert.Equal(t,
		time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		firstTradingBar,
		"trading begins on the first bar of the day after warm-up")
	assert.Equal(t, Finished, e.State())
}

func TestOrderLifecycleThroughReplay(t *testing.T) {
	t.Parallel()

	var orderIDs []string
	strat := &scripted{}
	strat.onBars = func(e *Engine, bars map[string]market.Bar) error {
		if len(orderIDs) > 0 {
			return nil
		}
		ids, err := e.SendOrder(broker.OrderRequest{
			Symbol:    "A",
			Direction: broker.Long,
			Offset:    broker.Open,
			Price:     105,
			Volume:    2,
		})
		if err != nil {
			return err
		}
		orderIDs = ids
		return nil
	}

	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 100, 101, 99, 100),
		minuteBar("A", 1, 9, 31, 102, 108, 100, 103),
	}}))

	require.NoError(t, e.Run())
	require.Len(t, orderIDs, 1)

	// the order placed on the 9:30 bar is matched against the 9:31 bar:
	// acknowledged first, then filled at min(105, open 102)
	require.Len(t, strat.orderUpdates, 2)
	assert.Equal(t, broker.NotTraded, strat.orderUpdates[0].Status)
	assert.Equal(t, broker.AllTraded, strat.orderUpdates[1].Status)

	require.Len(t, strat.tradeUpdates, 1)
	tr := strat.tradeUpdates[0]
	assert.Equal(t, 102.0, tr.Price)
	assert.Equal(t, 2.0, tr.Volume)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC), tr.Time)

	// cancelling the filled order afterwards is a no-op
	before := len(strat.orderUpdates)
	e.CancelOrder(orderIDs[0])
	assert.Len(t, strat.orderUpdates, before)

	// and the ledger kept the fill
	days, err := e.Finalize()
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].TradeCount)
	assert.InDelta(t, (103.0-102.0)*2, days[0].TradingPnL, 1e-9)
}

func TestSendOrderQuantizesPrice(t *testing.T) {
	t.Parallel()

	var got float64
	strat := &scripted{}
	strat.onBars = func(e *Engine, bars map[string]market.Bar) error {
		ids, err := e.SendOrder(broker.OrderRequest{
			Symbol:    "A",
			Direction: broker.Long,
			Price:     100.26,
			Volume:    1,
		})
		if err != nil {
			return err
		}
		for _, o := range e.Orders() {
			if o.ID == ids[0] {
				got = o.Price
			}
		}
		return errStop
	}

	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 100, 101, 99, 100),
	}}))

	require.Error(t, e.Run())
	assert.Equal(t, 100.5, got, "price must be rounded to the 0.5 tick")
}

func TestSendOrderUnknownInstrument(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	strat.onBars = func(e *Engine, bars map[string]market.Bar) error {
		_, err := e.SendOrder(broker.OrderRequest{Symbol: "NOPE", Direction: broker.Long, Price: 1, Volume: 1})
		assert.ErrorIs(t, err, ErrUnknownInstrument)
		return nil
	}

	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 100, 101, 99, 100),
	}}))
	require.NoError(t, e.Run())
}

var errStop = errors.New("stop here")

func TestRunFailFast(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	strat.onBars = func(e *Engine, bars map[string]market.Bar) error {
		if len(strat.barCalls) == 2 {
			return errStop
		}
		return nil
	}

	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 31, 10, 11, 9, 10),
		minuteBar("A", 1, 9, 32, 10, 11, 9, 10),
	}}))

	err := e.Run()
	require.ErrorIs(t, err, errStop)

	// the loop stopped at the failing timestamp and state is inspectable
	assert.Len(t, strat.barCalls, 2)
	assert.NotEqual(t, Finished, e.State())
	assert.Equal(t, time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC), e.Now())
}

func TestWriteLog(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	strat.onBars = func(e *Engine, bars map[string]market.Bar) error {
		e.WriteLog("hello")
		return nil
	}

	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
	}}))
	require.NoError(t, e.Run())

	logs := e.Logs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "hello")
	assert.Contains(t, logs[0], "2024-03-01 09:30:00")
}

func TestClearDataResetsRunState(t *testing.T) {
	t.Parallel()

	strat := &scripted{}
	e := NewEngine(testConfig("A"), strat, nil)
	require.NoError(t, e.LoadData(memSource{bars: []market.Bar{
		minuteBar("A", 1, 9, 30, 10, 11, 9, 10),
	}}))
	require.NoError(t, e.Run())
	require.Equal(t, Finished, e.State())

	e.ClearData()
	assert.Equal(t, Uninitialized, e.State())
	assert.Empty(t, e.Orders())

	// the loaded history survives, so the engine can run again
	fresh := &scripted{}
	e.strategy = fresh
	require.NoError(t, e.Run())
	assert.Len(t, fresh.barCalls, 1)
}
