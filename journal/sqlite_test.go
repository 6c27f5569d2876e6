package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/ledger"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordRunRoundtrip(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	run := Run{
		RunID:       "01RUN",
		Created:     time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		Strategy:    "sma-cross",
		Start:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Capital:     1_000_000,
		EndBalance:  1_042_500,
		TotalNetPnL: 42_500,
		MaxDrawdown: -12_000,
		SharpeRatio: 1.7,
		TotalDays:   85,
		TradeCount:  240,
	}
	require.NoError(t, j.RecordRun(run))

	got, err := j.GetRun("01RUN")
	require.NoError(t, err)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.Equal(t, run.TradeCount, got.TradeCount)
	assert.InDelta(t, run.TotalNetPnL, got.TotalNetPnL, 1e-9)
	assert.True(t, run.Created.Equal(got.Created))
}

func TestRecordTrades(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	trades := []broker.Trade{
		{ID: "r-t00000001", OrderID: "r-o00000001", Symbol: "IF2406", Direction: broker.Long,
			Price: 3500.2, Volume: 2, Time: time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC)},
		{ID: "r-t00000002", OrderID: "r-o00000003", Symbol: "IF2406", Direction: broker.Short,
			Price: 3512.8, Volume: 2, Time: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)},
	}
	for _, tr := range trades {
		require.NoError(t, j.RecordTrade("01RUN", tr))
	}

	got, err := j.ListTrades("01RUN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r-t00000001", got[0].ID)
	assert.Equal(t, broker.Long, got[0].Direction)
	assert.Equal(t, broker.Short, got[1].Direction)
	assert.InDelta(t, 3512.8, got[1].Price, 1e-9)

	other, err := j.ListTrades("OTHER")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecordDailyResult(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	d := &ledger.PortfolioDailyResult{
		Date:       "2024-03-01",
		TradeCount: 3,
		Turnover:   2_100_000,
		Commission: 48.3,
		Slippage:   120,
		TradingPnL: 600,
		HoldingPnL: -150,
		TotalPnL:   450,
		NetPnL:     281.7,
	}
	require.NoError(t, j.RecordDailyResult("01RUN", d))

	// (run_id, date) is the primary key: a second insert for the same date fails
	assert.Error(t, j.RecordDailyResult("01RUN", d))
}
