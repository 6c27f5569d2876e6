package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/ledger"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, start_time, end_time, capital, end_balance,
		 total_net_pnl, max_drawdown, sharpe_ratio, total_days, trade_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Start, r.End, r.Capital, r.EndBalance,
		r.TotalNetPnL, r.MaxDrawdown, r.SharpeRatio, r.TotalDays, r.TradeCount,
	)
	return err
}

func (j *SQLiteJournal) RecordTrade(runID string, t broker.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, order_id, symbol, direction, offset_kind, price, volume, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, runID, t.OrderID, t.Symbol, t.Direction.String(), t.Offset.String(),
		t.Price, t.Volume, t.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordDailyResult(runID string, d *ledger.PortfolioDailyResult) error {
	_, err := j.db.Exec(`
		INSERT INTO daily_results
		(run_id, date, trade_count, turnover, commission, slippage,
		 trading_pnl, holding_pnl, total_pnl, net_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(d.Date), d.TradeCount, d.Turnover, d.Commission, d.Slippage,
		d.TradingPnL, d.HoldingPnL, d.TotalPnL, d.NetPnL,
	)
	return err
}

func (j *SQLiteJournal) GetRun(runID string) (Run, error) {
	var r Run
	err := j.db.QueryRow(`
		SELECT run_id, created, strategy, start_time, end_time, capital, end_balance,
		       total_net_pnl, max_drawdown, sharpe_ratio, total_days, trade_count
		FROM runs WHERE run_id = ?`, runID,
	).Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Start, &r.End, &r.Capital, &r.EndBalance,
		&r.TotalNetPnL, &r.MaxDrawdown, &r.SharpeRatio, &r.TotalDays, &r.TradeCount,
	)
	if err != nil {
		return Run{}, fmt.Errorf("journal: get run %s: %w", runID, err)
	}
	return r, nil
}

func (j *SQLiteJournal) ListTrades(runID string) ([]broker.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, order_id, symbol, direction, price, volume, time
		FROM trades WHERE run_id = ? ORDER BY trade_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list trades: %w", err)
	}
	defer rows.Close()

	var out []broker.Trade
	for rows.Next() {
		var t broker.Trade
		var direction string
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &direction, &t.Price, &t.Volume, &t.Time); err != nil {
			return nil, err
		}
		t.Direction = broker.Long
		if direction == broker.Short.String() {
			t.Direction = broker.Short
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
