package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	capital REAL NOT NULL,
	end_balance REAL NOT NULL,
	total_net_pnl REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	total_days INTEGER NOT NULL,
	trade_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	offset_kind TEXT NOT NULL,
	price REAL NOT NULL,
	volume REAL NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);

CREATE TABLE IF NOT EXISTS daily_results (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	trade_count INTEGER NOT NULL,
	turnover REAL NOT NULL,
	commission REAL NOT NULL,
	slippage REAL NOT NULL,
	trading_pnl REAL NOT NULL,
	holding_pnl REAL NOT NULL,
	total_pnl REAL NOT NULL,
	net_pnl REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
`
