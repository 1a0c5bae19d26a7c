package sqlstore

// Money columns are TEXT in SQLite so values round-trip exactly; the store
// never lets SQLite do arithmetic on them.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL CHECK (type IN ('checking', 'savings', 'cash', 'credit_card')),
    initial_balance TEXT NOT NULL DEFAULT '0',
    current_balance TEXT NOT NULL DEFAULT '0',
    credit_limit TEXT,
    archived BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT REFERENCES accounts(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    base_amount TEXT NOT NULL,
    is_paid BOOLEAN NOT NULL DEFAULT 0,
    occurred_on DATE NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, type, is_paid);

CREATE TABLE IF NOT EXISTS savings_funds (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    current_balance TEXT NOT NULL DEFAULT '0',
    target_amount TEXT
);

CREATE INDEX IF NOT EXISTS idx_savings_funds_user ON savings_funds(user_id);

CREATE TABLE IF NOT EXISTS savings_movements (
    id TEXT PRIMARY KEY,
    fund_id TEXT NOT NULL REFERENCES savings_funds(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
    amount TEXT NOT NULL,
    occurred_on DATE NOT NULL,
    note TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_savings_movements_fund ON savings_movements(fund_id, type);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL CHECK (type IN ('checking', 'savings', 'cash', 'credit_card')),
    initial_balance NUMERIC NOT NULL DEFAULT 0,
    current_balance NUMERIC NOT NULL DEFAULT 0,
    credit_limit NUMERIC,
    archived BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT REFERENCES accounts(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    base_amount NUMERIC NOT NULL,
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    occurred_on DATE NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, type, is_paid);

CREATE TABLE IF NOT EXISTS savings_funds (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    current_balance NUMERIC NOT NULL DEFAULT 0,
    target_amount NUMERIC
);

CREATE INDEX IF NOT EXISTS idx_savings_funds_user ON savings_funds(user_id);

CREATE TABLE IF NOT EXISTS savings_movements (
    id TEXT PRIMARY KEY,
    fund_id TEXT NOT NULL REFERENCES savings_funds(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
    amount NUMERIC NOT NULL,
    occurred_on DATE NOT NULL,
    note TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_savings_movements_fund ON savings_movements(fund_id, type);
`
