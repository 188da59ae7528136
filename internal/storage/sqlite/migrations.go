package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as base-10 TEXT since they exceed 64 bits.
const schema = `
CREATE TABLE IF NOT EXISTS treasuries (
    id TEXT PRIMARY KEY,
    account TEXT NOT NULL UNIQUE,
    asset TEXT NOT NULL,
    admin TEXT NOT NULL,
    balance TEXT NOT NULL,
    seq INTEGER NOT NULL,
    head TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    treasury_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    at INTEGER NOT NULL,
    data TEXT NOT NULL,
    prev_hash TEXT NOT NULL,
    hash TEXT NOT NULL,
    PRIMARY KEY (treasury_id, seq),
    FOREIGN KEY (treasury_id) REFERENCES treasuries(id)
);

CREATE TABLE IF NOT EXISTS settlement_runs (
    treasury_id TEXT NOT NULL,
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (treasury_id, run_id),
    FOREIGN KEY (treasury_id, seq) REFERENCES events(treasury_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_treasuries_created_at ON treasuries(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
