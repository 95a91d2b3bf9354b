// store/schema.go
package store

// Schema is applied on every open; all statements are idempotent. The
// unique index on end_of_day backs the reject-whole-batch guarantee in
// Append, independent of any validator-level dedup.
const Schema = `
CREATE TABLE IF NOT EXISTS fields (
	end_of_day TEXT NOT NULL,
	sora REAL NOT NULL,
	sora_index REAL NOT NULL,
	comp_sora_1m REAL NOT NULL,
	comp_sora_3m REAL NOT NULL,
	comp_sora_6m REAL NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_fields_end_of_day ON fields(end_of_day);

CREATE TABLE IF NOT EXISTS sync_runs (
	run_id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	fetched INTEGER NOT NULL,
	dropped INTEGER NOT NULL,
	appended INTEGER NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL
);
`
