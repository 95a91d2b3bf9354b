package store

import "time"

// Run is the audit record of one sync attempt. Failed attempts are recorded
// too; the fields table itself is untouched by a failure.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Dropped    int
	Appended   int
	Status     string // "ok", "noop" or "failed"
	Error      string
}

// RecordRun persists one sync attempt's outcome.
func (s *Store) RecordRun(r Run) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_runs
		(run_id, started_at, finished_at, fetched, dropped, appended, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.FinishedAt, r.Fetched, r.Dropped, r.Appended, r.Status, r.Error,
	)
	return err
}

// ListRuns returns the most recent sync attempts, newest first. ULID run
// IDs sort by creation time, so ordering by run_id is ordering by start.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, fetched, dropped, appended, status, error
		FROM sync_runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.Fetched, &r.Dropped, &r.Appended, &r.Status, &r.Error,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
