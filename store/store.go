// Package store is the durable SQLite home of the SORA dataset. The sync
// path only ever grows the fields table; rows are never mutated or deleted.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/sora/rates"
)

// ErrIntegrity is returned when an append collides with an existing
// end_of_day. The whole batch is rolled back; nothing is silently dropped.
var ErrIntegrity = errors.New("integrity violation")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// LatestDate returns the maximum stored end_of_day. ok is false when the
// store is empty.
func (s *Store) LatestDate() (latest time.Time, ok bool, err error) {
	var day sql.NullString
	if err := s.db.QueryRow(`SELECT max(end_of_day) FROM fields`).Scan(&day); err != nil {
		return time.Time{}, false, err
	}
	if !day.Valid {
		return time.Time{}, false, nil
	}

	t, err := rates.ParseDate(day.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stored date %q: %w", day.String, err)
	}
	return t, true, nil
}

// Dates returns the set of stored end_of_day keys.
func (s *Store) Dates() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT end_of_day FROM fields`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]bool{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		keys[day] = true
	}
	return keys, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM fields`).Scan(&n)
	return n, err
}

// Append bulk-inserts records inside a single transaction. Either every
// record becomes visible or none does; a duplicate end_of_day anywhere in
// the batch returns ErrIntegrity and leaves the store untouched.
func (s *Store) Append(recs []rates.Rate) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fields
		(end_of_day, sora, sora_index, comp_sora_1m, comp_sora_3m, comp_sora_6m)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(r.Key(), r.Sora, r.SoraIndex, r.Comp1M, r.Comp3M, r.Comp6M); err != nil {
			tx.Rollback()

			var serr sqlite3.Error
			if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
				return fmt.Errorf("%w: %s already stored", ErrIntegrity, r.Key())
			}
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
