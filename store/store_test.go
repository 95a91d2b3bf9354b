package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sora/rates"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sora.db")
	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func rate(day string, sora float64) rates.Rate {
	eod, _ := rates.ParseDate(day)
	return rates.Rate{
		EndOfDay:  eod,
		Sora:      sora,
		SoraIndex: 1.1,
		Comp1M:    3.01,
		Comp3M:    2.98,
		Comp6M:    2.95,
	}
}

func TestSchemaCreated(t *testing.T) {
	t.Parallel()

	_, path := newTestStore(t)

	// Opening a second time must be a no-op (schema is idempotent).
	again, err := New(path)
	require.NoError(t, err)
	assert.NoError(t, again.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('fields','sync_runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["fields"])
	assert.True(t, found["sync_runs"])
}

func TestLatestDateEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	_, ok, err := s.LatestDate()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendAndLatestDate(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	recs := []rates.Rate{
		rate("2023-05-29", 3.01),
		rate("2023-05-30", 3.05),
	}
	require.NoError(t, s.Append(recs))

	latest, ok, err := s.LatestDate()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2023-05-30", rates.FormatDate(latest))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := s.Dates()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2023-05-29": true, "2023-05-30": true}, keys)
}

func TestAppendEmptyBatch(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.NoError(t, s.Append(nil))
}

func TestAppendRejectsWholeBatchOnDuplicate(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Append([]rates.Rate{rate("2023-05-29", 3.01)}))

	// One colliding record poisons the batch: the fresh records in it must
	// not be stored either.
	err := s.Append([]rates.Rate{
		rate("2023-05-30", 3.05),
		rate("2023-05-29", 9.99),
		rate("2023-05-31", 3.02),
	})
	assert.ErrorIs(t, err, ErrIntegrity)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	latest, ok, err := s.LatestDate()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2023-05-29", rates.FormatDate(latest))
}

func TestScanRangeInclusive(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Append([]rates.Rate{
		rate("2023-05-28", 3.00),
		rate("2023-05-29", 3.01),
		rate("2023-05-30", 3.05),
		rate("2023-05-31", 3.02),
	}))

	start, _ := rates.ParseDate("2023-05-29")
	end, _ := rates.ParseDate("2023-05-30")

	rows, err := s.Scan(start, end, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2023-05-29", rates.FormatDate(rows[0].Date))
	assert.Equal(t, "2023-05-30", rates.FormatDate(rows[1].Date))
	assert.InDelta(t, 3.01, rows[0].Sora, 1e-9)
	assert.InDelta(t, 3.05, rows[1].Sora, 1e-9)
}

func TestScanProjection(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Append([]rates.Rate{rate("2023-05-30", 3.05)}))

	start, _ := rates.ParseDate("2023-01-01")
	end, _ := rates.ParseDate("2023-12-31")

	t.Run("empty projection keeps mandatory columns", func(t *testing.T) {
		rows, err := s.Scan(start, end, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.InDelta(t, 3.05, rows[0].Sora, 1e-9)
		assert.InDelta(t, 1.1, rows[0].SoraIndex, 1e-9)
		assert.Nil(t, rows[0].Comp1M)
		assert.Nil(t, rows[0].Comp3M)
		assert.Nil(t, rows[0].Comp6M)
	})

	t.Run("subset of composites", func(t *testing.T) {
		rows, err := s.Scan(start, end, []string{rates.FieldComp3M})
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Nil(t, rows[0].Comp1M)
		require.NotNil(t, rows[0].Comp3M)
		assert.InDelta(t, 2.98, *rows[0].Comp3M, 1e-9)
		assert.Nil(t, rows[0].Comp6M)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := s.Scan(start, end, []string{"volume"})
		assert.Error(t, err)
	})
}

func TestResolveColumns(t *testing.T) {
	t.Parallel()

	cols, err := ResolveColumns([]string{rates.FieldComp6M, rates.FieldComp1M, rates.FieldSora})
	require.NoError(t, err)
	assert.Equal(t, []string{
		rates.FieldEndOfDay, rates.FieldSora, rates.FieldSoraIndex,
		rates.FieldComp1M, rates.FieldComp6M,
	}, cols)
}

func TestRecordAndListRuns(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	started := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRun(Run{
		ID:         "01H0000000000000000000000A",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Fetched:    150,
		Dropped:    3,
		Appended:   147,
		Status:     "ok",
	}))
	require.NoError(t, s.RecordRun(Run{
		ID:         "01H0000000000000000000000B",
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour),
		Status:     "noop",
	}))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "noop", runs[0].Status)
	assert.Equal(t, "ok", runs[1].Status)
	assert.Equal(t, 147, runs[1].Appended)
	assert.True(t, runs[1].StartedAt.Equal(started))
}
