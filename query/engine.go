// Package query exposes the read side of the SORA store: range plus
// field-subset retrieval for downstream consumers (tables, summaries, CSV).
package query

import (
	"time"

	"github.com/rustyeddy/sora/rates"
	"github.com/rustyeddy/sora/store"
)

// Engine answers filtered, projected queries against a store. It holds no
// state of its own; concurrent queries are safe.
type Engine struct {
	Store *store.Store
}

// Table is one query result: the resolved column list plus rows ascending
// by date. Dates are calendar dates, numeric fields float64.
type Table struct {
	Columns []string
	Rows    []store.Row
}

// Years returns all records whose date falls within the inclusive year
// range [y1, y2]: the bounds expand to Jan 1 of y1 through Dec 31 of y2.
func (e *Engine) Years(y1, y2 int, fields []string) (Table, error) {
	start := time.Date(y1, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, time.December, 31, 0, 0, 0, 0, time.UTC)
	return e.Between(start, end, fields)
}

// Between returns all records with dates in [start, end] inclusive.
func (e *Engine) Between(start, end time.Time, fields []string) (Table, error) {
	cols, err := store.ResolveColumns(fields)
	if err != nil {
		return Table{}, err
	}

	rows, err := e.Store.Scan(start, end, fields)
	if err != nil {
		return Table{}, err
	}
	return Table{Columns: cols, Rows: rows}, nil
}

// Summary carries the headline metrics of a result set: the newest
// observation and its day-on-day movement.
type Summary struct {
	LatestDate     time.Time
	Sora           float64
	SoraDelta      float64
	SoraIndex      float64
	SoraIndexDelta float64
}

// Summarize computes a Summary from a table. ok is false when the table
// has fewer than two rows, since the deltas need a previous observation.
func Summarize(t Table) (Summary, bool) {
	if len(t.Rows) < 2 {
		return Summary{}, false
	}

	last := t.Rows[len(t.Rows)-1]
	prev := t.Rows[len(t.Rows)-2]

	return Summary{
		LatestDate:     last.Date,
		Sora:           last.Sora,
		SoraDelta:      last.Sora - prev.Sora,
		SoraIndex:      last.SoraIndex,
		SoraIndexDelta: last.SoraIndex - prev.SoraIndex,
	}, true
}

// used by WriteCSV and the CLI table printer
func cellValue(row store.Row, col string) (float64, bool) {
	switch col {
	case rates.FieldSora:
		return row.Sora, true
	case rates.FieldSoraIndex:
		return row.SoraIndex, true
	case rates.FieldComp1M:
		if row.Comp1M != nil {
			return *row.Comp1M, true
		}
	case rates.FieldComp3M:
		if row.Comp3M != nil {
			return *row.Comp3M, true
		}
	case rates.FieldComp6M:
		if row.Comp6M != nil {
			return *row.Comp6M, true
		}
	}
	return 0, false
}
