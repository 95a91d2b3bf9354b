package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/sora/rates"
)

// MandatoryColumns are always present in a scan regardless of the
// requested projection.
var MandatoryColumns = []string{rates.FieldEndOfDay, rates.FieldSora, rates.FieldSoraIndex}

// Row is one projected record. Composite fields are nil when their column
// was not part of the projection.
type Row struct {
	Date      time.Time
	Sora      float64
	SoraIndex float64
	Comp1M    *float64
	Comp3M    *float64
	Comp6M    *float64
}

// ResolveColumns expands a requested field subset into the full ordered
// column list: the mandatory columns followed by any requested composite
// columns in store order. Unknown field names are an error.
func ResolveColumns(fields []string) ([]string, error) {
	want := map[string]bool{}
	for _, f := range fields {
		switch f {
		case rates.FieldEndOfDay, rates.FieldSora, rates.FieldSoraIndex:
			// mandatory, already included
		case rates.FieldComp1M, rates.FieldComp3M, rates.FieldComp6M:
			want[f] = true
		default:
			return nil, fmt.Errorf("unknown field %q", f)
		}
	}

	cols := append([]string{}, MandatoryColumns...)
	for _, f := range rates.CompositeFields {
		if want[f] {
			cols = append(cols, f)
		}
	}
	return cols, nil
}

// Scan returns the projected rows with end_of_day in [start, end],
// inclusive on both ends, ascending by date.
func (s *Store) Scan(start, end time.Time, fields []string) ([]Row, error) {
	cols, err := ResolveColumns(fields)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM fields
		WHERE end_of_day >= ? AND end_of_day <= ?
		ORDER BY end_of_day ASC`, strings.Join(cols, ", "))

	rows, err := s.db.Query(q, rates.FormatDate(start), rates.FormatDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			day  string
			row  Row
			dest = []any{&day, &row.Sora, &row.SoraIndex}
		)
		for _, c := range cols[len(MandatoryColumns):] {
			switch c {
			case rates.FieldComp1M:
				row.Comp1M = new(float64)
				dest = append(dest, row.Comp1M)
			case rates.FieldComp3M:
				row.Comp3M = new(float64)
				dest = append(dest, row.Comp3M)
			case rates.FieldComp6M:
				row.Comp6M = new(float64)
				dest = append(dest, row.Comp6M)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row.Date, err = rates.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", day, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
