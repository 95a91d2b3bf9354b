package query

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rustyeddy/sora/rates"
)

// WriteCSV renders a table as CSV: header row of column names, then one
// line per record with the date first.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	line := make([]string, 0, len(t.Columns))
	for _, row := range t.Rows {
		line = line[:0]
		for _, col := range t.Columns {
			if col == rates.FieldEndOfDay {
				line = append(line, rates.FormatDate(row.Date))
				continue
			}
			v, ok := cellValue(row, col)
			if !ok {
				line = append(line, "")
				continue
			}
			line = append(line, f(v))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
