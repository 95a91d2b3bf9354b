// Package rates holds the SORA domain model: the typed daily record and the
// validation/deduplication pass that turns raw API payloads into rows safe
// to persist.
package rates

import "time"

// DateLayout is the calendar-date format used by the MAS API and the store.
const DateLayout = "2006-01-02"

// Wire/store field names. end_of_day is the natural key.
const (
	FieldEndOfDay  = "end_of_day"
	FieldSora      = "sora"
	FieldSoraIndex = "sora_index"
	FieldComp1M    = "comp_sora_1m"
	FieldComp3M    = "comp_sora_3m"
	FieldComp6M    = "comp_sora_6m"
)

// CompositeFields lists the optional compounded-rate columns in store order.
var CompositeFields = []string{FieldComp1M, FieldComp3M, FieldComp6M}

// Raw is one untyped record as returned by the API.
type Raw map[string]any

// Rate is one validated daily observation. A Rate only exists with all six
// fields present and finite; records missing any value never get this far.
type Rate struct {
	EndOfDay  time.Time
	Sora      float64
	SoraIndex float64
	Comp1M    float64
	Comp3M    float64
	Comp6M    float64
}

// Key returns the record's natural key in DateLayout form.
func (r Rate) Key() string {
	return r.EndOfDay.Format(DateLayout)
}

// ParseDate parses a calendar date in DateLayout form (UTC).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as a calendar date in DateLayout form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
