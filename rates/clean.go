package rates

import (
	"math"
	"strconv"
	"strings"
)

// Clean converts raw API records into Rates, dropping any record that is
// incomplete, carries a NaN or unparsable value, or whose date is already in
// existing. Output preserves input order. Clean is pure: it performs no I/O
// and does not mutate its arguments.
func Clean(raw []Raw, existing map[string]bool) []Rate {
	out := make([]Rate, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, rec := range raw {
		r, ok := coerce(rec)
		if !ok {
			continue
		}
		key := r.Key()
		if existing[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// coerce maps one raw record onto a Rate. Any missing, empty, unparsable or
// NaN field rejects the whole record, composites included.
func coerce(rec Raw) (Rate, bool) {
	day, ok := rec[FieldEndOfDay].(string)
	if !ok || day == "" {
		return Rate{}, false
	}
	eod, err := ParseDate(day)
	if err != nil {
		return Rate{}, false
	}

	vals := make([]float64, 0, 5)
	for _, field := range []string{FieldSora, FieldSoraIndex, FieldComp1M, FieldComp3M, FieldComp6M} {
		v, ok := number(rec[field])
		if !ok {
			return Rate{}, false
		}
		vals = append(vals, v)
	}

	return Rate{
		EndOfDay:  eod,
		Sora:      vals[0],
		SoraIndex: vals[1],
		Comp1M:    vals[2],
		Comp3M:    vals[3],
		Comp6M:    vals[4],
	}, true
}

// number coerces a raw JSON value to a finite float64. The API serves
// numeric fields as either JSON numbers or decimal strings.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
