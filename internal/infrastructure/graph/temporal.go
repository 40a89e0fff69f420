package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Approximate lengths used to flatten calendar durations.
const (
	day   = 24 * time.Hour
	month = 30 * day
)

// Normalize converts driver temporal values into time.Time and
// time.Duration, walking slices and maps element-wise. Everything else is
// returned as is, so Normalize(Normalize(v)) equals Normalize(v).
func Normalize(v any) any {
	switch t := v.(type) {
	case dbtype.Date:
		return time.Time(t)
	case dbtype.LocalDateTime:
		return time.Time(t)
	case dbtype.LocalTime:
		return time.Time(t)
	case dbtype.Time:
		return time.Time(t)
	case dbtype.Duration:
		return durationOf(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Normalize(item)
		}
		return out
	case Record:
		return Record(Normalize(map[string]any(t)).(map[string]any))
	default:
		return v
	}
}

// NormalizeRecords applies Normalize to every record in place.
func NormalizeRecords(records []Record) []Record {
	for i, rec := range records {
		records[i] = Normalize(rec).(Record)
	}
	return records
}

// durationOf treats a month as 30 days. Calendar-exact arithmetic would need
// an anchor date the caller does not have.
func durationOf(d dbtype.Duration) time.Duration {
	return time.Duration(d.Months)*month +
		time.Duration(d.Days)*day +
		time.Duration(d.Seconds)*time.Second +
		time.Duration(d.Nanos)
}
