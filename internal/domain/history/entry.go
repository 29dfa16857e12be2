package history

import (
	"strings"
	"time"
)

// Entry is one logged search.
type Entry struct {
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	ElapsedMs    int64     `json:"search_time_ms"`
	Mode         string    `json:"mode"`
	Timestamp    time.Time `json:"timestamp"`
}

// Normalize lowercases and collapses whitespace so that counters aggregate
// "Wireless  Headphones" and "wireless headphones" together.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Period is a trending window.
type Period string

// Trending periods.
const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
)

// Days returns the number of daily buckets the period spans.
// Unknown periods fall back to a week.
func (p Period) Days() int {
	switch p {
	case Day:
		return 1
	case Month:
		return 30
	default:
		return 7
	}
}

// ParsePeriod maps a string to a Period, defaulting to Week.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(s)) {
	case Day:
		return Day
	case Month:
		return Month
	default:
		return Week
	}
}

// Count is a query with its occurrence count.
type Count struct {
	Query string
	Count int
}
