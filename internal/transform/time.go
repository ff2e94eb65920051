package transform

import (
	"slices"
	"time"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// BuildTime returns one time dimension row per distinct song play timestamp
func BuildTime(plays []domain.LogEvent) []domain.TimeRow {
	timestamps := make([]int64, 0, len(plays))
	for _, e := range plays {
		timestamps = append(timestamps, e.Timestamp)
	}
	timestamps = Distinct(timestamps)
	slices.Sort(timestamps)

	rows := make([]domain.TimeRow, 0, len(timestamps))
	for _, ts := range timestamps {
		rows = append(rows, DecomposeTimestamp(ts))
	}
	return rows
}

// DecomposeTimestamp splits an epoch millisecond value into calendar fields in UTC.
// Week is the ISO-8601 week number and weekday runs from Monday=1 to Sunday=7.
func DecomposeTimestamp(ms int64) domain.TimeRow {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()

	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return domain.TimeRow{
		Timestamp: ms,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   weekday,
	}
}
