package reports

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange restricts the history report to recent updates.
type TimeRange string

const (
	TimeRangeAll   TimeRange = ""
	TimeRangeDay   TimeRange = "24h"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "30d"
)

// ParseTimeRange accepts 24h, 7d, 30d, all or blank.
func ParseTimeRange(raw string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(raw))); r {
	case TimeRangeAll, TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
		return r, nil
	case "all":
		return TimeRangeAll, nil
	default:
		return "", fmt.Errorf("%w: time range %q", ErrInvalidInput, raw)
	}
}

// Since returns the earliest update time kept, or false when unbounded.
func (r TimeRange) Since(now time.Time) (time.Time, bool) {
	switch r {
	case TimeRangeDay:
		return now.Add(-24 * time.Hour), true
	case TimeRangeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeRangeMonth:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}
