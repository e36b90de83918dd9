// Package dashboard builds the per-request summary: trailing reporting
// buckets, cashflow rollups, category breakdown, and the budget and savings
// snapshots. It is a pure function over the stored transactions so both
// store backends share one implementation.
package dashboard

import (
	"fmt"
	"time"

	"insights/internal/core"
)

// bucketCount is fixed: every summary reports exactly 3 trailing buckets.
const bucketCount = 3

// Period is one reporting bucket with an inclusive [Start,End] range.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// TrailingPeriods builds the trailing buckets ending at now. MONTH yields
// whole months labeled yyyy-MM, QUARTER 3-month spans labeled yyyy-Qn, YEAR
// calendar years labeled yyyy. Any other timeframe (WEEK included) falls
// back to trailing whole months.
func TrailingPeriods(tf core.Timeframe, now time.Time) []Period {
	periods := make([]Period, 0, bucketCount)
	monthStart := startOfMonth(now)

	switch tf {
	case core.Month:
		for i := bucketCount - 1; i >= 0; i-- {
			start := monthStart.AddDate(0, -i, 0)
			periods = append(periods, Period{
				Start: start,
				End:   endOfMonth(start),
				Label: start.Format("2006-01"),
			})
		}
	case core.Quarter:
		for i := bucketCount - 1; i >= 0; i-- {
			start := monthStart.AddDate(0, -i*3, 0)
			end := endOfMonth(start.AddDate(0, 2, 0))
			quarter := (int(start.Month()) + 2) / 3
			periods = append(periods, Period{
				Start: start,
				End:   end,
				Label: fmt.Sprintf("%d-Q%d", start.Year(), quarter),
			})
		}
	case core.Year:
		for i := bucketCount - 1; i >= 0; i-- {
			year := now.Year() - i
			start := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
			periods = append(periods, Period{
				Start: start,
				End:   endOfMonth(time.Date(year, time.December, 1, 0, 0, 0, 0, now.Location())),
				Label: start.Format("2006"),
			})
		}
	default:
		start := monthStart.AddDate(0, -(bucketCount - 1), 0)
		for i := 0; i < bucketCount; i++ {
			periodStart := start.AddDate(0, i, 0)
			periods = append(periods, Period{
				Start: periodStart,
				End:   endOfMonth(periodStart),
				Label: periodStart.Format("2006-01"),
			})
		}
	}
	return periods
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// endOfMonth returns the last representable instant of the month holding t.
func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}
