package dashboard

import (
	"testing"
	"time"

	"insights/internal/core"
)

func TestTrailingPeriodsMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	periods := TrailingPeriods(core.Month, now)
	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	wantLabels := []string{"2024-01", "2024-02", "2024-03"}
	for i, p := range periods {
		if p.Label != wantLabels[i] {
			t.Fatalf("period %d: expected label %q, got %q", i, wantLabels[i], p.Label)
		}
	}
	if got := periods[0].Start; got != time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected first start %v", got)
	}
	if !periods[1].Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)) {
		t.Fatalf("leap day must fall inside February bucket")
	}
}

func TestTrailingPeriodsMonthNoDayClamp(t *testing.T) {
	// 3 months back from March 31 is January, not a clamped early March.
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	periods := TrailingPeriods(core.Month, now)
	if periods[0].Label != "2024-01" {
		t.Fatalf("expected 2024-01, got %q", periods[0].Label)
	}
}

func TestTrailingPeriodsQuarter(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	periods := TrailingPeriods(core.Quarter, now)
	wantLabels := []string{"2023-Q3", "2023-Q4", "2024-Q1"}
	for i, p := range periods {
		if p.Label != wantLabels[i] {
			t.Fatalf("period %d: expected label %q, got %q", i, wantLabels[i], p.Label)
		}
	}
	// Q4 span runs from the bucket's own start month, 3 whole months.
	if periods[1].Start.Month() != time.November {
		t.Fatalf("expected Q4 bucket to start in November, got %v", periods[1].Start)
	}
}

func TestTrailingPeriodsYear(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periods := TrailingPeriods(core.Year, now)
	wantLabels := []string{"2022", "2023", "2024"}
	for i, p := range periods {
		if p.Label != wantLabels[i] {
			t.Fatalf("period %d: expected label %q, got %q", i, wantLabels[i], p.Label)
		}
	}
	if !periods[2].Contains(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("year bucket must cover December 31")
	}
}

func TestTrailingPeriodsWeekFallsBackToMonths(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	week := TrailingPeriods(core.Week, now)
	month := TrailingPeriods(core.Month, now)
	for i := range week {
		if week[i] != month[i] {
			t.Fatalf("period %d: WEEK should alias MONTH, got %+v vs %+v", i, week[i], month[i])
		}
	}
}
