package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/verbavox/internal/model"
)

// Period is a rolling reporting window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Periods lists the windows in cycling order.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// ParsePeriod accepts the period names plus the weekly/monthly/all-time aliases.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all-time", "alltime":
		return PeriodAll, nil
	case "week", "weekly":
		return PeriodWeek, nil
	case "month", "monthly":
		return PeriodMonth, nil
	case "year", "yearly":
		return PeriodYear, nil
	}
	return "", fmt.Errorf("unknown period %q (use week, month, year or all)", s)
}

// Since returns the window start relative to now, or nil for all time.
func (p Period) Since(now time.Time) *time.Time {
	var t time.Time
	switch p {
	case PeriodWeek:
		t = now.AddDate(0, 0, -7)
	case PeriodMonth:
		t = now.AddDate(0, -1, 0)
	case PeriodYear:
		t = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &t
}

// Label is the display name.
func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "Last Week"
	case PeriodMonth:
		return "Last Month"
	case PeriodYear:
		return "Last Year"
	default:
		return "All Time"
	}
}

// Next cycles forward through Periods.
func (p Period) Next() Period {
	return Periods[(p.index()+1)%len(Periods)]
}

// Prev cycles backward through Periods.
func (p Period) Prev() Period {
	return Periods[(p.index()+len(Periods)-1)%len(Periods)]
}

func (p Period) index() int {
	for i, v := range Periods {
		if v == p {
			return i
		}
	}
	return len(Periods) - 1
}

// FilterSince keeps attempts completed at or after since. A nil since keeps all.
func FilterSince(results []model.AttemptResult, since *time.Time) []model.AttemptResult {
	if since == nil {
		return results
	}
	out := make([]model.AttemptResult, 0, len(results))
	for _, r := range results {
		if !r.CompletedAt.Before(*since) {
			out = append(out, r)
		}
	}
	return out
}
