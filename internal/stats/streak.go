package stats

import (
	"sort"
	"time"
)

// Streak counts consecutive calendar days with at least one attempt, ending
// today or yesterday. Dates are taken in now's location. A most recent
// attempt older than yesterday breaks the streak.
func Streak(timestamps []time.Time, now time.Time) int {
	if len(timestamps) == 0 {
		return 0
	}
	loc := now.Location()
	seen := make(map[time.Time]struct{}, len(timestamps))
	days := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		d := dayOf(ts.In(loc))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := dayOf(now)
	yesterday := prevDay(today)
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		return 0
	}

	streak := 1
	expected := prevDay(days[0])
	for _, d := range days[1:] {
		if !d.Equal(expected) {
			break
		}
		streak++
		expected = prevDay(d)
	}
	return streak
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// prevDay steps back one calendar day; time.Date normalises across DST and
// month boundaries.
func prevDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, t.Location())
}
