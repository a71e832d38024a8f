package leave

import "time"

// CalculateDays walks every calendar day from start through end inclusive.
// A working day always counts. A weekend or holiday counts only when the
// policy's sandwich rule is on, so a Friday-to-Monday request costs four
// days under the rule and two without it.
func CalculateDays(start, end time.Time, cfg Config, holidays []Holiday) float64 {
	if end.Before(start) {
		return 0
	}

	holidaySet := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date.Format("2006-01-02")] = struct{}{}
	}

	days := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWorkingDay(d, holidaySet) || cfg.SandwichRule {
			days++
		}
	}
	return days
}

func isWorkingDay(d time.Time, holidays map[string]struct{}) bool {
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	_, holiday := holidays[d.Format("2006-01-02")]
	return !holiday
}
