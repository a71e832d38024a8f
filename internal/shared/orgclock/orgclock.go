// Package orgclock buckets timestamps into the fixed organizational
// timezone. Attendance days and timesheet months are keyed by this zone, not
// by the server's local time or the caller's.
package orgclock

import (
	"os"
	"sync"
	"time"
)

const defaultZone = "Asia/Kolkata"

var (
	loadOnce sync.Once
	loc      *time.Location
)

// Location returns the organizational timezone, configured via ORG_TIMEZONE.
func Location() *time.Location {
	loadOnce.Do(func() {
		name := os.Getenv("ORG_TIMEZONE")
		if name == "" {
			name = defaultZone
		}
		l, err := time.LoadLocation(name)
		if err != nil {
			l = time.FixedZone("IST", 5*3600+1800)
		}
		loc = l
	})
	return loc
}

// DayOf returns midnight of t's calendar day in the organizational zone.
func DayOf(t time.Time) time.Time {
	y, m, d := t.In(Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Location())
}

// MonthOf formats t's month key as "YYYY-MM" in the organizational zone.
func MonthOf(t time.Time) string {
	return t.In(Location()).Format("2006-01")
}

// MonthRange resolves a "YYYY-MM" key to its inclusive day range.
func MonthRange(month string) (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01", month, Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end, nil
}
