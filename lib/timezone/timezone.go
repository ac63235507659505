package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in Paris, the portal publishes declarations on
// french business days regardless of where the daemon runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// NextAt returns the first instant strictly after `now` whose hour (in
// Paris) is one of `hours`, at minute 0. It returns the zero time when no
// hour in 0..23 is given.
func NextAt(now time.Time, hours []int) time.Time {
	now = now.In(Location)
	var next time.Time
	for _, h := range hours {
		if h < 0 || h > 23 {
			continue
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, Location)
		if !candidate.After(now) {
			candidate = time.Date(now.Year(), now.Month(), now.Day()+1, h, 0, 0, 0, Location)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}
