// Package subscription computes subscription end dates and expiry status.
package subscription

import (
	"math"
	"time"

	"github.com/MacJediWizard/subdash/internal/models"
)

// ExpiringSoonDays is the inclusive window, in days, in which a subscription
// is reported as expiring soon.
const ExpiringSoonDays = 7

// UnitDays returns the number of days in one unit of d. Unknown units are 0.
func UnitDays(d models.DurationType) int {
	switch d {
	case models.DurationDay:
		return 1
	case models.DurationWeek:
		return 7
	case models.DurationMonth:
		return 30
	case models.DurationYear:
		return 365
	}
	return 0
}

// EndDate returns start advanced by duration units of durationType. Days are
// calendar days in start's location, so a DST change does not shift the
// time of day.
func EndDate(start time.Time, duration int, durationType models.DurationType) time.Time {
	return start.AddDate(0, 0, duration*UnitDays(durationType))
}

// DaysUntilExpiry returns the whole calendar days from now until end, both
// truncated to midnight in now's location. It is negative once end has
// passed. A zero end time, meaning an unparseable stored date, yields 0.
func DaysUntilExpiry(end, now time.Time) int {
	if end.IsZero() {
		return 0
	}
	loc := now.Location()
	diff := calendarDay(end.In(loc)).Sub(calendarDay(now))
	return int(math.Ceil(diff.Hours() / 24))
}

// calendarDay maps t to UTC midnight of its local date so day differences
// are exact multiples of 24h regardless of DST.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Status derives the customer status for a subscription ending at end.
func Status(end, now time.Time) models.CustomerStatus {
	return StatusForDays(DaysUntilExpiry(end, now))
}

// StatusForDays maps days remaining to a status.
func StatusForDays(days int) models.CustomerStatus {
	switch {
	case days < 0:
		return models.CustomerStatusExpired
	case days <= ExpiringSoonDays:
		return models.CustomerStatusExpiringSoon
	default:
		return models.CustomerStatusActive
	}
}

// Schedule fills in the end date and status of c for a subscription to pkg
// starting at start.
func Schedule(c *models.Customer, pkg *models.Package, start, now time.Time) {
	end := EndDate(start, pkg.Duration, pkg.DurationType)
	c.StartDate = models.NewTimestamp(start)
	c.EndDate = models.NewTimestamp(end)
	c.Status = Status(end, now)
}
