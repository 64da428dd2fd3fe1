package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MacJediWizard/subdash/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestEndDate(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		duration int
		unit     models.DurationType
		want     time.Time
	}{
		{"one month is thirty days", date(2024, 1, 1), 1, models.DurationMonth, date(2024, 1, 31)},
		{"one year is 365 days in a leap year", date(2024, 1, 1), 1, models.DurationYear, date(2024, 12, 31)},
		{"two weeks", date(2024, 3, 1), 2, models.DurationWeek, date(2024, 3, 15)},
		{"seven days", date(2024, 2, 25), 7, models.DurationDay, date(2024, 3, 3)},
		{"zero duration", date(2024, 5, 5), 0, models.DurationDay, date(2024, 5, 5)},
		{"unknown unit leaves start", date(2024, 5, 5), 3, models.DurationType("fortnight"), date(2024, 5, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndDate(tt.start, tt.duration, tt.unit)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same day", date(2024, 6, 10), 0},
		{"same day later hour", time.Date(2024, 6, 10, 23, 59, 0, 0, time.Local), 0},
		{"tomorrow", date(2024, 6, 11), 1},
		{"yesterday", date(2024, 6, 9), -1},
		{"week away", date(2024, 6, 17), 7},
		{"eight days away", date(2024, 6, 18), 8},
		{"zero end", time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilExpiry(tt.end, now))
		})
	}
}

func TestDaysUntilExpiryAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysUntilExpiry(end, now))

	now = time.Date(2024, 11, 2, 12, 0, 0, 0, loc)
	end = time.Date(2024, 11, 4, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysUntilExpiry(end, now))
}

func TestStatus(t *testing.T) {
	now := date(2024, 6, 10)

	tests := []struct {
		name string
		end  time.Time
		want models.CustomerStatus
	}{
		{"eight days is active", date(2024, 6, 18), models.CustomerStatusActive},
		{"seven days is expiring soon", date(2024, 6, 17), models.CustomerStatusExpiringSoon},
		{"today is expiring soon", date(2024, 6, 10), models.CustomerStatusExpiringSoon},
		{"yesterday is expired", date(2024, 6, 9), models.CustomerStatusExpired},
		{"invalid end date is expiring soon", time.Time{}, models.CustomerStatusExpiringSoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.end, now))
		})
	}
}

func TestSchedule(t *testing.T) {
	pkg := &models.Package{Duration: 1, DurationType: models.DurationMonth}
	c := &models.Customer{}

	Schedule(c, pkg, date(2024, 1, 1), date(2024, 1, 20))

	assert.True(t, c.StartDate.Time().Equal(date(2024, 1, 1)))
	assert.True(t, c.EndDate.Time().Equal(date(2024, 1, 31)))
	assert.Equal(t, models.CustomerStatusActive, c.Status)

	Schedule(c, pkg, date(2024, 1, 1), date(2024, 1, 25))
	assert.Equal(t, models.CustomerStatusExpiringSoon, c.Status)

	Schedule(c, pkg, date(2024, 1, 1), date(2024, 2, 1))
	assert.Equal(t, models.CustomerStatusExpired, c.Status)
}
