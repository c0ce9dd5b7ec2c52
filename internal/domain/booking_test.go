package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tbardin/equiprent/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to domain.BookingStatus
		want     bool
	}{
		{domain.StatusRequested, domain.StatusActive, true},
		{domain.StatusRequested, domain.StatusCancelled, true},
		{domain.StatusRequested, domain.StatusCompleted, false},
		{domain.StatusActive, domain.StatusCompleted, true},
		{domain.StatusActive, domain.StatusCancelled, true},
		{domain.StatusActive, domain.StatusRequested, false},
		{domain.StatusCompleted, domain.StatusCancelled, false},
		{domain.StatusCancelled, domain.StatusActive, false},
		{domain.StatusCancelled, domain.StatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to),
			"%s → %s", tc.from, tc.to)
	}
}

// TestBooking_Overlaps_InclusiveBoundary verifies the daily-granularity rule:
// a booking ending on day 10 still occupies its units for the whole of day 10,
// so a booking starting on day 10 competes with it.
func TestBooking_Overlaps_InclusiveBoundary(t *testing.T) {
	b := domain.Booking{StartDate: day(5), EndDate: day(10)}

	assert.True(t, b.Overlaps(day(10), day(12)), "touching start boundary overlaps")
	assert.True(t, b.Overlaps(day(1), day(5)), "touching end boundary overlaps")
	assert.True(t, b.Overlaps(day(7), day(7)), "one-day range inside window overlaps")
	assert.False(t, b.Overlaps(day(11), day(12)))
	assert.False(t, b.Overlaps(day(1), day(4)))
}

func TestBooking_Overlaps_ZeroLengthRange(t *testing.T) {
	// A one-day booking (start == end) is valid and occupies that day.
	b := domain.Booking{StartDate: day(10), EndDate: day(10)}

	assert.True(t, b.Overlaps(day(10), day(10)))
	assert.False(t, b.Overlaps(day(9), day(9)))
	assert.False(t, b.Overlaps(day(11), day(11)))
}

func TestBooking_EffectiveStatus(t *testing.T) {
	now := day(10)

	cases := []struct {
		name   string
		b      domain.Booking
		expect domain.BookingStatus
	}{
		{"future request stays requested",
			domain.Booking{Status: domain.StatusRequested, StartDate: day(12), EndDate: day(14)},
			domain.StatusRequested},
		{"started request becomes active",
			domain.Booking{Status: domain.StatusRequested, StartDate: day(10), EndDate: day(14)},
			domain.StatusActive},
		{"elapsed active becomes completed",
			domain.Booking{Status: domain.StatusActive, StartDate: day(1), EndDate: day(9)},
			domain.StatusCompleted},
		{"elapsed request becomes completed",
			domain.Booking{Status: domain.StatusRequested, StartDate: day(1), EndDate: day(9)},
			domain.StatusCompleted},
		{"active ending today stays active",
			domain.Booking{Status: domain.StatusActive, StartDate: day(1), EndDate: day(10)},
			domain.StatusActive},
		{"cancelled is sticky",
			domain.Booking{Status: domain.StatusCancelled, StartDate: day(1), EndDate: day(9)},
			domain.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.b.EffectiveStatus(now))
		})
	}
}

func TestBooking_IsHistory(t *testing.T) {
	now := day(10)

	assert.True(t, domain.Booking{Status: domain.StatusCancelled, EndDate: day(20)}.IsHistory(now))
	assert.True(t, domain.Booking{Status: domain.StatusActive, EndDate: day(9)}.IsHistory(now))
	assert.False(t, domain.Booking{Status: domain.StatusActive, EndDate: day(10)}.IsHistory(now))
	assert.False(t, domain.Booking{Status: domain.StatusRequested, EndDate: day(15)}.IsHistory(now))
}
