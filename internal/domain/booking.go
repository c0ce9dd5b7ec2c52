// Package domain contains the core data types for the Equiprent API.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
// Transitions are monotonic: once a booking reaches a terminal status
// (Completed or Cancelled) no further transition is permitted.
type BookingStatus string

const (
	// StatusRequested is the initial status of every booking.
	StatusRequested BookingStatus = "requested"
	// StatusActive means the booking's window has begun (start date reached).
	StatusActive BookingStatus = "active"
	// StatusCompleted means the booking's window has fully elapsed. Terminal.
	StatusCompleted BookingStatus = "completed"
	// StatusCancelled means the renter or an admin cancelled the booking. Terminal.
	StatusCancelled BookingStatus = "cancelled"
)

// NonTerminalStatuses are the statuses that hold reserved capacity.
// The availability calculator sums quantities over bookings in these statuses
// only, so cancelling or completing a booking releases its units immediately.
var NonTerminalStatuses = []BookingStatus{StatusRequested, StatusActive}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the edge s → next exists in the state machine:
//
//	requested → active      (window has begun)
//	active    → completed   (window has elapsed)
//	requested → cancelled
//	active    → cancelled
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusRequested:
		return next == StatusActive || next == StatusCancelled
	case StatusActive:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Booking is a reservation of some quantity of a listing over an inclusive
// date range. Quantity is fixed at creation; cancellation is all-or-nothing.
type Booking struct {
	ID        uuid.UUID     `json:"id"`
	ListingID uuid.UUID     `json:"listing_id"`
	RenterID  uuid.UUID     `json:"renter_id"`
	Quantity  int           `json:"quantity"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"` // inclusive; equal to StartDate for a one-day booking
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsHistory reports whether the booking belongs to the renter's history view:
// either it has reached a terminal status or its window has fully elapsed.
func (b Booking) IsHistory(now time.Time) bool {
	return b.Status.IsTerminal() || b.EndDate.Before(Date(now))
}

// EffectiveStatus returns the status the booking should hold at the given
// instant, advancing requested → active once the window has begun and
// active → completed once it has elapsed. The stored status may lag behind
// between sweep runs; read paths use this to present the real-world state.
func (b Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Status.IsTerminal() {
		return b.Status
	}
	today := Date(now)
	if b.EndDate.Before(today) {
		return StatusCompleted
	}
	if b.Status == StatusRequested && !b.StartDate.After(today) {
		return StatusActive
	}
	return b.Status
}

// Overlaps reports whether the booking's date range competes with [start, end]
// for the same inventory. Boundaries are inclusive on both sides: a booking
// ending on day 10 and one starting on day 10 overlap, because a unit is
// occupied through the whole of its last day.
func (b Booking) Overlaps(start, end time.Time) bool {
	return !b.StartDate.After(end) && !b.EndDate.Before(start)
}

// Date truncates t to midnight UTC. Bookings are accounted at daily
// granularity, so all date comparisons normalize through this first.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
