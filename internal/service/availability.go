// Package service contains the business logic for the Equiprent API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/repo"
)

// AvailabilityService answers "how many units of a listing are free during a
// window?". Availability is always derived live from the booking ledger: the
// sum of quantities over non-terminal bookings overlapping the window is
// charged against the listing's total quantity. There is no cached counter to
// drift out of sync.
//
// The check is conservative: any overlap at all charges the booking's full
// quantity against the whole requested window. A physical unit cannot be
// split between simultaneous renters even when their sub-ranges only
// partially overlap.
type AvailabilityService struct {
	listings repo.ListingRepo
	bookings repo.BookingRepo
}

// NewAvailabilityService constructs an AvailabilityService over the given repos.
func NewAvailabilityService(listings repo.ListingRepo, bookings repo.BookingRepo) *AvailabilityService {
	return &AvailabilityService{listings: listings, bookings: bookings}
}

// FreeUnits returns the number of units of the listing still reservable over
// the inclusive range [start, end]. A zero-length range (start == end) is a
// valid one-day window. Returns domain.ErrNotFound if the listing does not
// resolve.
func (s *AvailabilityService) FreeUnits(ctx context.Context, listingID uuid.UUID, start, end time.Time) (int, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return 0, fmt.Errorf("service.AvailabilityService.FreeUnits: %w", err)
	}

	overlapping, err := s.bookings.ListOverlapping(ctx, listingID, domain.Date(start), domain.Date(end))
	if err != nil {
		return 0, fmt.Errorf("service.AvailabilityService.FreeUnits: %w", err)
	}

	reserved := 0
	for _, b := range overlapping {
		reserved += b.Quantity
	}

	free := listing.TotalQuantity - reserved
	if free < 0 {
		// Never expected given the write-side guard; clamp rather than
		// report negative availability.
		free = 0
	}
	return free, nil
}

// IsFree reports whether quantity units are reservable over [start, end].
func (s *AvailabilityService) IsFree(ctx context.Context, listingID uuid.UUID, quantity int, start, end time.Time) (bool, error) {
	free, err := s.FreeUnits(ctx, listingID, start, end)
	if err != nil {
		return false, err
	}
	return quantity <= free, nil
}
