package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/lock"
	"github.com/tbardin/equiprent/internal/repo"
)

// capacityRetries bounds how many times a lost capacity race is retried
// before surfacing to the caller as ErrCapacityExceeded. Conflicts are only
// expected when several server instances share one database, so the bound is
// small and the delay short.
const capacityRetries = 3

// BookingService implements the booking lifecycle: create, cancel, delete
// history, and the read-side views. It owns the critical section that keeps
// a listing from being oversold: a per-listing mutex held across the
// availability check and the ledger insert, backed by the ledger's own
// commit-time capacity re-check.
type BookingService struct {
	bookings     repo.BookingRepo
	listings     repo.ListingRepo
	availability *AvailabilityService
	locks        *lock.KeyedMutex
}

// NewBookingService constructs a BookingService backed by the provided repos.
func NewBookingService(bookings repo.BookingRepo, listings repo.ListingRepo) *BookingService {
	return &BookingService{
		bookings:     bookings,
		listings:     listings,
		availability: NewAvailabilityService(listings, bookings),
		locks:        lock.NewKeyedMutex(),
	}
}

// Availability exposes the calculator for read-only capacity queries.
func (s *BookingService) Availability() *AvailabilityService {
	return s.availability
}

// Book reserves quantity units of the listing over the inclusive range
// [start, end] and returns the new booking in status requested.
//
// Returns domain.ErrValidation for malformed input, domain.ErrNotFound if the
// listing does not resolve, and domain.ErrCapacityExceeded if the requested
// quantity is not free for the window.
func (s *BookingService) Book(ctx context.Context, renterID, listingID uuid.UUID, quantity int, start, end time.Time) (domain.Booking, error) {
	draft := domain.Booking{
		ListingID: listingID,
		RenterID:  renterID,
		Quantity:  quantity,
		StartDate: domain.Date(start),
		EndDate:   domain.Date(end),
	}
	if err := validateBooking(draft); err != nil {
		return domain.Booking{}, err
	}

	// Resolve the listing before taking the lock so unknown listings fail
	// fast without serializing behind real traffic.
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Book: %w", err)
	}

	// Critical section: for a fixed listing, no two requests may interleave
	// between observing free capacity and persisting the booking.
	s.locks.Lock(listingID)
	defer s.locks.Unlock(listingID)

	free, err := s.availability.FreeUnits(ctx, listingID, draft.StartDate, draft.EndDate)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Book: %w", err)
	}
	if quantity > free {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Book: %w", domain.ErrCapacityExceeded)
	}

	// The ledger re-validates capacity at commit time. A conflict here means
	// another writer (outside this process) won the race; retry a bounded
	// number of times, then report the window as full.
	var created domain.Booking
	backoff := retry.WithMaxRetries(capacityRetries, retry.NewConstant(25*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var createErr error
		created, createErr = s.bookings.Create(ctx, draft)
		if errors.Is(createErr, domain.ErrCapacityConflict) {
			return retry.RetryableError(createErr)
		}
		return createErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityConflict) {
			return domain.Booking{}, fmt.Errorf("service.BookingService.Book: %w", domain.ErrCapacityExceeded)
		}
		return domain.Booking{}, fmt.Errorf("service.BookingService.Book: %w", err)
	}
	return created, nil
}

// Cancel transitions a booking to cancelled on behalf of its renter or an
// admin. Cancellation is all-or-nothing and releases the reserved units
// immediately: availability sums only consider non-terminal statuses.
//
// Returns domain.ErrNotFound if the booking is absent, domain.ErrForbidden if
// the caller neither owns it nor is an admin, and domain.ErrInvalidTransition
// if the booking is already terminal.
func (s *BookingService) Cancel(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) (domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	if booking.RenterID != caller.UserID && !caller.IsAdmin() {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", domain.ErrForbidden)
	}

	// The conditional transition is the idempotency guard: a concurrent
	// double-cancel loses the conditional update and reports
	// ErrInvalidTransition instead of corrupting state.
	cancelled, err := s.bookings.Transition(ctx, bookingID, domain.StatusCancelled)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	return cancelled, nil
}

// DeleteHistory permanently removes a terminal booking from the ledger. This
// is the only destructive ledger operation and is restricted to the owning
// renter or an admin.
//
// Returns domain.ErrNotFound if absent, domain.ErrForbidden for other
// callers, and domain.ErrInvalidTransition while the booking is still
// requested or active.
func (s *BookingService) DeleteHistory(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("service.BookingService.DeleteHistory: %w", err)
	}
	if booking.RenterID != caller.UserID && !caller.IsAdmin() {
		return fmt.Errorf("service.BookingService.DeleteHistory: %w", domain.ErrForbidden)
	}

	if err := s.bookings.DeleteTerminal(ctx, bookingID); err != nil {
		return fmt.Errorf("service.BookingService.DeleteHistory: %w", err)
	}
	return nil
}

// CurrentForUser returns the user's non-terminal bookings, newest first.
// Stored statuses may lag the clock between sweep runs, so each booking is
// presented at its effective status.
func (s *BookingService) CurrentForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListCurrentByRenter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.CurrentForUser: %w", err)
	}
	return withEffectiveStatus(bookings), nil
}

// AllForUser returns every booking for the user, history included, newest first.
func (s *BookingService) AllForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByRenter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.AllForUser: %w", err)
	}
	return withEffectiveStatus(bookings), nil
}

// AllPaged returns one page of all bookings (admin view) plus the total count.
func (s *BookingService) AllPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	bookings, total, err := s.bookings.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.BookingService.AllPaged: %w", err)
	}
	return withEffectiveStatus(bookings), total, nil
}

// RequestsForOwner returns bookings against the owner's listings joined with
// the requesting renter's identity, newest first.
func (s *BookingService) RequestsForOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error) {
	requests, err := s.bookings.ListRequestsForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.RequestsForOwner: %w", err)
	}
	now := time.Now()
	for i := range requests {
		requests[i].Status = requests[i].EffectiveStatus(now)
	}
	return requests, nil
}

// ActivateDue advances requested bookings whose window has begun, then
// CompleteElapsed retires active bookings whose window has passed. The
// scheduler drives both; read paths do not depend on them for correctness.
func (s *BookingService) ActivateDue(ctx context.Context) (int64, error) {
	n, err := s.bookings.ActivateDue(ctx, domain.Date(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.ActivateDue: %w", err)
	}
	return n, nil
}

// CompleteElapsed retires active bookings whose end date has passed.
func (s *BookingService) CompleteElapsed(ctx context.Context) (int64, error) {
	n, err := s.bookings.CompleteElapsed(ctx, domain.Date(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.CompleteElapsed: %w", err)
	}
	return n, nil
}

// validateBooking enforces the booking input rules:
//   - both references must be present,
//   - quantity must be at least 1,
//   - both dates must be set and start must not be after end
//     (start == end is a valid one-day booking).
func validateBooking(b domain.Booking) error {
	if b.ListingID == uuid.Nil {
		return fmt.Errorf("%w: listing id is required", domain.ErrValidation)
	}
	if b.RenterID == uuid.Nil {
		return fmt.Errorf("%w: renter id is required", domain.ErrValidation)
	}
	if b.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", domain.ErrValidation)
	}
	if b.StartDate.After(b.EndDate) {
		return fmt.Errorf("%w: start date must not be after end date", domain.ErrValidation)
	}
	return nil
}

// withEffectiveStatus maps stored statuses to their effective values for
// presentation without mutating the ledger.
func withEffectiveStatus(bookings []domain.Booking) []domain.Booking {
	if bookings == nil {
		return []domain.Booking{}
	}
	now := time.Now()
	for i := range bookings {
		bookings[i].Status = bookings[i].EffectiveStatus(now)
	}
	return bookings
}
