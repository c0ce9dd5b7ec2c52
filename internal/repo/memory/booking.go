package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
)

// BookingRepo is the in-memory implementation of repo.BookingRepo.
// All operations run under the store's single mutex, which is a stronger
// serialization than Postgres' per-listing FOR UPDATE but preserves the same
// observable semantics: check-then-insert is atomic per listing.
type BookingRepo struct {
	store *Store
}

func (r *BookingRepo) Create(_ context.Context, booking domain.Booking) (domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	listing, ok := r.store.listings[booking.ListingID]
	if !ok {
		return domain.Booking{}, fmt.Errorf("memory.BookingRepo.Create: %w", domain.ErrNotFound)
	}

	reserved := 0
	for _, rec := range r.store.bookings {
		b := rec.booking
		if b.ListingID == booking.ListingID && !b.Status.IsTerminal() &&
			b.Overlaps(booking.StartDate, booking.EndDate) {
			reserved += b.Quantity
		}
	}
	if reserved+booking.Quantity > listing.TotalQuantity {
		return domain.Booking{}, fmt.Errorf("memory.BookingRepo.Create: %w", domain.ErrCapacityConflict)
	}

	booking.ID = uuid.New()
	booking.Status = domain.StatusRequested
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	r.store.seq++
	r.store.bookings[booking.ID] = bookingRecord{booking: booking, seq: r.store.seq}
	return booking, nil
}

func (r *BookingRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("memory.BookingRepo.GetByID: %w", domain.ErrNotFound)
	}
	return rec.booking, nil
}

func (r *BookingRepo) Transition(_ context.Context, id uuid.UUID, to domain.BookingStatus) (domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("memory.BookingRepo.Transition: %w", domain.ErrNotFound)
	}
	if !rec.booking.Status.CanTransitionTo(to) {
		return domain.Booking{}, fmt.Errorf("memory.BookingRepo.Transition: %w", domain.ErrInvalidTransition)
	}
	rec.booking.Status = to
	rec.booking.UpdatedAt = time.Now().UTC()
	r.store.bookings[id] = rec
	return rec.booking, nil
}

func (r *BookingRepo) DeleteTerminal(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.bookings[id]
	if !ok {
		return fmt.Errorf("memory.BookingRepo.DeleteTerminal: %w", domain.ErrNotFound)
	}
	if !rec.booking.Status.IsTerminal() {
		return fmt.Errorf("memory.BookingRepo.DeleteTerminal: %w", domain.ErrInvalidTransition)
	}
	delete(r.store.bookings, id)
	return nil
}

func (r *BookingRepo) ListOverlapping(_ context.Context, listingID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	return r.collect(func(b domain.Booking) bool {
		return b.ListingID == listingID && !b.Status.IsTerminal() && b.Overlaps(start, end)
	}), nil
}

func (r *BookingRepo) ListByRenter(_ context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	return r.collect(func(b domain.Booking) bool {
		return b.RenterID == renterID
	}), nil
}

func (r *BookingRepo) ListCurrentByRenter(_ context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	return r.collect(func(b domain.Booking) bool {
		return b.RenterID == renterID && !b.Status.IsTerminal()
	}), nil
}

func (r *BookingRepo) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	all := r.collect(func(domain.Booking) bool { return true })

	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *BookingRepo) ListRequestsForOwner(_ context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var recs []bookingRecord
	for _, rec := range r.store.bookings {
		listing, ok := r.store.listings[rec.booking.ListingID]
		if ok && listing.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	sortRecords(recs)

	out := make([]domain.BookingWithRenter, 0, len(recs))
	for _, rec := range recs {
		renter := r.store.users[rec.booking.RenterID]
		out = append(out, domain.BookingWithRenter{
			Booking:     rec.booking,
			RenterName:  renter.Name,
			RenterEmail: renter.Email,
		})
	}
	return out, nil
}

func (r *BookingRepo) ActivateDue(_ context.Context, today time.Time) (int64, error) {
	return r.sweep(domain.StatusRequested, domain.StatusActive, func(b domain.Booking) bool {
		return !b.StartDate.After(today)
	}), nil
}

func (r *BookingRepo) CompleteElapsed(_ context.Context, today time.Time) (int64, error) {
	return r.sweep(domain.StatusActive, domain.StatusCompleted, func(b domain.Booking) bool {
		return b.EndDate.Before(today)
	}), nil
}

func (r *BookingRepo) sweep(from, to domain.BookingStatus, due func(domain.Booking) bool) int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, rec := range r.store.bookings {
		if rec.booking.Status == from && due(rec.booking) {
			rec.booking.Status = to
			rec.booking.UpdatedAt = time.Now().UTC()
			r.store.bookings[id] = rec
			n++
		}
	}
	return n
}

// collect returns matching bookings ordered by creation, newest first.
func (r *BookingRepo) collect(match func(domain.Booking) bool) []domain.Booking {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var recs []bookingRecord
	for _, rec := range r.store.bookings {
		if match(rec.booking) {
			recs = append(recs, rec)
		}
	}
	sortRecords(recs)

	out := make([]domain.Booking, len(recs))
	for i, rec := range recs {
		out[i] = rec.booking
	}
	return out
}

func sortRecords(recs []bookingRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
}

// containsFold reports whether substr occurs in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
