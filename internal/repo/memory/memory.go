// Package memory provides in-memory implementations of the repo interfaces.
// They back service unit tests and the concurrency property tests, which need
// a real (not mocked) ledger to race against without a database. Semantics
// mirror the Postgres implementations, including the capacity re-check on
// booking creation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
)

// Store is the shared backing state for the in-memory repos. One Store plays
// the role of one database: construct it once and hand its repos around.
type Store struct {
	mu       sync.Mutex
	seq      int64 // creation order tiebreaker for equal timestamps
	users    map[uuid.UUID]domain.User
	listings map[uuid.UUID]domain.Listing
	bookings map[uuid.UUID]bookingRecord
}

type bookingRecord struct {
	booking domain.Booking
	seq     int64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		listings: make(map[uuid.UUID]domain.Listing),
		bookings: make(map[uuid.UUID]bookingRecord),
	}
}

// Users returns the in-memory UserRepo view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{store: s} }

// Listings returns the in-memory ListingRepo view of the store.
func (s *Store) Listings() *ListingRepo { return &ListingRepo{store: s} }

// Bookings returns the in-memory BookingRepo view of the store.
func (s *Store) Bookings() *BookingRepo { return &BookingRepo{store: s} }

// UserRepo is the in-memory implementation of repo.UserRepo.
type UserRepo struct {
	store *Store
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("memory.UserRepo.GetByID: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (r *UserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.store.users[user.ID] = user
	return user, nil
}

// ListingRepo is the in-memory implementation of repo.ListingRepo.
type ListingRepo struct {
	store *Store
}

func (r *ListingRepo) Create(_ context.Context, listing domain.Listing) (domain.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	r.store.listings[listing.ID] = listing
	return listing, nil
}

func (r *ListingRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	l, ok := r.store.listings[id]
	if !ok {
		return domain.Listing{}, fmt.Errorf("memory.ListingRepo.GetByID: %w", domain.ErrNotFound)
	}
	return l, nil
}

func (r *ListingRepo) Search(_ context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.Listing
	for _, l := range r.store.listings {
		if !matchesFilter(l, f) {
			continue
		}
		matched = append(matched, l)
	}

	sort.Slice(matched, func(i, j int) bool {
		less := listingLess(matched[i], matched[j], f.SortBy)
		if f.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *ListingRepo) Update(_ context.Context, listing domain.Listing) (domain.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.listings[listing.ID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("memory.ListingRepo.Update: %w", domain.ErrNotFound)
	}
	listing.CreatedAt = stored.CreatedAt
	listing.UpdatedAt = time.Now().UTC()
	r.store.listings[listing.ID] = listing
	return listing, nil
}

func (r *ListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.listings[id]; !ok {
		return fmt.Errorf("memory.ListingRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.store.listings, id)
	return nil
}

func matchesFilter(l domain.Listing, f domain.ListingFilter) bool {
	if f.Available != nil && l.IsAvailable != *f.Available {
		return false
	}
	if f.SearchTerm == "" {
		return true
	}
	return containsFold(l.Name, f.SearchTerm) || containsFold(l.Location, f.SearchTerm)
}

func listingLess(a, b domain.Listing, sortBy string) bool {
	switch sortBy {
	case "daily_rate":
		return a.DailyRate < b.DailyRate
	case "name":
		return a.Name < b.Name
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
