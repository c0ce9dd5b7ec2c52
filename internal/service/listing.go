package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/repo"
)

// ListingService implements business logic for the equipment catalog.
// Compared to the booking engine this is plain field validation and document
// access; the interesting invariant — total_quantity as the single source of
// inventory truth — is enforced by never exposing quantity mutation through
// any booking path.
type ListingService struct {
	listings repo.ListingRepo
}

// NewListingService constructs a ListingService backed by the provided repo.
func NewListingService(r repo.ListingRepo) *ListingService {
	return &ListingService{listings: r}
}

// Create validates and persists a new listing owned by ownerID.
func (s *ListingService) Create(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	applyListingDefaults(&listing)
	if err := validateListing(listing); err != nil {
		return domain.Listing{}, err
	}
	result, err := s.listings.Create(ctx, listing)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single listing by ID.
func (s *ListingService) GetByID(ctx context.Context, id uuid.UUID) (domain.Listing, error) {
	result, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.GetByID: %w", err)
	}
	return result, nil
}

// Search returns one page of listings matching the filter plus the total
// match count. Always returns a non-nil slice so callers can safely range
// over it.
func (s *ListingService) Search(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error) {
	listings, total, err := s.listings.Search(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListingService.Search: %w", err)
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	return listings, total, nil
}

// Update validates and persists changes to an existing listing. Only the
// owner or an admin may update; status and quantity of bookings are never
// touched through this path.
func (s *ListingService) Update(ctx context.Context, caller domain.Identity, listing domain.Listing) (domain.Listing, error) {
	stored, err := s.listings.GetByID(ctx, listing.ID)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", err)
	}
	if stored.OwnerID != caller.UserID && !caller.IsAdmin() {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", domain.ErrForbidden)
	}

	// Ownership is immutable; preserve it regardless of the request body.
	listing.OwnerID = stored.OwnerID

	applyListingDefaults(&listing)
	if err := validateListing(listing); err != nil {
		return domain.Listing{}, err
	}
	result, err := s.listings.Update(ctx, listing)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a listing. Only the owner or an admin may delete.
func (s *ListingService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	stored, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.ListingService.Delete: %w", err)
	}
	if stored.OwnerID != caller.UserID && !caller.IsAdmin() {
		return fmt.Errorf("service.ListingService.Delete: %w", domain.ErrForbidden)
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ListingService.Delete: %w", err)
	}
	return nil
}

// applyListingDefaults fills optional fields the way the catalog expects them.
func applyListingDefaults(l *domain.Listing) {
	if strings.TrimSpace(l.Condition) == "" {
		l.Condition = "Excellent"
	}
}

// validateListing enforces business rules common to both Create and Update.
func validateListing(l domain.Listing) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(l.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if strings.TrimSpace(l.EquipmentType) == "" {
		return fmt.Errorf("%w: equipment type is required", domain.ErrValidation)
	}
	if strings.TrimSpace(l.Location) == "" {
		return fmt.Errorf("%w: location is required", domain.ErrValidation)
	}
	if l.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if l.DailyRate < 0 || l.WeeklyRate < 0 || l.MonthlyRate < 0 {
		return fmt.Errorf("%w: rental rates cannot be negative", domain.ErrValidation)
	}
	if l.TotalQuantity < 1 {
		return fmt.Errorf("%w: total quantity must be at least 1", domain.ErrValidation)
	}
	return nil
}
