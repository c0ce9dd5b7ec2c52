package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a piece of rentable equipment with a finite inventory count and
// fixed per-tier rental rates. The listing's TotalQuantity is the single
// source of truth for inventory: bookings never mutate it, availability is
// always derived live from the booking ledger.
type Listing struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EquipmentType string    `json:"equipment_type"`
	DailyRate     float64   `json:"daily_rate"`
	WeeklyRate    float64   `json:"weekly_rate"`
	MonthlyRate   float64   `json:"monthly_rate"`
	TotalQuantity int       `json:"total_quantity"`
	Condition     string    `json:"condition"`
	Manufacturer  string    `json:"manufacturer,omitempty"`
	ModelYear     int       `json:"model_year"`
	Location      string    `json:"location"`
	RentalTerms   string    `json:"rental_terms,omitempty"`

	// IsAvailable is an advisory flag set by the owner to pull a listing from
	// search results. It does not itself reserve units.
	IsAvailable bool `json:"is_available"`

	// ImageURLs point at the media storage layer; images themselves are
	// opaque blobs served elsewhere.
	ImageURLs []string `json:"image_urls,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListingFilter carries search parameters from the HTTP layer to the repo.
// SearchTerm matches name and location case-insensitively. Available filters
// on the advisory flag: nil means "any availability" — callers that want only
// available listings must pass an explicit true.
type ListingFilter struct {
	SearchTerm string
	Available  *bool
	SortBy     string // "created_at", "daily_rate", or "name"; defaults to "created_at"
	SortDesc   bool
}
