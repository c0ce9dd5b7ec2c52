package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the caller's permission level, carried in the JWT and checked by
// handlers before admin-only operations.
type Role string

const (
	RoleRenter Role = "renter"
	RoleAdmin  Role = "admin"
)

// User is the minimal identity record the booking engine needs: enough to own
// bookings and listings, and to populate the admin dashboard's renter join.
// Authentication itself belongs to the identity collaborator.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// BookingWithRenter is a booking joined with the identity of the renter who
// requested it, for the listing owner's dashboard.
type BookingWithRenter struct {
	Booking
	RenterName  string `json:"renter_name"`
	RenterEmail string `json:"renter_email"`
}
