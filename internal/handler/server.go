// Package handler implements the HTTP handlers for the Equiprent API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (booking.go, listing.go, etc.) but all share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/spec"
)

// BookingServicer defines the business operations the booking handlers depend
// on. Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type BookingServicer interface {
	Book(ctx context.Context, renterID, listingID uuid.UUID, quantity int, start, end time.Time) (domain.Booking, error)
	Cancel(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) (domain.Booking, error)
	DeleteHistory(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) error
	CurrentForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	AllForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	AllPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error)
	RequestsForOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error)
}

// ListingServicer defines the business operations the listing handlers depend on.
type ListingServicer interface {
	Create(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Listing, error)
	Search(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error)
	Update(ctx context.Context, caller domain.Identity, listing domain.Listing) (domain.Listing, error)
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}

// UserServicer resolves user records for the token endpoint, which refuses to
// mint tokens for user IDs that do not exist. Satisfied by repo.UserRepo.
type UserServicer interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// TokenIssuer signs a short-lived access token for the given identity.
// Satisfied by middleware.IssueToken via a small closure in main.
type TokenIssuer func(id domain.Identity, ttl time.Duration) (string, error)

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	bookings BookingServicer
	listings ListingServicer
	users    UserServicer
	issue    TokenIssuer
	auth     func(http.Handler) http.Handler
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies. auth is the
// token-verifying middleware applied to every route that requires a caller
// identity; public catalog reads and infra routes bypass it.
func NewServer(bookings BookingServicer, listings ListingServicer, users UserServicer, issue TokenIssuer, auth func(http.Handler) http.Handler, log *slog.Logger) *Server {
	return &Server{
		bookings: bookings,
		listings: listings,
		users:    users,
		issue:    issue,
		auth:     auth,
		log:      log,
	}
}

// Routes returns the router for the full API surface. Outer middleware
// (request ID, logging, CORS, body limits) is wired by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/openapi.yaml", s.handleOpenAPI)
	r.Post("/api/auth/token", s.handleIssueToken)

	r.Route("/api/listings", func(r chi.Router) {
		r.Get("/", s.handleSearchListings)
		r.Get("/{id}", s.handleGetListing)

		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Post("/", s.handleCreateListing)
			r.Put("/{id}", s.handleUpdateListing)
			r.Delete("/{id}", s.handleDeleteListing)
		})
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/book-package/{listingId}", s.handleBook)
		r.Post("/cancel-booking/{id}", s.handleCancelBooking)
		r.Delete("/delete-booking-history/{id}", s.handleDeleteBookingHistory)
		r.Get("/current/{userId}", s.handleCurrentForUser)
		r.Get("/all", s.handleAllBookings)
		r.Get("/user-current/{id}", s.handleUserCurrent)
		r.Get("/user-all/{id}", s.handleUserAll)
		r.Get("/requests/{ownerId}", s.handleRequestsForOwner)
	})

	return r
}

// handleHealth handles GET /health.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOpenAPI serves the embedded OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}
