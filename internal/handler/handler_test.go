package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/handler"
	"github.com/tbardin/equiprent/internal/middleware"
)

const testSecret = "test-secret-test-secret-test-sec"

// mockBookingServicer is a test double for handler.BookingServicer.
// Set only the method fields your test needs.
type mockBookingServicer struct {
	book             func(ctx context.Context, renterID, listingID uuid.UUID, quantity int, start, end time.Time) (domain.Booking, error)
	cancel           func(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) (domain.Booking, error)
	deleteHistory    func(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) error
	currentForUser   func(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	allForUser       func(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	allPaged         func(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error)
	requestsForOwner func(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error)
}

func (m *mockBookingServicer) Book(ctx context.Context, renterID, listingID uuid.UUID, quantity int, start, end time.Time) (domain.Booking, error) {
	return m.book(ctx, renterID, listingID, quantity, start, end)
}
func (m *mockBookingServicer) Cancel(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) (domain.Booking, error) {
	return m.cancel(ctx, caller, bookingID)
}
func (m *mockBookingServicer) DeleteHistory(ctx context.Context, caller domain.Identity, bookingID uuid.UUID) error {
	return m.deleteHistory(ctx, caller, bookingID)
}
func (m *mockBookingServicer) CurrentForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return m.currentForUser(ctx, userID)
}
func (m *mockBookingServicer) AllForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return m.allForUser(ctx, userID)
}
func (m *mockBookingServicer) AllPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	return m.allPaged(ctx, p)
}
func (m *mockBookingServicer) RequestsForOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error) {
	return m.requestsForOwner(ctx, ownerID)
}

// mockListingServicer is a test double for handler.ListingServicer.
type mockListingServicer struct {
	create  func(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Listing, error)
	search  func(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error)
	update  func(ctx context.Context, caller domain.Identity, listing domain.Listing) (domain.Listing, error)
	delete  func(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}

func (m *mockListingServicer) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	return m.create(ctx, l)
}
func (m *mockListingServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Listing, error) {
	return m.getByID(ctx, id)
}
func (m *mockListingServicer) Search(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error) {
	return m.search(ctx, f, p)
}
func (m *mockListingServicer) Update(ctx context.Context, caller domain.Identity, l domain.Listing) (domain.Listing, error) {
	return m.update(ctx, caller, l)
}
func (m *mockListingServicer) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	return m.delete(ctx, caller, id)
}

// mockUserServicer is a test double for handler.UserServicer.
type mockUserServicer struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.User, error)
}

func (m *mockUserServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.BookingServicer = (*mockBookingServicer)(nil)
	_ handler.ListingServicer = (*mockListingServicer)(nil)
	_ handler.UserServicer    = (*mockUserServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into the router exactly
// the way main.go wires it in production, including the real JWT middleware.
// The user resolver accepts every ID; tests that care about unknown users use
// newHTTPHandlerWithUsers.
func newHTTPHandler(bookings handler.BookingServicer, listings handler.ListingServicer) http.Handler {
	users := &mockUserServicer{getByID: func(_ context.Context, id uuid.UUID) (domain.User, error) {
		return domain.User{ID: id}, nil
	}}
	return newHTTPHandlerWithUsers(bookings, listings, users)
}

func newHTTPHandlerWithUsers(bookings handler.BookingServicer, listings handler.ListingServicer, users handler.UserServicer) http.Handler {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	issue := func(id domain.Identity, ttl time.Duration) (string, error) {
		return middleware.IssueToken(testSecret, id, ttl)
	}
	srv := handler.NewServer(bookings, listings, users, issue, middleware.NewAuthHandler(testSecret), log)
	return srv.Routes()
}

// bearer returns an Authorization header value for the given identity.
func bearer(t *testing.T, id domain.Identity) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, id, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func renterIdentity() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Role: domain.RoleRenter}
}

func adminIdentity() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decodeErrorCode extracts the error.code field from an error response body.
func decodeErrorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code
}

func bookingFixture(renterID uuid.UUID) domain.Booking {
	return domain.Booking{
		ID:        uuid.New(),
		ListingID: uuid.New(),
		RenterID:  renterID,
		Quantity:  2,
		StartDate: time.Date(2031, 5, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2031, 5, 14, 0, 0, 0, 0, time.UTC),
		Status:    domain.StatusRequested,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func listingFixture(ownerID uuid.UUID) domain.Listing {
	return domain.Listing{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          "Towable Excavator",
		Description:   "1.5t mini excavator",
		EquipmentType: "earthmoving",
		DailyRate:     180,
		TotalQuantity: 3,
		Condition:     "Excellent",
		Location:      "Tulsa, OK",
		IsAvailable:   true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}
