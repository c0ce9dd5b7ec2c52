package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/middleware"
)

// handleBook handles POST /api/bookings/book-package/{listingId}.
// The renter is always the authenticated caller; the route carries only the
// listing being booked.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	listingID, err := pathUUID(r, "listingId")
	if err != nil {
		requestError(w, "listing id must be a valid UUID")
		return
	}

	var req bookRequest
	if err := decodeBody(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	booking, err := s.bookings.Book(r.Context(), caller.UserID, listingID, req.Quantity, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleCancelBooking handles POST /api/bookings/cancel-booking/{id}.
// Ownership is enforced by the service: only the renter who made the booking
// or an admin may cancel it.
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	bookingID, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, "booking id must be a valid UUID")
		return
	}

	booking, err := s.bookings.Cancel(r.Context(), caller, bookingID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleDeleteBookingHistory handles DELETE /api/bookings/delete-booking-history/{id}.
// Only bookings that have reached a terminal status may be removed.
func (s *Server) handleDeleteBookingHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	bookingID, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, "booking id must be a valid UUID")
		return
	}

	if err := s.bookings.DeleteHistory(r.Context(), caller, bookingID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCurrentForUser handles GET /api/bookings/current/{userId}.
// Admin-only view of another user's current bookings.
func (s *Server) handleCurrentForUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin() {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}

	userID, err := pathUUID(r, "userId")
	if err != nil {
		requestError(w, "user id must be a valid UUID")
		return
	}

	bookings, err := s.bookings.CurrentForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleAllBookings handles GET /api/bookings/all.
// Admin-only paged view over the whole ledger, newest first.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) handleAllBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin() {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}

	params := queryPagination(r)
	bookings, total, err := s.bookings.AllPaged(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[domain.Booking]{
		Data: bookings,
		Pagination: paginationEnvelope{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// handleUserCurrent handles GET /api/bookings/user-current/{id}.
// A renter may only read their own bookings; admins may read anyone's.
func (s *Server) handleUserCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.ownUserID(w, r, "id")
	if !ok {
		return
	}

	bookings, err := s.bookings.CurrentForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleUserAll handles GET /api/bookings/user-all/{id}.
func (s *Server) handleUserAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.ownUserID(w, r, "id")
	if !ok {
		return
	}

	bookings, err := s.bookings.AllForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleRequestsForOwner handles GET /api/bookings/requests/{ownerId}.
// Returns open booking requests against the owner's listings joined with the
// requesting renter's identity.
func (s *Server) handleRequestsForOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.ownUserID(w, r, "ownerId")
	if !ok {
		return
	}

	requests, err := s.bookings.RequestsForOwner(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// caller returns the authenticated identity, answering 401 if the auth
// middleware did not run. The middleware already guards every booking route,
// so the failure path here only fires on a wiring mistake.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthenticated", "missing caller identity"))
		return domain.Identity{}, false
	}
	return id, true
}

// ownUserID parses the named path parameter as a user ID and enforces that
// the caller either is that user or holds the admin role.
func (s *Server) ownUserID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	caller, ok := s.caller(w, r)
	if !ok {
		return uuid.Nil, false
	}

	userID, err := pathUUID(r, param)
	if err != nil {
		requestError(w, "user id must be a valid UUID")
		return uuid.Nil, false
	}
	if userID != caller.UserID && !caller.IsAdmin() {
		s.writeError(w, r, domain.ErrForbidden)
		return uuid.Nil, false
	}
	return userID, true
}

// queryPagination reads ?page= and ?limit= into PaginationParams, falling
// back to defaults for absent or unparseable values.
func queryPagination(r *http.Request) domain.PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return domain.NewPaginationParams(page, limit)
}
