package handler

import (
	"net/http"
	"strconv"

	"github.com/tbardin/equiprent/internal/domain"
)

// handleCreateListing handles POST /api/listings.
// The authenticated caller becomes the listing owner.
func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := decodeBody(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	listing := req.toDomain()
	listing.OwnerID = caller.UserID

	created, err := s.listings.Create(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetListing handles GET /api/listings/{id}. Public.
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, "listing id must be a valid UUID")
		return
	}

	listing, err := s.listings.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// handleSearchListings handles GET /api/listings. Public.
//
// Query parameters: searchTerm (matches name and location), available
// (true/false; absent means any), sort (created_at, daily_rate, name),
// order (asc/desc), page, limit.
func (s *Server) handleSearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ListingFilter{
		SearchTerm: q.Get("searchTerm"),
		SortBy:     q.Get("sort"),
		SortDesc:   q.Get("order") != "asc",
	}
	if raw := q.Get("available"); raw != "" {
		avail, err := strconv.ParseBool(raw)
		if err != nil {
			requestError(w, "available must be true or false")
			return
		}
		filter.Available = &avail
	}

	params := queryPagination(r)
	listings, total, err := s.listings.Search(r.Context(), filter, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[domain.Listing]{
		Data: listings,
		Pagination: paginationEnvelope{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// handleUpdateListing handles PUT /api/listings/{id}.
// Only named fields from the request body are applied; ownership never
// changes through this path.
func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, "listing id must be a valid UUID")
		return
	}

	var req listingRequest
	if err := decodeBody(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	listing := req.toDomain()
	listing.ID = id

	updated, err := s.listings.Update(r.Context(), caller, listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteListing handles DELETE /api/listings/{id}.
func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, "listing id must be a valid UUID")
		return
	}

	if err := s.listings.Delete(r.Context(), caller, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
