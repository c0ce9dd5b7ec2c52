package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tbardin/equiprent/internal/domain"
)

// errorResponse is the JSON envelope for every non-2xx response body.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service-layer error onto the HTTP error taxonomy:
//
//	ErrValidation        → 422 validation_error
//	ErrNotFound          → 404 not_found
//	ErrForbidden         → 403 forbidden
//	ErrCapacityExceeded  → 409 capacity_exceeded
//	ErrInvalidTransition → 409 invalid_transition
//
// Anything else is an internal failure: logged with the wrapped cause, and
// answered with an opaque 500 so storage details never leak to clients.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err)))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", unwrapMessage(err)))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", "caller may not perform this operation"))
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, errorBody("capacity_exceeded", "requested quantity is not available for the requested dates"))
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody("invalid_transition", unwrapMessage(err)))
	default:
		s.log.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}

// requestError answers a request rejected before reaching the service layer
// (e.g. missing or malformed body, bad UUID in the path).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", message))
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: code, Message: message}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.BookingService.Book: validation error: quantity must be at
// least 1" → "validation error: quantity must be at least 1". The layer
// prefixes are implementation detail; the sentinel text is part of the API.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrInvalidTransition,
	} {
		if idx := strings.Index(msg, sentinel.Error()); idx >= 0 {
			return msg[idx:]
		}
	}
	return msg
}
