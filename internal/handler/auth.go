package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
)

// tokenTTL is the lifetime of tokens minted by the development token
// endpoint. Real deployments take tokens from the identity collaborator
// instead and never expose this route.
const tokenTTL = 24 * time.Hour

// handleIssueToken handles POST /api/auth/token.
// Development scaffolding: mints a signed token for the presented identity
// without any credential check, so the API can be exercised end to end while
// the identity collaborator is out of scope. The user must exist; unknown
// IDs get 404 rather than a token for a phantom account.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		requestError(w, "user_id must be a valid UUID")
		return
	}

	if _, err := s.users.GetByID(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.issue(domain.Identity{UserID: userID, Role: domain.Role(req.Role)}, tokenTTL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
}
