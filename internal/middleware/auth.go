package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tbardin/equiprent/internal/domain"
)

// identityKey is the context key under which NewAuthHandler stores the
// verified caller identity. Unexported so callers must go through
// IdentityFromContext.
type identityKey struct{}

// IssueToken signs an HS256 JWT for the given identity, valid for ttl.
// The subject claim carries the user ID, the role claim the permission level.
func IssueToken(secret string, id domain.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id.UserID.String(),
		"role": string(id.Role),
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("middleware.IssueToken: %w", err)
	}
	return signed, nil
}

// NewAuthHandler returns a middleware that verifies the Bearer token in the
// Authorization header and stores the resulting domain.Identity in the request
// context. Requests with a missing, malformed, or expired token are rejected
// with 401 before the next handler runs.
func NewAuthHandler(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parseBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the caller identity stored by NewAuthHandler.
// The boolean is false when the request did not pass through the auth
// middleware.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// parseBearer extracts and verifies the token from an Authorization header
// value and maps its claims to a domain.Identity.
func parseBearer(header, secret string) (domain.Identity, error) {
	raw := strings.TrimSpace(header)
	if l := strings.ToLower(raw); strings.HasPrefix(l, "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return domain.Identity{}, errors.New("missing bearer token")
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, errors.New("unexpected claims type")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse subject: %w", err)
	}

	role, _ := claims["role"].(string)
	switch domain.Role(role) {
	case domain.RoleRenter, domain.RoleAdmin:
	default:
		return domain.Identity{}, fmt.Errorf("unknown role %q", role)
	}

	return domain.Identity{UserID: userID, Role: domain.Role(role)}, nil
}
