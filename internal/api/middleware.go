package api

import (
	"context"
	"net/http"
	"strings"

	"courier/internal/models"
	"courier/internal/token"
)

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// requireAuth verifies the bearer session token and stores its claims in the
// request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		claims, err := a.deps.Tokens.VerifySession(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) token.SessionClaims {
	claims, _ := ctx.Value(sessionKey).(token.SessionClaims)
	return claims
}

// caller returns the authenticated user's public identity, taken from the
// session claims without a store lookup.
func caller(ctx context.Context) models.PublicUser {
	claims := sessionFromContext(ctx)
	return models.PublicUser{
		ID:        claims.UserID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
}
