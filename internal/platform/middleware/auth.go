package middleware

import (
	"context"
	"net/http"
	"strings"

	"spamstopper/internal/jwttoken"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
)

type subscriberContextKey struct{}

// TokenValidator verifies bearer tokens for dashboard requests.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*jwttoken.AccessTokenClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated subscriber ID in the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing authorization header"))
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed authorization header"))
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), subscriberContextKey{}, claims.SubscriberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubscriberID returns the authenticated subscriber ID, or empty when the
// request was not authenticated.
func GetSubscriberID(ctx context.Context) string {
	if v, ok := ctx.Value(subscriberContextKey{}).(string); ok {
		return v
	}
	return ""
}
