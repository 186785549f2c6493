package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/model"
	"github.com/gatekeep/gatekeep-go/internal/respond"
)

type contextKey string

const payloadKey contextKey = "tokenPayload"

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Authenticate(token string) (model.TokenPayload, error)
}

// JWTAuth returns middleware that validates a Bearer token from the Authorization header.
func JWTAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respond.Error(w, r, apperror.New(apperror.Unauthorized, "Missing authorization header"))
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				respond.Error(w, r, apperror.New(apperror.Unauthorized, "Invalid authorization format"))
				return
			}

			payload, err := auth.Authenticate(token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), payloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PayloadFromContext returns the verified token payload stored by JWTAuth.
func PayloadFromContext(ctx context.Context) (model.TokenPayload, bool) {
	p, ok := ctx.Value(payloadKey).(model.TokenPayload)
	return p, ok
}
