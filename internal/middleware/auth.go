package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/logging"
	"github.com/ayush/todo-api/internal/models"
	"github.com/ayush/todo-api/internal/render"
)

type ctxKey struct{}

// TokenVerifier decodes a bearer token into the account snapshot it carries.
type TokenVerifier interface {
	Verify(token string) (*models.AccountSnapshot, error)
}

// UserFromContext returns the identity attached by RequireAuth.
func UserFromContext(ctx context.Context) (*models.AccountSnapshot, bool) {
	user, ok := ctx.Value(ctxKey{}).(*models.AccountSnapshot)
	return user, ok && user != nil
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user *models.AccountSnapshot) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// RequireAuth is middleware that validates the bearer token and injects the
// decoded account snapshot into the request context.
func RequireAuth(tokens TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				render.Error(w, log, common.WithMessage(common.ErrUnauthorized, "Please login first to access our app"))
				return
			}

			user, err := tokens.Verify(token)
			if err != nil {
				log.Debug("rejected bearer token", logging.Err(err))
				render.Error(w, log, common.WithMessage(common.ErrUnauthorized, "Login timed out, please login again."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAnonymous rejects requests that already carry a valid token.
// Invalid or expired tokens are let through.
func RequireAnonymous(tokens TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if _, err := tokens.Verify(token); err == nil {
					render.Error(w, log, common.WithMessage(common.ErrForbidden, "You are already logged in."))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken accepts both "Bearer <token>" and a bare token in the
// Authorization header.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
