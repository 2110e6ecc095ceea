package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/recoleo/recoleo/internal/platform/httpx"
)

type ctxKey struct{}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user id on the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			plain, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(plain) == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			userID, err := service.Verify(r.Context(), strings.TrimSpace(plain))
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id set by Middleware.
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKey{}).(int64)
	if !ok {
		return 0, errors.New("auth: user id not in context")
	}
	return userID, nil
}

// ContextWithUserID is used by tests to simulate an authenticated request.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}
