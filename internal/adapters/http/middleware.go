package httpadapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// UserFromContext returns the authenticated user set by withAuth.
func UserFromContext(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(domain.UserID)
	return id, ok
}

// withRequestID bridges chi's request id into the logging context, so
// every log line of a request carries the same request_id.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = observability.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withAuth authenticates the request from the "token" cookie, an HMAC
// signed JWT carrying a user_id claim. A missing cookie is 401, a bad or
// expired token is 403. The user id lands in the request context.
func withAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("token")
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			userID, err := parseToken(cookie.Value, secret)
			if err != nil {
				writeError(w, http.StatusForbidden, "Not authorized, token failed")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw string, secret []byte) (domain.UserID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	id, _ := claims["user_id"].(string)
	if id == "" {
		return "", fmt.Errorf("token has no user_id claim")
	}
	return domain.UserID(id), nil
}
