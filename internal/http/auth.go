package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"

	"servicehours-backend-go/internal/services"
)

type contextKey string

const ctxSession contextKey = "session"

// WithAuth rebuilds the caller's session from the bearer token and refreshes
// its role against the live admin list.
func WithAuth(tokenService services.TokenService, resolver *services.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			sess, err := tokenService.ParseSession(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			sess, err = resolver.Refresh(r.Context(), sess)
			if err != nil {
				log.Printf("refresh session: %v", err)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentSession(r *http.Request) services.Session {
	if value, ok := r.Context().Value(ctxSession).(services.Session); ok {
		return value
	}
	return services.Session{}
}

func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentSession(r).HasRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "Not allowed")
		})
	}
}

// RequireAdmin consults the live admin list, so federated admins lose access
// as soon as their code is removed.
func RequireAdmin(resolver *services.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := resolver.IsAdmin(r.Context(), CurrentSession(r))
			if err != nil {
				log.Printf("admin check: %v", err)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				WriteError(w, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
