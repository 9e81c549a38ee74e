package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
	"github.com/EmpoweredVote/meal-tracker/internal/token"
	"github.com/EmpoweredVote/meal-tracker/internal/utils"
)

type TokenVerifier interface {
	Verify(tokenString string) (token.Identity, error)
}

// AuthMiddleware requires an "Authorization: Bearer <token>" header and puts
// the verified identity in the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				utils.WriteError(w, nil, apperr.New(apperr.KindUnauthenticated, "missing bearer token"))
				return
			}

			id, err := verifier.Verify(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, token.ErrExpiredToken) {
					msg = "token expired"
				}
				utils.WriteError(w, nil, apperr.Wrap(apperr.KindUnauthenticated, msg, err))
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// CORSMiddleware echoes the request origin back only if it is on the allow-list.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin") // important for caches
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization, Accept-Language")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Request-Id")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
