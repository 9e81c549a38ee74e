package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
)

// SetupRoutes mounts under /api/v1/auth. limit wraps the credential
// endpoints; pass nil to leave them unthrottled.
func SetupRoutes(h *Handler, verifier middleware.TokenVerifier, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)
	})
	r.Post("/logout", h.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(verifier))
		r.Get("/profile", h.GetProfileHandler)
		r.Put("/profile", h.UpdateProfileHandler)
		r.Put("/profile/password", h.UpdatePasswordHandler)
		r.Delete("/delete", h.DeleteAccountHandler)
		r.Get("/verify", h.VerifyHandler)
	})

	return r
}
