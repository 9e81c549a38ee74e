package meal

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
)

func SetupRoutes(h *Handler, verifier middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(verifier))
		r.Post("/", h.RecordMealHandler)
		r.Get("/history", h.HistoryHandler)
	})

	return r
}
