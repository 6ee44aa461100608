package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/ecopoints-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса экопоинтс.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)

		r.Get("/rewards/gifts", h.GetGifts)
		r.Get("/education", h.GetEducation)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/users/me", h.GetCurrentUser)

			r.Post("/waste", h.SubmitWaste)
			r.Get("/waste", h.GetWasteEntries)

			r.Get("/rewards/points", h.GetPoints)
			r.Post("/rewards/redeem/{id}", h.RedeemReward)
			r.Get("/rewards/history", h.GetRedemptions)

			r.Post("/shipping", h.AddShipping)
			r.Get("/shipping", h.GetShipping)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
