package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount registers every API route on r. authLimiter throttles the credential
// endpoints and may be nil.
func (h *Handlers) Mount(r chi.Router, authLimiter func(http.Handler) http.Handler) {
	if authLimiter == nil {
		authLimiter = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Bnb API is running"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", h.Register)
		r.With(authLimiter).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.With(h.RequireAuth).Get("/me", h.Me)
		r.With(h.RequireAuth).Put("/update-profile", h.UpdateProfile)
	})

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.SearchProperties)
		r.With(h.RequireAuth).Get("/mine", h.ListMyProperties)
		r.With(h.RequireAuth).Post("/", h.CreateProperty)
		r.Get("/{id}", h.GetProperty)
		r.With(h.RequireAuth).Put("/{id}", h.UpdateProperty)
		r.With(h.RequireAuth).Delete("/{id}", h.DeleteProperty)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.ListMyBookings)
		r.Get("/requests", h.ListBookingRequests)
		r.Post("/", h.CreateBooking)
		r.Put("/{id}", h.UpdateBooking)
		r.Put("/{id}/status", h.UpdateBookingStatus)
		r.Delete("/{id}", h.DeleteBooking)
	})
}
