package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"stayhub/internal/domain"
)

type Server struct{ mux *chi.Mux }

func New() *Server {
	m := chi.NewRouter()

	// ✅ All middlewares go here (before any routes are added)
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)           // chi's built-in recover
	m.Use(Timeout(15 * time.Second)) // timeout wrapper
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		// public catalog
		r.Get("/properties", h.listProperties)
		r.Get("/properties/{id}", h.getProperty)
		r.Get("/properties/{id}/reviews", h.listReviews)
		r.Get("/properties/{id}/calendar", h.calendar)

		// market data passthrough
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(100, 1*time.Minute)) // protect upstream quota
			r.Get("/market-trends/*", h.Proxy.ServeHTTP)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)

			// the OTP mailer is an abuse magnet, keep it slow
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(5, 1*time.Minute))
				r.Post("/forgot-password", h.forgotPassword)
				r.Post("/verify-otp", h.verifyOTP)
				r.Post("/reset-password", h.resetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAuth)
				r.Post("/logout", h.logout)
			})
		})

		// signed-in surface
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/me", h.me)
			r.Put("/me/push-token", h.savePushToken)
			r.Get("/me/bookings", h.myBookings)
			r.Get("/me/favorites", h.listFavorites)
			r.Put("/me/favorites/{id}", h.addFavorite)
			r.Delete("/me/favorites/{id}", h.removeFavorite)
			r.Get("/me/notifications", h.listNotifications)
			r.Post("/me/notifications/{id}/read", h.markNotificationRead)

			r.Post("/bookings/quote", h.quote)
			r.Post("/bookings", h.createBooking)
			r.Get("/bookings/{id}", h.getBooking)
			r.Post("/bookings/{id}/cancel", h.cancelBooking)

			r.Post("/properties/{id}/reviews", h.createReview)
		})

		r.Route("/host", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireRole(domain.RoleHost, domain.RoleAdmin))
			r.Get("/dashboard", h.hostDashboard)
			r.Get("/properties", h.hostListings)
			r.Post("/properties", h.hostCreateListing)
			r.Put("/properties/{id}", h.hostUpdateListing)
			r.Get("/bookings", h.hostBookings)
			r.Post("/bookings/{id}/confirm", h.hostConfirmBooking)
			r.Post("/bookings/{id}/reject", h.hostRejectBooking)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireRole(domain.RoleAdmin))
			r.Get("/overview", h.adminOverview)
			r.Get("/users", h.adminUsers)
			r.Put("/users/{id}/active", h.adminSetUserActive)
			r.Get("/properties", h.adminProperties)
			r.Post("/properties/{id}/approve", h.adminApproveProperty)
			r.Post("/properties/{id}/suspend", h.adminSuspendProperty)
			r.Get("/bookings", h.adminBookings)
		})
	})
}
