package http

import (
	"log/slog"
	"net/http"

	"eventshub/internal/delivery/http/controllers"
	"eventshub/internal/delivery/http/helpers"
	"eventshub/internal/delivery/http/middleware"
	"eventshub/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig carries everything NewRouter needs to wire the API.
type RouterConfig struct {
	Logger         *slog.Logger
	Events         *controllers.EventController
	Bookings       *controllers.BookingController
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	optionalAuth := middleware.OptionalAuth(cfg.Verifier, cfg.Logger)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAuth(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Events
	mux.HandleFunc("GET /events", cfg.Events.ListEvents)
	mux.HandleFunc("POST /events", adminOnly(cfg.Events.CreateEvent))
	mux.HandleFunc("GET /events/{slug}", cfg.Events.GetEvent)
	mux.HandleFunc("GET /events/{slug}/similar", cfg.Events.ListSimilarEvents)
	mux.HandleFunc("PUT /events/{slug}", adminOnly(cfg.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{slug}", adminOnly(cfg.Events.DeleteEvent))

	// Bookings
	mux.HandleFunc("POST /bookings", optionalAuth(cfg.Bookings.Book))
	mux.HandleFunc("GET /me/bookings", requireAuth(cfg.Bookings.ListMyBookings))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
