package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitsync/internal/config"
	"fitsync/internal/handler"
	"fitsync/internal/metrics"
	"fitsync/internal/middleware"
)

type Handlers struct {
	OAuth *handler.OAuthHandler
	Fit   *handler.FitHandler
	User  *handler.UserHandler
	Step  *handler.StepHandler
	Docs  *handler.DocsHandler
}

// HealthFunc reports whether a backing dependency is reachable.
type HealthFunc func(ctx context.Context) error

// New builds the HTTP surface. m may be nil, in which case no metrics are
// recorded and /metrics is not served.
func New(cfg *config.Config, h Handlers, health HealthFunc, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler(health))
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	if h.Docs != nil {
		r.Get("/openapi.yaml", h.Docs.OpenAPI)
		r.Get("/docs", h.Docs.SwaggerUI)
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Get("/login", h.OAuth.Login)
			auth.Get("/callback", h.OAuth.Callback)
			auth.Post("/refresh", h.OAuth.Refresh)
		})
		api.Get("/get/token", h.OAuth.AccessToken)

		api.Get("/fit/data", h.Fit.Data)
		api.Get("/fit/user-data", h.Fit.UserData)

		api.Post("/register", h.User.Register)
		api.Post("/login", h.User.Login)
		api.Post("/update-user", h.User.Update)
		api.Get("/users/search", h.User.Search)
		api.Get("/admin/get-users", h.User.List)

		api.Post("/update-steps", h.Step.Update)
		api.Get("/get-total-steps", h.Step.Total)
		api.Get("/weekly-steps", h.Step.Weekly)
		api.Get("/monthly-steps", h.Step.Monthly)
		api.Get("/get-streaks", h.Step.Streak)
	})

	return r
}

func healthHandler(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
