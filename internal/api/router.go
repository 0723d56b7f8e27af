package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showroomhq/leadrouter/internal/intake"
	"github.com/showroomhq/leadrouter/internal/match"
	"github.com/showroomhq/leadrouter/internal/store"
)

func NewRouter(s store.Store, svc *intake.Service, m *match.Matcher, rateLimit int, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit))

	leads := NewLeadsHandler(svc, s)
	routing := NewRoutingHandler(m)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/leads", leads.Create)
		r.Get("/leads", leads.List)
		r.Get("/leads/{id}", leads.Get)
		r.Get("/leads/{id}/activities", leads.Activities)
		r.Post("/leads/{id}/activities", leads.AddNote)
		r.Post("/leads/{id}/assign", leads.Assign)
		r.Post("/leads/{id}/status", leads.UpdateStatus)

		r.Get("/routing/rank/{vehicle_id}", routing.Rank)
		r.Get("/routing/decision/{vehicle_id}", routing.Decision)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", admin.Stats)
			r.Get("/agents", admin.Agents)
			r.Post("/agents", admin.CreateAgent)
			r.Get("/agents/{id}/performance", admin.AgentPerformance)
			r.Get("/vehicles", admin.ListVehicles)
			r.Post("/vehicles", admin.CreateVehicle)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
