package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/influencer-analytics/internal/pkg/httputil"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health checks (no dataset required)
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/attribution/roas", h.GetIncrementalROAS)

		r.Get("/cohorts", h.GetCohorts)
		r.Get("/cohorts/insights", h.GetCohortInsights)

		r.Route("/audience", func(r chi.Router) {
			r.Get("/fit/{influencerID}", h.GetAudienceFit)
			r.Get("/rankings", h.GetBrandRankings)
			r.Get("/mix", h.GetOptimalMix)
		})

		r.Post("/sentiment", h.AnalyzeSentiment)
		r.Get("/content/insights", h.GetContentInsights)

		r.Route("/influencers/{influencerID}", func(r chi.Router) {
			r.Get("/forecast", h.GetForecast)
			r.Get("/discovery", h.GetDiscoveryScore)
		})
		r.Get("/discovery", h.Discover)
		r.Get("/campaigns/{campaignID}/optimization", h.GetCampaignOptimization)

		r.Get("/anomalies", h.GetAnomalies)
		r.Get("/anomalies/cross-channel", h.GetCrossChannelAnomalies)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Get("/alerts", h.GetGoalAlerts)
			r.Post("/{goalID}/refresh", h.RefreshGoal)
			r.Delete("/{goalID}", h.DeleteGoal)
		})

		r.Get("/export", h.Export)
		r.Post("/import", h.Import)

		r.Get("/reports/latest", h.GetLatestReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, httputil.CodeBadRequest, "method not allowed")
	})

	return r
}
