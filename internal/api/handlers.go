// Package api exposes the analytics service over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/goals"
	"github.com/ignite/influencer-analytics/internal/pkg/httputil"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
	"github.com/ignite/influencer-analytics/internal/report"
	"github.com/ignite/influencer-analytics/internal/service/analytics"
	"github.com/ignite/influencer-analytics/internal/storage"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc          *analytics.Service
	reports      storage.DocumentStore
	reportPrefix string
}

// NewHandlers creates the handler set. reports may be nil when no report
// store is configured.
func NewHandlers(svc *analytics.Service, reports storage.DocumentStore, reportPrefix string) *Handlers {
	return &Handlers{svc: svc, reports: reports, reportPrefix: reportPrefix}
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	if verr, ok := analytics.IsValidation(err); ok {
		httputil.Unprocessable(w, "dataset validation failed", verr.Fields)
		return
	}
	switch {
	case errors.Is(err, analytics.ErrInfluencerNotFound),
		errors.Is(err, analytics.ErrCampaignNotFound),
		errors.Is(err, goals.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, analytics.ErrUnknownBrand),
		errors.Is(err, goals.ErrInvalidGoal):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, analytics.ErrReadOnly):
		httputil.Error(w, http.StatusConflict, httputil.CodeBadRequest, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func brandParam(w http.ResponseWriter, r *http.Request) (domain.Brand, bool) {
	brand := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("brand")))
	if brand == "" {
		httputil.BadRequest(w, "brand is required")
		return "", false
	}
	return domain.Brand(brand), true
}

// GetIncrementalROAS returns ROAS for the whole program or one influencer
// or campaign.
func (h *Handlers) GetIncrementalROAS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := attribution.Scope{
		InfluencerID: q.Get("influencer_id"),
		CampaignID:   q.Get("campaign_id"),
	}
	metrics, err := h.svc.IncrementalROAS(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, metrics)
}

func (h *Handlers) GetCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts, err := h.svc.Cohorts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"cohorts": cohorts, "count": len(cohorts)})
}

func (h *Handlers) GetCohortInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.svc.CohortInsights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, insights)
}

func (h *Handlers) GetAudienceFit(w http.ResponseWriter, r *http.Request) {
	brand, ok := brandParam(w, r)
	if !ok {
		return
	}
	score, err := h.svc.AudienceFit(r.Context(), chi.URLParam(r, "influencerID"), brand)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, score)
}

func (h *Handlers) GetBrandRankings(w http.ResponseWriter, r *http.Request) {
	brand, ok := brandParam(w, r)
	if !ok {
		return
	}
	rankings, err := h.svc.BrandRankings(r.Context(), brand)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"brand": brand, "rankings": rankings})
}

// GetOptimalMix selects influencers for a brand within ?budget=.
func (h *Handlers) GetOptimalMix(w http.ResponseWriter, r *http.Request) {
	brand, ok := brandParam(w, r)
	if !ok {
		return
	}
	budget, err := httputil.QueryFloat(r, "budget", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if budget <= 0 {
		httputil.BadRequest(w, "budget must be positive")
		return
	}
	mix, err := h.svc.OptimalMix(r.Context(), brand, budget)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, mix)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// AnalyzeSentiment scores the text in the request body.
func (h *Handlers) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	httputil.OK(w, h.svc.Sentiment(req.Text))
}

func (h *Handlers) GetContentInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.svc.ContentInsights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, insights)
}

func (h *Handlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.svc.Forecast(r.Context(), chi.URLParam(r, "influencerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, metrics)
}

func (h *Handlers) GetDiscoveryScore(w http.ResponseWriter, r *http.Request) {
	brand, ok := brandParam(w, r)
	if !ok {
		return
	}
	score, err := h.svc.DiscoveryScore(r.Context(), chi.URLParam(r, "influencerID"), brand)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, score)
}

func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	brand, ok := brandParam(w, r)
	if !ok {
		return
	}
	scores, err := h.svc.Discover(r.Context(), brand)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"brand": brand, "influencers": scores})
}

func (h *Handlers) GetCampaignOptimization(w http.ResponseWriter, r *http.Request) {
	opt, err := h.svc.OptimizeCampaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, opt)
}

func (h *Handlers) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Anomalies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"anomalies": found, "count": len(found)})
}

func (h *Handlers) GetCrossChannelAnomalies(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.CrossChannelAnomalies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"anomalies": found, "count": len(found)})
}

// ListGoals returns stored goals. ?refresh=true re-evaluates them first.
func (h *Handlers) ListGoals(w http.ResponseWriter, r *http.Request) {
	var (
		list []goals.Goal
		err  error
	)
	if r.URL.Query().Get("refresh") == "true" {
		list, err = h.svc.RefreshGoals(r.Context())
	} else {
		list, err = h.svc.Goals(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"goals": list, "count": len(list)})
}

func (h *Handlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var in goals.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	g, err := h.svc.CreateGoal(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, g)
}

func (h *Handlers) RefreshGoal(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.RefreshGoal(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, g)
}

func (h *Handlers) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGoal(r.Context(), chi.URLParam(r, "goalID")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) GetGoalAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.GoalAlerts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"alerts": alerts, "count": len(alerts)})
}

// Export returns the dataset and settings as a downloadable document.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	name := "influencer-analytics-" + time.Now().UTC().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	httputil.OK(w, doc)
}

// Import replaces the dataset with the request body.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var doc domain.ExportDocument
	if !httputil.Decode(w, r, &doc) {
		return
	}
	if err := h.svc.Import(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"imported": true, "status": h.svc.Status()})
}

// GetLatestReport returns the most recent scheduled report.
func (h *Handlers) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		httputil.NotFound(w, "report storage not configured")
		return
	}
	rep, err := report.Latest(r.Context(), h.reports, h.reportPrefix)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, rep)
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if strings.HasPrefix(r.URL.Path, "/health") {
			return
		}
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
