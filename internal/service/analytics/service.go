package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/audience"
	"github.com/ignite/influencer-analytics/internal/cache"
	"github.com/ignite/influencer-analytics/internal/cohort"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/goals"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
	"github.com/ignite/influencer-analytics/internal/predictive"
	"github.com/ignite/influencer-analytics/internal/sentiment"
)

// Options wires a Service. Nil scorers fall back to their defaults.
type Options struct {
	Source Source
	Sink   Sink // nil makes Import return ErrReadOnly
	Cache  cache.Cache
	Goals  *goals.Tracker

	Attribution *attribution.Calculator
	Cohorts     *cohort.Analyzer
	Audience    *audience.Scorer
	Sentiment   *sentiment.Analyzer
	Predictive  *predictive.Engine
	Anomalies   *anomaly.Detector
}

// Service runs every analytics operation against the current dataset
// snapshot. All methods are safe for concurrent use.
type Service struct {
	source Source
	sink   Sink
	cache  cache.Cache
	goals  *goals.Tracker

	attribution *attribution.Calculator
	cohorts     *cohort.Analyzer
	audience    *audience.Scorer
	sentiment   *sentiment.Analyzer
	predictive  *predictive.Engine
	anomalies   *anomaly.Detector

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	ds       *domain.Dataset
	settings map[string]string
	version  string
	loadedAt time.Time
}

// NewService creates a service. The dataset is loaded lazily on first use.
func NewService(opts Options) *Service {
	s := &Service{
		source:      opts.Source,
		sink:        opts.Sink,
		cache:       opts.Cache,
		goals:       opts.Goals,
		attribution: opts.Attribution,
		cohorts:     opts.Cohorts,
		audience:    opts.Audience,
		sentiment:   opts.Sentiment,
		predictive:  opts.Predictive,
		anomalies:   opts.Anomalies,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.goals == nil {
		s.goals = goals.NewTracker(goals.NewMemoryStore(), nil)
	}
	if s.attribution == nil {
		s.attribution = attribution.NewCalculator(attribution.DefaultParams())
	}
	if s.cohorts == nil {
		s.cohorts = cohort.NewAnalyzer(cohort.DefaultParams())
	}
	if s.audience == nil {
		s.audience = audience.NewScorer(nil)
	}
	if s.sentiment == nil {
		s.sentiment = sentiment.NewAnalyzer(nil)
	}
	if s.predictive == nil {
		s.predictive = predictive.NewEngine(predictive.Options{Audience: s.audience})
	}
	if s.anomalies == nil {
		s.anomalies = anomaly.NewDetector(anomaly.DefaultParams(), nil)
	}
	return s
}

// Refresh reloads the dataset from the source. An invalid dataset is
// rejected with a *domain.ValidationError and the previous snapshot stays.
func (s *Service) Refresh(ctx context.Context) error {
	ds, settings, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return s.swap(ctx, ds, settings)
}

func (s *Service) swap(ctx context.Context, ds *domain.Dataset, settings map[string]string) error {
	if err := domain.Validate(ds); err != nil {
		return err
	}
	version, err := fingerprint(ds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.snap
	s.snap = &snapshot{ds: ds, settings: settings, version: version, loadedAt: time.Now().UTC()}
	s.mu.Unlock()

	if prev == nil || prev.version != version {
		logger.Info("dataset loaded",
			"version", version,
			"influencers", len(ds.Influencers),
			"posts", len(ds.Posts),
			"events", len(ds.TrackingEvents),
			"payouts", len(ds.Payouts),
		)
	}
	return nil
}

func (s *Service) current(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, nil
}

// Dataset returns the current snapshot. Callers must not modify it.
func (s *Service) Dataset(ctx context.Context) (*domain.Dataset, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ds, nil
}

// Status describes the loaded snapshot for health checks.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Version  string    `json:"version,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Status reports the loaded snapshot without triggering a load.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Status{}
	}
	return Status{Loaded: true, Version: s.snap.version, LoadedAt: s.snap.loadedAt}
}

func fingerprint(ds *domain.Dataset) (string, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return "", fmt.Errorf("fingerprint dataset: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// cached computes fn once per dataset version and key.
func cached[T any](ctx context.Context, s *Service, key string, fn func(ds *domain.Dataset) (T, error)) (T, error) {
	snap, err := s.current(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.GetOrCompute(ctx, s.cache, snap.version+":"+key, func() (T, error) {
		return fn(snap.ds)
	})
}

// IncrementalROAS runs the attribution calculator over the optional scope.
func (s *Service) IncrementalROAS(ctx context.Context, scope attribution.Scope) (attribution.IncrementalROASMetrics, error) {
	key := "roas:" + scope.InfluencerID + ":" + scope.CampaignID
	return cached(ctx, s, key, func(ds *domain.Dataset) (attribution.IncrementalROASMetrics, error) {
		return s.attribution.CalculateIncrementalROAS(ds.TrackingEvents, ds.Payouts, scope), nil
	})
}

// Cohorts groups customers by acquisition month and source.
func (s *Service) Cohorts(ctx context.Context) ([]cohort.CustomerCohort, error) {
	return cached(ctx, s, "cohorts", func(ds *domain.Dataset) ([]cohort.CustomerCohort, error) {
		return s.cohorts.AnalyzeCohorts(ds.TrackingEvents), nil
	})
}

// CohortInsights summarizes the cohorts.
func (s *Service) CohortInsights(ctx context.Context) (cohort.Insights, error) {
	cohorts, err := s.Cohorts(ctx)
	if err != nil {
		return cohort.Insights{}, err
	}
	return s.cohorts.GetCohortInsights(cohorts), nil
}

// AudienceFit scores one influencer against a brand profile.
func (s *Service) AudienceFit(ctx context.Context, influencerID string, brand domain.Brand) (audience.AudienceFitScore, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return audience.AudienceFitScore{}, err
	}
	inf, ok := ds.Influencer(influencerID)
	if !ok {
		return audience.AudienceFitScore{}, fmt.Errorf("%w: %s", ErrInfluencerNotFound, influencerID)
	}
	return s.audience.CalculateAudienceFit(inf, brand)
}

// BrandRankings ranks every influencer by fit for brand.
func (s *Service) BrandRankings(ctx context.Context, brand domain.Brand) ([]audience.AudienceFitScore, error) {
	return cached(ctx, s, "rankings:"+string(brand), func(ds *domain.Dataset) ([]audience.AudienceFitScore, error) {
		return s.audience.GetBrandFitRankings(ds.Influencers, brand)
	})
}

// OptimalMix selects influencers for brand within budget.
func (s *Service) OptimalMix(ctx context.Context, brand domain.Brand, budget float64) (audience.OptimalMix, error) {
	key := "mix:" + string(brand) + ":" + strconv.FormatFloat(budget, 'f', 2, 64)
	return cached(ctx, s, key, func(ds *domain.Dataset) (audience.OptimalMix, error) {
		return s.audience.GetOptimalInfluencerMix(ds.Influencers, brand, budget)
	})
}

// Sentiment scores free text. It needs no dataset.
func (s *Service) Sentiment(text string) sentiment.Analysis {
	return s.sentiment.AnalyzeSentiment(text)
}

// ContentInsights joins posts to the orders they drove.
func (s *Service) ContentInsights(ctx context.Context) (sentiment.ContentInsights, error) {
	return cached(ctx, s, "content", func(ds *domain.Dataset) (sentiment.ContentInsights, error) {
		return s.sentiment.AnalyzeContentInsights(ds.Posts, ds.TrackingEvents), nil
	})
}

// Forecast predicts next month's performance for one influencer.
func (s *Service) Forecast(ctx context.Context, influencerID string) (predictive.PredictiveMetrics, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return predictive.PredictiveMetrics{}, err
	}
	inf, ok := ds.Influencer(influencerID)
	if !ok {
		return predictive.PredictiveMetrics{}, fmt.Errorf("%w: %s", ErrInfluencerNotFound, influencerID)
	}
	return s.predictive.PredictInfluencerPerformance(inf, ds.Posts, ds.TrackingEvents), nil
}

// DiscoveryScore scores one influencer as a partnership candidate for brand.
func (s *Service) DiscoveryScore(ctx context.Context, influencerID string, brand domain.Brand) (predictive.InfluencerDiscoveryScore, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return predictive.InfluencerDiscoveryScore{}, err
	}
	inf, ok := ds.Influencer(influencerID)
	if !ok {
		return predictive.InfluencerDiscoveryScore{}, fmt.Errorf("%w: %s", ErrInfluencerNotFound, influencerID)
	}
	return s.predictive.CalculateDiscoveryScore(inf, history(ds), brand)
}

// Discover ranks every influencer by discovery score for brand.
func (s *Service) Discover(ctx context.Context, brand domain.Brand) ([]predictive.InfluencerDiscoveryScore, error) {
	return cached(ctx, s, "discover:"+string(brand), func(ds *domain.Dataset) ([]predictive.InfluencerDiscoveryScore, error) {
		return s.predictive.DiscoverInfluencers(ds.Influencers, history(ds), brand)
	})
}

// OptimizeCampaign recommends budget moves between a campaign's influencers.
// A campaign is known when it has a record or any payout references it.
func (s *Service) OptimizeCampaign(ctx context.Context, campaignID string) (predictive.CampaignOptimization, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return predictive.CampaignOptimization{}, err
	}
	if !knownCampaign(ds, campaignID) {
		return predictive.CampaignOptimization{}, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	return s.predictive.OptimizeCampaign(campaignID, ds.Influencers, ds.Posts, ds.TrackingEvents, ds.Payouts), nil
}

func knownCampaign(ds *domain.Dataset, id string) bool {
	if _, ok := ds.Campaign(id); ok {
		return true
	}
	for _, p := range ds.Payouts {
		if p.CampaignID == id {
			return true
		}
	}
	return false
}

func history(ds *domain.Dataset) predictive.History {
	return predictive.History{Posts: ds.Posts, Tracking: ds.TrackingEvents, Payouts: ds.Payouts}
}

// Anomalies runs the per-influencer checks.
func (s *Service) Anomalies(ctx context.Context) ([]anomaly.Detection, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.anomalies.DetectAnomalies(ds.Influencers, ds.Posts, ds.TrackingEvents, ds.Payouts), nil
}

// CrossChannelAnomalies runs the platform and order volume checks.
func (s *Service) CrossChannelAnomalies(ctx context.Context) ([]anomaly.Detection, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.anomalies.DetectCrossChannelAnomalies(ds.Influencers, ds.Posts, ds.TrackingEvents), nil
}

// CreateGoal registers a goal and evaluates it against the current dataset.
func (s *Service) CreateGoal(ctx context.Context, in goals.CreateInput) (goals.Goal, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return goals.Goal{}, err
	}
	g, err := s.goals.CreateGoal(ctx, in, ds)
	if err != nil {
		return goals.Goal{}, err
	}
	logger.Info("goal created", "goal_id", g.ID, "metric", g.Metric, "status", g.Status)
	return g, nil
}

// RefreshGoal re-evaluates one goal.
func (s *Service) RefreshGoal(ctx context.Context, id string) (goals.Goal, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return goals.Goal{}, err
	}
	prev, err := s.goals.Get(ctx, id)
	if err != nil {
		return goals.Goal{}, err
	}
	g, err := s.goals.UpdateGoalProgress(ctx, id, ds)
	if err != nil {
		return goals.Goal{}, err
	}
	if prev.Status != g.Status {
		logger.Info("goal status changed", "goal_id", g.ID, "from", prev.Status, "to", g.Status)
	}
	return g, nil
}

// RefreshGoals re-evaluates every goal.
func (s *Service) RefreshGoals(ctx context.Context) ([]goals.Goal, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.goals.UpdateAll(ctx, ds)
}

// Goals lists the registered goals as last evaluated.
func (s *Service) Goals(ctx context.Context) ([]goals.Goal, error) {
	return s.goals.List(ctx)
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	return s.goals.Delete(ctx, id)
}

// GoalAlerts refreshes every goal and returns the resulting alerts.
func (s *Service) GoalAlerts(ctx context.Context) ([]anomaly.Detection, error) {
	gs, err := s.RefreshGoals(ctx)
	if err != nil {
		return nil, err
	}
	return s.goals.GenerateGoalAlerts(gs), nil
}

// Export returns the current snapshot as an export document.
func (s *Service) Export(ctx context.Context) (domain.ExportDocument, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return domain.ExportDocument{}, err
	}
	return domain.NewExportDocument(snap.ds, snap.settings), nil
}

// Import validates doc, persists it through the sink and makes it the
// current snapshot.
func (s *Service) Import(ctx context.Context, doc domain.ExportDocument) error {
	if s.sink == nil {
		return ErrReadOnly
	}
	ds := doc.Dataset()
	if err := domain.Validate(ds); err != nil {
		return err
	}
	if err := s.sink.Save(ctx, ds, doc.Settings); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if err := s.swap(ctx, ds, doc.Settings); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("cache invalidation failed", "error", err)
	}
	logger.Info("dataset imported", "influencers", len(ds.Influencers), "events", len(ds.TrackingEvents))
	return nil
}

// IsValidation reports whether err carries dataset validation failures.
func IsValidation(err error) (*domain.ValidationError, bool) {
	var verr *domain.ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
