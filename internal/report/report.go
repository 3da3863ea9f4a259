// Package report builds the scheduled analytics report: it refreshes goals,
// runs anomaly detection and stores the result as a JSON document. Runs are
// serialized across processes with a distributed lock.
package report

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/cohort"
	"github.com/ignite/influencer-analytics/internal/goals"
	"github.com/ignite/influencer-analytics/internal/pkg/distlock"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
	"github.com/ignite/influencer-analytics/internal/service/analytics"
	"github.com/ignite/influencer-analytics/internal/storage"
)

// LatestKey is the document name the most recent report is copied to.
const LatestKey = "latest.json"

// Report is the stored report document.
type Report struct {
	GeneratedAt    time.Time                          `json:"generated_at"`
	DatasetVersion string                             `json:"dataset_version"`
	ROAS           attribution.IncrementalROASMetrics `json:"roas"`
	CohortInsights cohort.Insights                    `json:"cohort_insights"`
	Anomalies      []anomaly.Detection                `json:"anomalies"`
	CrossChannel   []anomaly.Detection                `json:"cross_channel_anomalies"`
	Goals          []goals.Goal                       `json:"goals"`
	GoalAlerts     []anomaly.Detection                `json:"goal_alerts"`
}

// Analytics is the part of the analytics service a report needs.
type Analytics interface {
	Refresh(ctx context.Context) error
	Status() analytics.Status
	IncrementalROAS(ctx context.Context, scope attribution.Scope) (attribution.IncrementalROASMetrics, error)
	CohortInsights(ctx context.Context) (cohort.Insights, error)
	Anomalies(ctx context.Context) ([]anomaly.Detection, error)
	CrossChannelAnomalies(ctx context.Context) ([]anomaly.Detection, error)
	GoalAlerts(ctx context.Context) ([]anomaly.Detection, error)
	Goals(ctx context.Context) ([]goals.Goal, error)
}

// Stats counts job outcomes since start.
type Stats struct {
	Runs    int64 `json:"runs"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// Job generates reports on an interval.
type Job struct {
	svc      Analytics
	store    storage.DocumentStore
	lock     distlock.DistLock
	prefix   string
	interval time.Duration
	nowFn    func() time.Time

	runs, skipped, failed int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Options configures a Job.
type Options struct {
	Prefix   string        // document key prefix, default "reports"
	Interval time.Duration // default 1h
	Now      func() time.Time
}

// NewJob creates a report job.
func NewJob(svc Analytics, store storage.DocumentStore, lock distlock.DistLock, opts Options) *Job {
	if opts.Prefix == "" {
		opts.Prefix = "reports"
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Job{
		svc:      svc,
		store:    store,
		lock:     lock,
		prefix:   opts.Prefix,
		interval: opts.Interval,
		nowFn:    opts.Now,
	}
}

// RunOnce builds and stores one report while holding the lock. It returns
// distlock.ErrNotAcquired when another process is generating a report.
func (j *Job) RunOnce(ctx context.Context) (*Report, error) {
	var rep *Report
	err := distlock.Run(ctx, j.lock, func(ctx context.Context) error {
		var err error
		rep, err = j.build(ctx)
		if err != nil {
			return err
		}
		return j.save(ctx, rep)
	})

	switch {
	case errors.Is(err, distlock.ErrNotAcquired):
		atomic.AddInt64(&j.skipped, 1)
		logger.Info("report skipped, lock held elsewhere")
		return nil, err
	case err != nil:
		atomic.AddInt64(&j.failed, 1)
		logger.Error("report failed", "error", err)
		return nil, err
	}

	atomic.AddInt64(&j.runs, 1)
	logger.Info("report generated",
		"dataset_version", rep.DatasetVersion,
		"anomalies", len(rep.Anomalies)+len(rep.CrossChannel),
		"goal_alerts", len(rep.GoalAlerts),
	)
	return rep, nil
}

func (j *Job) build(ctx context.Context) (*Report, error) {
	if err := j.svc.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh dataset: %w", err)
	}

	rep := &Report{GeneratedAt: j.nowFn(), DatasetVersion: j.svc.Status().Version}
	var err error
	if rep.ROAS, err = j.svc.IncrementalROAS(ctx, attribution.Scope{}); err != nil {
		return nil, fmt.Errorf("roas: %w", err)
	}
	if rep.CohortInsights, err = j.svc.CohortInsights(ctx); err != nil {
		return nil, fmt.Errorf("cohort insights: %w", err)
	}
	if rep.Anomalies, err = j.svc.Anomalies(ctx); err != nil {
		return nil, fmt.Errorf("anomalies: %w", err)
	}
	if rep.CrossChannel, err = j.svc.CrossChannelAnomalies(ctx); err != nil {
		return nil, fmt.Errorf("cross-channel anomalies: %w", err)
	}
	if rep.GoalAlerts, err = j.svc.GoalAlerts(ctx); err != nil {
		return nil, fmt.Errorf("goal alerts: %w", err)
	}
	if rep.Goals, err = j.svc.Goals(ctx); err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}
	return rep, nil
}

func (j *Job) save(ctx context.Context, rep *Report) error {
	key := path.Join(j.prefix, rep.GeneratedAt.Format("2006-01-02T150405Z")+".json")
	if err := storage.SaveJSON(ctx, j.store, key, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := storage.SaveJSON(ctx, j.store, path.Join(j.prefix, LatestKey), rep); err != nil {
		return fmt.Errorf("save latest report: %w", err)
	}
	return nil
}

// Start runs a report immediately and then on every interval until Stop.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return fmt.Errorf("report job already running")
	}
	j.running = true

	ctx, j.cancel = context.WithCancel(ctx)
	logger.Info("report job starting", "interval", j.interval.String())

	j.wg.Add(1)
	go j.loop(ctx)
	return nil
}

func (j *Job) loop(ctx context.Context) {
	defer j.wg.Done()

	_, _ = j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}

// Stop cancels the loop and waits for an in-flight report to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.cancel()
	j.mu.Unlock()

	j.wg.Wait()
	s := j.Stats()
	logger.Info("report job stopped", "runs", s.Runs, "skipped", s.Skipped, "failed", s.Failed)
}

// Stats returns the job counters.
func (j *Job) Stats() Stats {
	return Stats{
		Runs:    atomic.LoadInt64(&j.runs),
		Skipped: atomic.LoadInt64(&j.skipped),
		Failed:  atomic.LoadInt64(&j.failed),
	}
}

// Latest loads the most recent stored report.
func Latest(ctx context.Context, store storage.DocumentStore, prefix string) (*Report, error) {
	if prefix == "" {
		prefix = "reports"
	}
	var rep Report
	if err := storage.LoadJSON(ctx, store, path.Join(prefix, LatestKey), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
