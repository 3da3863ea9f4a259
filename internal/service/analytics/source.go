package analytics

import (
	"context"
	"fmt"

	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/feeds"
	"github.com/ignite/influencer-analytics/internal/repository/postgres"
	"github.com/ignite/influencer-analytics/internal/storage"
)

// Source loads the dataset snapshot and the user settings stored with it.
// Implementations must be safe for concurrent use.
type Source interface {
	Load(ctx context.Context) (*domain.Dataset, map[string]string, error)
}

// Sink persists an imported dataset.
type Sink interface {
	Save(ctx context.Context, ds *domain.Dataset, settings map[string]string) error
}

// DocumentSource reads and writes the export document at Key in a
// document store (local disk or S3).
type DocumentSource struct {
	Store storage.DocumentStore
	Key   string
}

func (s DocumentSource) Load(ctx context.Context) (*domain.Dataset, map[string]string, error) {
	return storage.LoadDataset(ctx, s.Store, s.Key)
}

func (s DocumentSource) Save(ctx context.Context, ds *domain.Dataset, settings map[string]string) error {
	return storage.SaveDataset(ctx, s.Store, s.Key, ds, settings)
}

// PostgresSource reads and writes the analytics_* tables. Settings are not
// kept in the database.
type PostgresSource struct {
	Repo *postgres.DatasetRepo
}

func (s PostgresSource) Load(ctx context.Context) (*domain.Dataset, map[string]string, error) {
	ds, err := s.Repo.Load(ctx)
	return ds, nil, err
}

func (s PostgresSource) Save(ctx context.Context, ds *domain.Dataset, _ map[string]string) error {
	return s.Repo.Import(ctx, ds)
}

// TrackingProvider supplies tracking events from outside the base source.
type TrackingProvider interface {
	Events(ctx context.Context) ([]domain.TrackingEvent, error)
}

// TrackingOverlay replaces the base source's tracking events with the
// provider's, e.g. orders from the Snowflake warehouse.
type TrackingOverlay struct {
	Base     Source
	Tracking TrackingProvider
}

func (s TrackingOverlay) Load(ctx context.Context) (*domain.Dataset, map[string]string, error) {
	ds, settings, err := s.Base.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.Tracking.Events(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load tracking events: %w", err)
	}
	out := *ds
	out.TrackingEvents = events
	return &out, settings, nil
}

// FeedOverlay appends posts ingested from influencer feeds.
type FeedOverlay struct {
	Base     Source
	Ingester *feeds.Ingester
}

func (s FeedOverlay) Load(ctx context.Context) (*domain.Dataset, map[string]string, error) {
	ds, settings, err := s.Base.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	out, _ := s.Ingester.Ingest(ctx, ds)
	return out, settings, nil
}
