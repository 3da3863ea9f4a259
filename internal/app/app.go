// Package app wires configuration into a running analytics service: it opens
// the configured backends, builds the dataset source chain and the scorers,
// and owns their lifecycle. Both binaries start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/audience"
	"github.com/ignite/influencer-analytics/internal/cache"
	"github.com/ignite/influencer-analytics/internal/cohort"
	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/feeds"
	"github.com/ignite/influencer-analytics/internal/goals"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
	"github.com/ignite/influencer-analytics/internal/predictive"
	"github.com/ignite/influencer-analytics/internal/repository/postgres"
	"github.com/ignite/influencer-analytics/internal/sentiment"
	"github.com/ignite/influencer-analytics/internal/service/analytics"
	"github.com/ignite/influencer-analytics/internal/snowflake"
	"github.com/ignite/influencer-analytics/internal/storage"
)

// App holds the service and the connections behind it. Optional backends
// are nil when not configured.
type App struct {
	Config  *config.Config
	Service *analytics.Service
	// Documents is the document store for dataset snapshots and reports.
	Documents storage.DocumentStore

	DB        *sql.DB
	Redis     *redis.Client
	Warehouse *snowflake.Client
	collector *snowflake.Collector
}

// ConfigureLogging applies the log section of cfg to the package logger.
func ConfigureLogging(cfg config.LogConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.Redact())
}

// New opens every configured backend and builds the service. On error any
// connection already opened is closed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) (err error) {
	cfg := a.Config

	if a.Documents, err = storage.New(ctx, cfg.Storage); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if cfg.Database.Enabled() {
		if a.DB, err = openDatabase(ctx, cfg.Database); err != nil {
			return err
		}
	}
	if cfg.Redis.Enabled() {
		if a.Redis, err = openRedis(ctx, cfg.Redis); err != nil {
			return err
		}
	}
	if cfg.Snowflake.Enabled {
		if a.Warehouse, err = snowflake.NewClient(cfg.Snowflake); err != nil {
			return fmt.Errorf("init snowflake: %w", err)
		}
		a.collector = snowflake.NewCollector(a.Warehouse, 0)
	}

	source, sink, err := a.buildSource()
	if err != nil {
		return err
	}
	goalStore, err := a.buildGoalStore(ctx)
	if err != nil {
		return err
	}

	var reportCache cache.Cache = cache.Noop{}
	if a.Redis != nil {
		reportCache = cache.NewRedisCache(a.Redis, cfg.Redis.CacheTTL())
	}

	aud := audience.NewScorer(cfg.BrandProfiles())
	a.Service = analytics.NewService(analytics.Options{
		Source:      source,
		Sink:        sink,
		Cache:       reportCache,
		Goals:       goals.NewTracker(goalStore, nil),
		Attribution: attribution.NewCalculator(cfg.Scoring.Attribution),
		Cohorts:     cohort.NewAnalyzer(cfg.Scoring.Cohort),
		Audience:    aud,
		Sentiment:   sentiment.NewAnalyzer(nil),
		Predictive: predictive.NewEngine(predictive.Options{
			Random:   predictive.NewSeededSource(cfg.Scoring.RandomSeed),
			Audience: aud,
			Params:   cfg.Scoring.Predictive,
		}),
		Anomalies: anomaly.NewDetector(cfg.Scoring.Anomaly, nil),
	})

	logger.Info("analytics service configured",
		"source", cfg.Source.Type,
		"storage", cfg.Storage.Type,
		"goal_store", cfg.Goals.Store,
		"database", a.DB != nil,
		"redis", a.Redis != nil,
		"snowflake", a.Warehouse != nil,
		"feeds", cfg.Feeds.Enabled,
	)
	return nil
}

// buildSource layers the configured overlays on the base source. The sink
// is always the base source, so imports never write warehouse or feed data.
func (a *App) buildSource() (analytics.Source, analytics.Sink, error) {
	var (
		base analytics.Source
		sink analytics.Sink
	)
	switch a.Config.Source.Type {
	case config.SourceFile, config.SourceS3:
		doc := analytics.DocumentSource{Store: a.Documents, Key: a.Config.Source.Key}
		base, sink = doc, doc
	case config.SourcePostgres:
		if a.DB == nil {
			return nil, nil, errors.New("postgres source requires a database")
		}
		pg := analytics.PostgresSource{Repo: postgres.NewDatasetRepo(a.DB)}
		base, sink = pg, pg
	default:
		return nil, nil, fmt.Errorf("unknown source type %q", a.Config.Source.Type)
	}

	src := base
	if a.Config.Source.TrackingFromSnowflake {
		if a.collector == nil {
			return nil, nil, errors.New("tracking_from_snowflake requires snowflake.enabled")
		}
		src = analytics.TrackingOverlay{Base: src, Tracking: a.collector}
	}
	if a.Config.Feeds.Enabled {
		src = analytics.FeedOverlay{Base: src, Ingester: feeds.NewIngester(a.Config.Feeds, nil)}
	}
	return src, sink, nil
}

func (a *App) buildGoalStore(ctx context.Context) (goals.Store, error) {
	switch a.Config.Goals.Store {
	case config.GoalStorePostgres:
		if a.DB == nil {
			return nil, errors.New("postgres goal store requires a database")
		}
		return postgres.NewGoalRepo(a.DB), nil
	case config.GoalStoreDynamoDB:
		awsCfg, err := storage.LoadAWSConfig(ctx, a.Config.Storage.AWSRegion, a.Config.Storage.GetAWSProfile())
		if err != nil {
			return nil, err
		}
		return storage.NewDynamoGoalStore(storage.NewDynamoClient(awsCfg), a.Config.Storage.DynamoDBTable), nil
	default:
		return goals.NewMemoryStore(), nil
	}
}

// Start launches background collectors. They stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	if a.collector != nil {
		go a.collector.Start(ctx)
	}
}

// Close releases every open connection.
func (a *App) Close() {
	if a.Warehouse != nil {
		if err := a.Warehouse.Close(); err != nil {
			logger.Warn("close snowflake", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to redis", "addr", cfg.Addr)
	return client, nil
}
