package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/audience"
	"github.com/ignite/influencer-analytics/internal/cohort"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/predictive"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Log       LogConfig               `yaml:"log"`
	Source    SourceConfig            `yaml:"source"`
	Storage   StorageConfig           `yaml:"storage"`
	Database  DatabaseConfig          `yaml:"database"`
	Redis     RedisConfig             `yaml:"redis"`
	Snowflake SnowflakeConfig         `yaml:"snowflake"`
	Feeds     FeedsConfig             `yaml:"feeds"`
	Report    ReportConfig            `yaml:"report"`
	Goals     GoalsConfig             `yaml:"goals"`
	Scoring   ScoringConfig           `yaml:"scoring"`
	Brands    []audience.BrandProfile `yaml:"brands"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	ReadTimeoutSeconds int      `yaml:"read_timeout_seconds"`
	// ShutdownSeconds bounds graceful shutdown.
	ShutdownSeconds int `yaml:"shutdown_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. It defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Dataset source kinds.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// SourceConfig selects where the dataset is loaded from.
type SourceConfig struct {
	Type string `yaml:"type"` // file | s3 | postgres
	// Key is the dataset document key: a path for file, an object key for s3.
	Key string `yaml:"key"`
	// TrackingFromSnowflake replaces the dataset's tracking events with the
	// warehouse's when snowflake is enabled.
	TrackingFromSnowflake bool `yaml:"tracking_from_snowflake"`
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // local | s3
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Prefix      string `yaml:"s3_prefix"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Enabled reports whether a database URL is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig holds the report cache and lock backend settings.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// CacheTTL returns the cache TTL as a duration.
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SnowflakeConfig holds the warehouse holding tracking events.
type SnowflakeConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Account          string `yaml:"account"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	Schema           string `yaml:"schema"`
	Warehouse        string `yaml:"warehouse"`
	Table            string `yaml:"table"`
	Enabled          bool   `yaml:"enabled"`
}

// FeedsConfig controls RSS/Atom post ingestion.
type FeedsConfig struct {
	Enabled        bool `yaml:"enabled"`
	MaxRetries     int  `yaml:"max_retries"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	MaxItems       int  `yaml:"max_items"`
}

// ReportConfig controls the scheduled report job.
type ReportConfig struct {
	IntervalMinutes int    `yaml:"interval_minutes"`
	LockTTLSeconds  int    `yaml:"lock_ttl_seconds"`
	KeyPrefix       string `yaml:"key_prefix"`
}

// Interval returns the report interval as a duration
func (c ReportConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LockTTL returns the report lock TTL as a duration, 10 minutes when unset
// or negative.
func (c ReportConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return defaultLockTTL
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

const defaultLockTTL = 10 * time.Minute

// Goal store kinds.
const (
	GoalStoreMemory   = "memory"
	GoalStorePostgres = "postgres"
	GoalStoreDynamoDB = "dynamodb"
)

// GoalsConfig selects the goal store.
type GoalsConfig struct {
	Store string `yaml:"store"` // memory | postgres | dynamodb
}

// ScoringConfig overrides the calibration constants of the scoring packages.
// Omitted fields keep the package defaults.
type ScoringConfig struct {
	RandomSeed  int64              `yaml:"random_seed"`
	Attribution attribution.Params `yaml:"attribution"`
	Cohort      cohort.Params      `yaml:"cohort"`
	Predictive  *predictive.Params `yaml:"predictive"`
	Anomaly     anomaly.Params     `yaml:"anomaly"`
}

// BrandProfiles returns the configured brand table keyed by brand, or nil to
// use the built-in table.
func (c *Config) BrandProfiles() map[domain.Brand]audience.BrandProfile {
	if len(c.Brands) == 0 {
		return nil
	}
	out := make(map[domain.Brand]audience.BrandProfile, len(c.Brands))
	for _, b := range c.Brands {
		out[b.Brand] = b
	}
	return out
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.ShutdownSeconds == 0 {
		cfg.Server.ShutdownSeconds = 15
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = SourceFile
	}
	if cfg.Source.Key == "" {
		cfg.Source.Key = "dataset.json"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.CacheTTLSeconds == 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	if cfg.Snowflake.Database == "" {
		cfg.Snowflake.Database = "INFLUENCER_ANALYTICS"
	}
	if cfg.Snowflake.Schema == "" {
		cfg.Snowflake.Schema = "TRACKING"
	}
	if cfg.Snowflake.Table == "" {
		cfg.Snowflake.Table = "ORDERS"
	}
	if cfg.Feeds.MaxRetries == 0 {
		cfg.Feeds.MaxRetries = 3
	}
	if cfg.Feeds.TimeoutSeconds == 0 {
		cfg.Feeds.TimeoutSeconds = 20
	}
	if cfg.Feeds.MaxItems == 0 {
		cfg.Feeds.MaxItems = 50
	}
	if cfg.Report.IntervalMinutes == 0 {
		cfg.Report.IntervalMinutes = 60
	}
	if cfg.Report.LockTTLSeconds == 0 {
		cfg.Report.LockTTLSeconds = 600
	}
	if cfg.Report.KeyPrefix == "" {
		cfg.Report.KeyPrefix = "reports"
	}
	if cfg.Goals.Store == "" {
		cfg.Goals.Store = GoalStoreMemory
	}
	if cfg.Scoring.RandomSeed == 0 {
		cfg.Scoring.RandomSeed = 1
	}
	// a zero organic share is a valid setting, so only fill an absent block
	if cfg.Scoring.Attribution == (attribution.Params{}) {
		cfg.Scoring.Attribution = attribution.DefaultParams()
	}
}

// Validate checks cross-field constraints after defaults are applied.
func (cfg *Config) Validate() error {
	switch cfg.Source.Type {
	case SourceFile, SourceS3:
	case SourcePostgres:
		if !cfg.Database.Enabled() {
			return fmt.Errorf("config: source type postgres requires database.url")
		}
	default:
		return fmt.Errorf("config: unknown source type %q", cfg.Source.Type)
	}
	switch cfg.Storage.Type {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("config: storage type s3 requires storage.s3_bucket")
		}
	default:
		return fmt.Errorf("config: unknown storage type %q", cfg.Storage.Type)
	}
	if cfg.Source.Type == SourceS3 && cfg.Storage.Type != "s3" {
		return fmt.Errorf("config: source type s3 requires storage type s3")
	}
	switch cfg.Goals.Store {
	case GoalStoreMemory:
	case GoalStorePostgres:
		if !cfg.Database.Enabled() {
			return fmt.Errorf("config: goal store postgres requires database.url")
		}
	case GoalStoreDynamoDB:
		if cfg.Storage.DynamoDBTable == "" {
			return fmt.Errorf("config: goal store dynamodb requires storage.dynamodb_table")
		}
	default:
		return fmt.Errorf("config: unknown goal store %q", cfg.Goals.Store)
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	// Database override (critical for deployments where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); v != "" {
		cfg.Snowflake.ConnectionString = v
		cfg.Snowflake.Enabled = true
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
