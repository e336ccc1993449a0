package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"chainsight/pkg/errors"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Postgres      PostgresConfig
	Provider      ProviderConfig
	Embeddings    EmbeddingsConfig
	Analysis      AnalysisConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"chainsight"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"chainsight"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"chainsight"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ProviderConfig configures the options data provider (Polygon)
type ProviderConfig struct {
	APIKey            string        `envconfig:"POLYGON_API_KEY" required:"true"`
	RequestsPerMinute int           `envconfig:"PROVIDER_REQUESTS_PER_MINUTE" default:"5"`
	RequestTimeout    time.Duration `envconfig:"PROVIDER_REQUEST_TIMEOUT" default:"15s"`
	MaxRetries        int           `envconfig:"PROVIDER_MAX_RETRIES" default:"3"`
	DefaultLimit      int           `envconfig:"PROVIDER_DEFAULT_LIMIT" default:"300"`
	MaxLimit          int           `envconfig:"PROVIDER_MAX_LIMIT" default:"1000"`
}

type EmbeddingsConfig struct {
	OpenAIKey string        `envconfig:"OPENAI_API_KEY"`
	Model     string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	Timeout   time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"30s"`
}

// AnalysisConfig holds every rule threshold used by the analysis pipeline.
// It is loaded once and injected into each component as an immutable record.
type AnalysisConfig struct {
	// Validator
	MinContracts         int     `envconfig:"ANALYSIS_MIN_CONTRACTS" default:"300"`
	MaxStrikeSpreadRatio float64 `envconfig:"ANALYSIS_MAX_STRIKE_SPREAD_RATIO" default:"20.0"`

	// Clustering
	GapThreshold   float64 `envconfig:"ANALYSIS_CLUSTER_GAP_THRESHOLD" default:"0.05"`
	MinClusterSize int     `envconfig:"ANALYSIS_MIN_CLUSTER_SIZE" default:"3"`

	// Sentiment corrective weights; heuristic, tunable
	SkewWeight          float64 `envconfig:"ANALYSIS_SKEW_WEIGHT" default:"0.1"`
	ConcentrationWeight float64 `envconfig:"ANALYSIS_CONCENTRATION_WEIGHT" default:"0.05"`

	// Confidence breakpoints on contract count
	ConfidenceLowBreak    int `envconfig:"ANALYSIS_CONFIDENCE_LOW_BREAK" default:"300"`
	ConfidenceMediumBreak int `envconfig:"ANALYSIS_CONFIDENCE_MEDIUM_BREAK" default:"500"`
	ConfidenceHighBreak   int `envconfig:"ANALYSIS_CONFIDENCE_HIGH_BREAK" default:"800"`

	// Concentration considered strong enough to adjust the sentiment score
	StrongConcentration float64 `envconfig:"ANALYSIS_STRONG_CONCENTRATION" default:"0.4"`

	// Risk assessor
	ElevatedPutConcentration float64 `envconfig:"ANALYSIS_ELEVATED_PUT_CONCENTRATION" default:"0.6"`
	ModeratePutConcentration float64 `envconfig:"ANALYSIS_MODERATE_PUT_CONCENTRATION" default:"0.45"`
	ExtremeImbalanceRatio    float64 `envconfig:"ANALYSIS_EXTREME_IMBALANCE_RATIO" default:"0.4"`

	// Hedging pattern detection
	HedgeBandPct     float64 `envconfig:"ANALYSIS_HEDGE_BAND_PCT" default:"0.05"`
	HedgeBalanceLow  float64 `envconfig:"ANALYSIS_HEDGE_BALANCE_LOW" default:"0.8"`
	HedgeBalanceHigh float64 `envconfig:"ANALYSIS_HEDGE_BALANCE_HIGH" default:"1.25"`
	HedgeMinDays     int     `envconfig:"ANALYSIS_HEDGE_MIN_DAYS" default:"60"`

	// Anomaly grading
	AnomalyNoneBound     float64 `envconfig:"ANALYSIS_ANOMALY_NONE_BOUND" default:"0.95"`
	AnomalyLowBound      float64 `envconfig:"ANALYSIS_ANOMALY_LOW_BOUND" default:"0.8"`
	AnomalyMediumBound   float64 `envconfig:"ANALYSIS_ANOMALY_MEDIUM_BOUND" default:"0.5"`
	ChangedMetricDelta   float64 `envconfig:"ANALYSIS_CHANGED_METRIC_DELTA" default:"0.10"`
	AnomalyNeighborLimit int     `envconfig:"ANALYSIS_ANOMALY_NEIGHBOR_LIMIT" default:"5"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	Port    int  `envconfig:"METRICS_PORT" default:"9091"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	RefreshInterval time.Duration `envconfig:"WORKER_REFRESH_INTERVAL" default:"1h"`
	RefreshEnabled  bool          `envconfig:"WORKER_REFRESH_ENABLED" default:"false"`
	Watchlist       []string      `envconfig:"WORKER_WATCHLIST"`
	WatchPeriod     string        `envconfig:"WORKER_WATCH_PERIOD"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
