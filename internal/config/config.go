package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/irfndi/bovara-ml/internal/analytics"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	NATS        NATSConfig      `mapstructure:"nats"`
	Worker      WorkerConfig    `mapstructure:"worker"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	AdminAPIKey    string        `mapstructure:"admin_api_key" json:"-"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password" json:"-"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

// DSN returns DatabaseURL when set, otherwise a keyword/value connection string
func (c DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password" json:"-"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig configures the JetStream task transport
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	Stream          string        `mapstructure:"stream"`
	ForecastSubject string        `mapstructure:"forecast_subject"`
	ClusterSubject  string        `mapstructure:"cluster_subject"`
	ResultSubject   string        `mapstructure:"result_subject"`
	DurablePrefix   string        `mapstructure:"durable_prefix"`
	MaxDeliver      int           `mapstructure:"max_deliver"`
	AckWait         time.Duration `mapstructure:"ack_wait"`
}

// WorkerConfig tunes task processing
type WorkerConfig struct {
	WeightLookbackDays int           `mapstructure:"weight_lookback_days"`
	ReproLookbackDays  int           `mapstructure:"repro_lookback_days"`
	BirthLookbackDays  int           `mapstructure:"birth_lookback_days"`
	TaskTimeout        time.Duration `mapstructure:"task_timeout"`
	ClaimTTL           time.Duration `mapstructure:"claim_ttl"`
	DoneTTL            time.Duration `mapstructure:"done_ttl"`
	RefreshConcurrency int           `mapstructure:"refresh_concurrency"`
}

// AnalyticsConfig tunes the prediction engine
type AnalyticsConfig struct {
	KMeansK       int    `mapstructure:"kmeans_k"`
	MaxIterations int    `mapstructure:"max_iterations"`
	Restarts      int    `mapstructure:"restarts"`
	Seed          uint64 `mapstructure:"seed"`
	LabelStrategy string `mapstructure:"label_strategy"`
	TrendDegree   int    `mapstructure:"trend_degree"`
	HorizonDays   int    `mapstructure:"horizon_days"`
}

// EngineConfig converts the section into engine settings
func (a AnalyticsConfig) EngineConfig() analytics.Config {
	cfg := analytics.DefaultConfig()
	cfg.KMeans.K = a.KMeansK
	cfg.KMeans.MaxIter = a.MaxIterations
	cfg.KMeans.Restarts = a.Restarts
	cfg.KMeans.Seed = a.Seed
	cfg.LabelStrategy = a.LabelStrategy
	cfg.TrendDegree = a.TrendDegree
	cfg.HorizonDays = a.HorizonDays
	return cfg
}

// TelemetryConfig controls Sentry. SampleRate applies to HTTP transactions,
// InvocationSampleRate to predictions and refreshes started by the consumer or CLI.
type TelemetryConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	DSN                  string  `mapstructure:"dsn" json:"-"`
	SampleRate           float64 `mapstructure:"sample_rate"`
	InvocationSampleRate float64 `mapstructure:"invocation_sample_rate"`
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	bindings := map[string]string{
		"server.admin_api_key":  "ADMIN_API_KEY",
		"database.database_url": "DATABASE_URL",
		"nats.url":              "NATS_URL",
		"telemetry.dsn":         "SENTRY_DSN",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks ranges that would otherwise fail deep inside a worker
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Server.AdminAPIKey == "" {
		return errors.New("ADMIN_API_KEY environment variable is required in non-development environments")
	}
	if c.Worker.WeightLookbackDays <= 0 || c.Worker.ReproLookbackDays <= 0 || c.Worker.BirthLookbackDays <= 0 {
		return fmt.Errorf("lookback windows must be positive, got weight=%d repro=%d birth=%d",
			c.Worker.WeightLookbackDays, c.Worker.ReproLookbackDays, c.Worker.BirthLookbackDays)
	}
	if c.Worker.RefreshConcurrency < 1 {
		return fmt.Errorf("refresh concurrency must be at least 1, got %d", c.Worker.RefreshConcurrency)
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("nats max_deliver must be at least 1, got %d", c.NATS.MaxDeliver)
	}
	for name, rate := range map[string]float64{"sample_rate": c.Telemetry.SampleRate, "invocation_sample_rate": c.Telemetry.InvocationSampleRate} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("telemetry %s must be within [0, 1], got %g", name, rate)
		}
	}
	if _, err := analytics.NewEngine(c.Analytics.EngineConfig()); err != nil {
		return fmt.Errorf("invalid analytics configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_api_key", "")
	v.SetDefault("server.request_timeout", "30s")

	// Set database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "bovara")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NATS
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream", "ML_TASKS")
	v.SetDefault("nats.forecast_subject", "ml.tasks.forecast")
	v.SetDefault("nats.cluster_subject", "ml.tasks.cluster")
	v.SetDefault("nats.result_subject", "ml.results")
	v.SetDefault("nats.durable_prefix", "bovara-ml")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("nats.ack_wait", "60s")

	// Worker
	v.SetDefault("worker.weight_lookback_days", 90)
	v.SetDefault("worker.repro_lookback_days", 365)
	v.SetDefault("worker.birth_lookback_days", 1095)
	v.SetDefault("worker.task_timeout", "60s")
	v.SetDefault("worker.claim_ttl", "10m")
	v.SetDefault("worker.done_ttl", "24h")
	v.SetDefault("worker.refresh_concurrency", 4)

	// Analytics
	v.SetDefault("analytics.kmeans_k", 3)
	v.SetDefault("analytics.max_iterations", 300)
	v.SetDefault("analytics.restarts", 10)
	v.SetDefault("analytics.seed", 42)
	v.SetDefault("analytics.label_strategy", "own_gain")
	v.SetDefault("analytics.trend_degree", 1)
	v.SetDefault("analytics.horizon_days", 730)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
	v.SetDefault("telemetry.sample_rate", 0.2)
	v.SetDefault("telemetry.invocation_sample_rate", 1.0)
}
