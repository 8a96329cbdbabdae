package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Quota       QuotaConfig
	Pagination  PaginationConfig
	Guard       GuardConfig
	Queue       QueueConfig
	Webhook     WebhookConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// ConnString renders the connection string without pool settings, as
// understood by database/sql drivers
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// DSN renders the pgxpool connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d pool_min_conns=%d", c.ConnString(), c.MaxConns, c.MinConns)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Store selects the credential and task backend: postgres or memory
	Store string
}

// QuotaConfig holds per-caller request ceilings
type QuotaConfig struct {
	Backend             string
	AnonymousPerDay     int64
	AuthenticatedPerDay int64
	Window              time.Duration
	BurstPerSecond      float64
	Burst               int
}

// PaginationConfig holds list paging bounds
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// GuardConfig holds authorization policy switches
type GuardConfig struct {
	HideForeignTasks bool
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
	Exchange string
}

// URL renders the AMQP connection URL
func (c QueueConfig) URL() string {
	vhost := strings.TrimPrefix(c.Vhost, "/")
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, vhost)
}

// WebhookConfig holds task event forwarding configuration
type WebhookConfig struct {
	URLs        []string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds tracer configuration
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	AgentHost    string
	AgentPort    int
	SamplerParam float64
}

// Load reads configuration from file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required outside development")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("auth token lifetimes must be positive")
	}
	if c.Quota.AnonymousPerDay <= 0 || c.Quota.AuthenticatedPerDay <= 0 {
		return errors.New("quota ceilings must be positive")
	}
	if c.Quota.Window <= 0 {
		return errors.New("quota.window must be positive")
	}
	if c.Quota.BurstPerSecond > 0 && c.Quota.Burst < 1 {
		return errors.New("quota.burst must be at least 1 when quota.burstPerSecond is set")
	}
	if len(c.Webhook.URLs) > 0 && c.Webhook.MaxAttempts < 1 {
		return errors.New("webhook.maxAttempts must be at least 1")
	}
	switch c.Quota.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unknown quota backend %q", c.Quota.Backend)
	}
	switch c.Auth.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown store %q", c.Auth.Store)
	}
	if c.Pagination.DefaultPageSize <= 0 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return errors.New("pagination sizes are inconsistent")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.trustedProxies", []string{})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "tasktracker")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)
	v.SetDefault("database.autoMigrate", false)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.accessTTL", "1h")
	v.SetDefault("auth.refreshTTL", "24h")
	v.SetDefault("auth.store", "postgres")

	// Quota defaults
	v.SetDefault("quota.backend", "redis")
	v.SetDefault("quota.anonymousPerDay", 100)
	v.SetDefault("quota.authenticatedPerDay", 1000)
	v.SetDefault("quota.window", "24h")
	v.SetDefault("quota.burstPerSecond", 0)
	v.SetDefault("quota.burst", 20)

	// Pagination defaults
	v.SetDefault("pagination.defaultPageSize", 10)
	v.SetDefault("pagination.maxPageSize", 100)

	v.SetDefault("guard.hideForeignTasks", false)

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.exchange", "tasks")

	// Webhook defaults
	v.SetDefault("webhook.urls", []string{})
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.maxAttempts", 3)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "tasktracker")
	v.SetDefault("tracing.agentHost", "localhost")
	v.SetDefault("tracing.agentPort", 6831)
	v.SetDefault("tracing.samplerParam", 1.0)
}
