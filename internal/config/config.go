package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	PNCP     PNCPConfig     `json:"pncp"`
	Snapshot SnapshotConfig `json:"snapshot"`
	Query    QueryConfig    `json:"query"`
	Scoring  ScoringConfig  `json:"scoring"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port" validate:"min=1,max=65535"`
	Environment  string `json:"environment" validate:"oneof=development staging production test"`
	ReadTimeout  int    `json:"read_timeout" validate:"min=1"`
	WriteTimeout int    `json:"write_timeout" validate:"min=1"`
	IdleTimeout  int    `json:"idle_timeout" validate:"min=1"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host" validate:"required_if=Enabled true"`
	Port         int           `json:"port" validate:"min=1,max=65535"`
	Password     string        `json:"-"`
	DB           int           `json:"db" validate:"min=0"`
	PoolSize     int           `json:"pool_size" validate:"min=1"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// PNCPConfig holds upstream API configuration
type PNCPConfig struct {
	BaseURL           string        `json:"base_url" validate:"required,url"`
	UserAgent         string        `json:"user_agent"`
	RequestTimeout    time.Duration `json:"request_timeout" validate:"min=1ms"`
	PageDelay         time.Duration `json:"page_delay" validate:"min=0"`
	ModalityDelay     time.Duration `json:"modality_delay" validate:"min=0"`
	RetryBackoff      time.Duration `json:"retry_backoff" validate:"min=0"`
	MaxPages          int           `json:"max_pages" validate:"min=1"`
	MaxItems          int           `json:"max_items" validate:"min=1"`
	PageSize          int           `json:"page_size" validate:"min=1"`
	Modalities        []string      `json:"modalities" validate:"min=1,dive,numeric"`
	IncludeSecondary  bool          `json:"include_secondary"`
	RequestsPerSecond float64       `json:"requests_per_second" validate:"min=0"`
	Burst             int           `json:"burst" validate:"min=1"`
}

// SnapshotConfig holds cache snapshot configuration
type SnapshotConfig struct {
	Path                string        `json:"path" validate:"required"`
	RangeDays           int           `json:"range_days" validate:"min=1,max=365"`
	PageSize            int           `json:"page_size" validate:"min=1"`
	RequestTimeout      time.Duration `json:"request_timeout" validate:"min=1ms"`
	MaxPages            int           `json:"max_pages" validate:"min=1"`
	MaxItemsPerModality int           `json:"max_items_per_modality" validate:"min=1"`
	MaxItemsTotal       int           `json:"max_items_total" validate:"min=1"`
	MaxErrors           int           `json:"max_errors" validate:"min=0"`
	ModalityDelay       time.Duration `json:"modality_delay" validate:"min=0"`
	Schedule            string        `json:"schedule"`
	BuildTimeout        time.Duration `json:"build_timeout" validate:"min=1s"`
	MaxAge              time.Duration `json:"max_age" validate:"min=0"`
	UseForQueries       bool          `json:"use_for_queries"`
}

// QueryConfig holds live query configuration
type QueryConfig struct {
	DefaultRangeDays int           `json:"default_range_days" validate:"min=1,max=365"`
	MaxRangeDays     int           `json:"max_range_days" validate:"min=1,gtefield=DefaultRangeDays"`
	CacheTTL         time.Duration `json:"cache_ttl" validate:"min=0"`
	SessionTTL       time.Duration `json:"session_ttl" validate:"min=1s"`
}

// ScoringConfig holds relevance scorer configuration
type ScoringConfig struct {
	VocabularyFile string `json:"vocabulary_file"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `json:"format" validate:"oneof=json text"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" validate:"min=1"`
	BurstSize         int           `json:"burst_size" validate:"min=1"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 600),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		PNCP: PNCPConfig{
			BaseURL:           getEnv("PNCP_BASE_URL", "https://pncp.gov.br/api/consulta/v1"),
			UserAgent:         getEnv("PNCP_USER_AGENT", "pncp-vagas/1.0"),
			RequestTimeout:    getEnvAsDuration("PNCP_REQUEST_TIMEOUT", 20*time.Second),
			PageDelay:         getEnvAsDuration("PNCP_PAGE_DELAY", 120*time.Millisecond),
			ModalityDelay:     getEnvAsDuration("PNCP_MODALITY_DELAY", 300*time.Millisecond),
			RetryBackoff:      getEnvAsDuration("PNCP_RETRY_BACKOFF", 900*time.Millisecond),
			MaxPages:          getEnvAsInt("PNCP_MAX_PAGES", 80),
			MaxItems:          getEnvAsInt("PNCP_MAX_ITEMS", 15000),
			PageSize:          getEnvAsInt("PNCP_PAGE_SIZE", 50),
			Modalities:        getEnvAsList("PNCP_MODALITIES", []string{"6", "8", "2", "3", "7"}),
			IncludeSecondary:  getEnvAsBool("PNCP_INCLUDE_SECONDARY", false),
			RequestsPerSecond: getEnvAsFloat("PNCP_REQUESTS_PER_SECOND", 4),
			Burst:             getEnvAsInt("PNCP_BURST", 2),
		},
		Snapshot: SnapshotConfig{
			Path:                getEnv("SNAPSHOT_PATH", "data/cache.json"),
			RangeDays:           getEnvAsInt("SNAPSHOT_RANGE_DAYS", 30),
			PageSize:            getEnvAsInt("SNAPSHOT_PAGE_SIZE", 500),
			RequestTimeout:      getEnvAsDuration("SNAPSHOT_REQUEST_TIMEOUT", 25*time.Second),
			MaxPages:            getEnvAsInt("SNAPSHOT_MAX_PAGES", 80),
			MaxItemsPerModality: getEnvAsInt("SNAPSHOT_MAX_ITEMS_PER_MODALITY", 6000),
			MaxItemsTotal:       getEnvAsInt("SNAPSHOT_MAX_ITEMS_TOTAL", 12000),
			MaxErrors:           getEnvAsInt("SNAPSHOT_MAX_ERRORS", 30),
			ModalityDelay:       getEnvAsDuration("SNAPSHOT_MODALITY_DELAY", 220*time.Millisecond),
			Schedule:            getEnv("SNAPSHOT_SCHEDULE", "0 6 * * *"),
			BuildTimeout:        getEnvAsDuration("SNAPSHOT_BUILD_TIMEOUT", 30*time.Minute),
			MaxAge:              getEnvAsDuration("SNAPSHOT_MAX_AGE", 36*time.Hour),
			UseForQueries:       getEnvAsBool("SNAPSHOT_USE_FOR_QUERIES", true),
		},
		Query: QueryConfig{
			DefaultRangeDays: getEnvAsInt("QUERY_DEFAULT_RANGE_DAYS", 30),
			MaxRangeDays:     getEnvAsInt("QUERY_MAX_RANGE_DAYS", 90),
			CacheTTL:         getEnvAsDuration("QUERY_CACHE_TTL", 15*time.Minute),
			SessionTTL:       getEnvAsDuration("QUERY_SESSION_TTL", 30*time.Minute),
		},
		Scoring: ScoringConfig{
			VocabularyFile: getEnv("SCORING_VOCABULARY_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("250ms") or plain
// milliseconds ("250").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
