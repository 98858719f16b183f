// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	Email      EmailConfig      `json:"email"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Storage    StorageConfig    `json:"storage"`
	Importer   ImporterConfig   `json:"importer"`
	Partners   PartnersConfig   `json:"partners"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DSN returns the postgres connection string for the configured database
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	RequestTimeout  time.Duration `json:"request_timeout"`
}

type SecurityConfig struct {
	AllowedOrigins   []string      `json:"allowed_origins"`
	AllowCredentials bool          `json:"allow_credentials"`
	CORSMaxAge       int           `json:"cors_max_age"`
	GlobalRateLimit  int           `json:"global_rate_limit"` // requests per window
	WriteRateLimit   int           `json:"write_rate_limit"`  // requests per window on mutating program routes
	RateLimitWindow  time.Duration `json:"rate_limit_window"`
}

// JWTConfig verifies the access tokens issued by the identity service
type JWTConfig struct {
	SecretKey  string `json:"secret_key"`
	PublicKey  string `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys bool   `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	Issuer     string `json:"issuer"`
	Audience   string `json:"audience"`
}

type EmailConfig struct {
	Provider  string        `json:"provider"` // smtp, mock
	Host      string        `json:"host"`
	Port      int           `json:"port"`
	Username  string        `json:"username"`
	Password  string        `json:"password"`
	FromEmail string        `json:"from_email"`
	FromName  string        `json:"from_name"`
	UseTLS    bool          `json:"use_tls"`
	Timeout   time.Duration `json:"timeout"`

	// Circuit breaker around the provider
	BreakerMaxRequests  uint32        `json:"breaker_max_requests"`
	BreakerInterval     time.Duration `json:"breaker_interval"`
	BreakerTimeout      time.Duration `json:"breaker_timeout"`
	BreakerMinRequests  uint32        `json:"breaker_min_requests"`
	BreakerFailureRatio float64       `json:"breaker_failure_ratio"`
}

type LoggingConfig struct {
	Level        string `json:"level"`  // debug, info, warn, error
	Format       string `json:"format"` // json, console
	Output       string `json:"output"` // stdout, file, both
	FilePath     string `json:"file_path"`
	MaxSize      int    `json:"max_size"` // MB
	MaxBackups   int    `json:"max_backups"`
	MaxAge       int    `json:"max_age"` // days
	Compress     bool   `json:"compress"`
	EnableCaller bool   `json:"enable_caller"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Provider        string        `json:"provider"` // redis
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	ProgramTTL      time.Duration `json:"program_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// StorageConfig configures the object store used for program logos
type StorageConfig struct {
	RootDir       string `json:"root_dir"`
	PublicBaseURL string `json:"public_base_url"`
	MaxLogoBytes  int64  `json:"max_logo_bytes"`
	MaxLogoSide   int    `json:"max_logo_side"`
}

// ImporterConfig configures the external campaign importer hand-off
type ImporterConfig struct {
	QueueKey       string        `json:"queue_key"`
	CredentialsKey string        `json:"credentials_key"`
	CredentialsTTL time.Duration `json:"credentials_ttl"`
}

// PartnersConfig holds partner program product settings
type PartnersConfig struct {
	BrandName         string `json:"brand_name"`
	AppBaseURL        string `json:"app_base_url"`
	PartnersBaseURL   string `json:"partners_base_url"`
	InviteConcurrency int    `json:"invite_concurrency"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// IsProduction reports whether the service runs in the production environment
func (c *ProductionConfig) IsProduction() bool {
	return c.Deployment.Environment == "production"
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "partners"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", time.Second),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 8*1024*1024), // 8MB
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			WriteRateLimit:   getEnvInt("WRITE_RATE_LIMIT", 60),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		JWT: JWTConfig{
			SecretKey:  getEnvString("JWT_SECRET_KEY", ""),
			PublicKey:  getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys: getEnvBool("JWT_USE_RSA_KEYS", false),
			Issuer:     getEnvString("JWT_ISSUER", "orochi-partners"),
			Audience:   getEnvString("JWT_AUDIENCE", "orochi-partners-api"),
		},
		Email: EmailConfig{
			Provider:            getEnvString("EMAIL_PROVIDER", "mock"),
			Host:                getEnvString("EMAIL_HOST", ""),
			Port:                getEnvInt("EMAIL_PORT", 587),
			Username:            getEnvString("EMAIL_USERNAME", ""),
			Password:            getEnvString("EMAIL_PASSWORD", ""),
			FromEmail:           getEnvString("EMAIL_FROM_EMAIL", "partners@localhost"),
			FromName:            getEnvString("EMAIL_FROM_NAME", "Partners"),
			UseTLS:              getEnvBool("EMAIL_USE_TLS", true),
			Timeout:             getEnvDuration("EMAIL_TIMEOUT", 30*time.Second),
			BreakerMaxRequests:  uint32(getEnvInt("EMAIL_BREAKER_MAX_REQUESTS", 3)),
			BreakerInterval:     getEnvDuration("EMAIL_BREAKER_INTERVAL", time.Minute),
			BreakerTimeout:      getEnvDuration("EMAIL_BREAKER_TIMEOUT", 2*time.Minute),
			BreakerMinRequests:  uint32(getEnvInt("EMAIL_BREAKER_MIN_REQUESTS", 10)),
			BreakerFailureRatio: getEnvFloat("EMAIL_BREAKER_FAILURE_RATIO", 0.6),
		},
		Logging: LoggingConfig{
			Level:        getEnvString("LOG_LEVEL", "info"),
			Format:       getEnvString("LOG_FORMAT", "json"),
			Output:       getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:     getEnvString("LOG_FILE_PATH", "/var/log/orochi-partners/app.log"),
			MaxSize:      getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:   getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:       getEnvInt("LOG_MAX_AGE", 30),
			Compress:     getEnvBool("LOG_COMPRESS", true),
			EnableCaller: getEnvBool("LOG_ENABLE_CALLER", false),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", true),
			Provider:        getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:        getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "partners:"),
			DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", time.Hour),
			ProgramTTL:      getEnvDuration("CACHE_PROGRAM_TTL", 10*time.Minute),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 30*time.Second),
		},
		Storage: StorageConfig{
			RootDir:       getEnvString("STORAGE_ROOT_DIR", "./data/storage"),
			PublicBaseURL: getEnvString("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/static"),
			MaxLogoBytes:  int64(getEnvInt("STORAGE_MAX_LOGO_BYTES", 2*1024*1024)),
			MaxLogoSide:   getEnvInt("STORAGE_MAX_LOGO_SIDE", 512),
		},
		Importer: ImporterConfig{
			QueueKey:       getEnvString("IMPORTER_QUEUE_KEY", "importer:rewardful:queue"),
			CredentialsKey: getEnvString("IMPORTER_CREDENTIALS_KEY", "importer:rewardful:credentials"),
			CredentialsTTL: getEnvDuration("IMPORTER_CREDENTIALS_TTL", 24*time.Hour),
		},
		Partners: PartnersConfig{
			BrandName:         getEnvString("PARTNERS_BRAND_NAME", "Orochi"),
			AppBaseURL:        getEnvString("PARTNERS_APP_BASE_URL", "http://localhost:3000"),
			PartnersBaseURL:   getEnvString("PARTNERS_BASE_URL", "http://localhost:3001"),
			InviteConcurrency: getEnvInt("PARTNERS_INVITE_CONCURRENCY", 4),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads variables from path if it exists. Variables already set in
// the environment win.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Database
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD is required")
	}

	// JWT
	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PublicKey == "" {
			errors = append(errors, "JWT_PUBLIC_KEY is required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.Issuer == "" {
		errors = append(errors, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errors = append(errors, "JWT_AUDIENCE is required")
	}

	// Server
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	// Email
	switch cfg.Email.Provider {
	case "mock":
	case "smtp":
		if cfg.Email.Host == "" {
			errors = append(errors, "EMAIL_HOST is required for the smtp provider")
		}
		if cfg.Email.FromEmail == "" {
			errors = append(errors, "EMAIL_FROM_EMAIL is required for the smtp provider")
		}
	default:
		errors = append(errors, "EMAIL_PROVIDER must be one of: smtp, mock")
	}
	if cfg.Email.BreakerFailureRatio <= 0 || cfg.Email.BreakerFailureRatio > 1 {
		errors = append(errors, "EMAIL_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}

	// Logging
	if cfg.Logging.Level != "" {
		switch cfg.Logging.Level {
		case "debug", "info", "warn", "error":
		default:
			errors = append(errors, "LOG_LEVEL must be one of: [debug info warn error]")
		}
	}
	switch cfg.Logging.Output {
	case "stdout":
	case "file", "both":
		if cfg.Logging.FilePath == "" {
			errors = append(errors, "LOG_FILE_PATH is required when logging to a file")
		}
	default:
		errors = append(errors, "LOG_OUTPUT must be one of: stdout, file, both")
	}

	// Cache
	if cfg.Cache.Enabled && cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
	}

	// Storage
	if cfg.Storage.RootDir == "" {
		errors = append(errors, "STORAGE_ROOT_DIR is required")
	}
	if cfg.Storage.PublicBaseURL == "" {
		errors = append(errors, "STORAGE_PUBLIC_BASE_URL is required")
	}
	if cfg.Storage.MaxLogoSide <= 0 {
		errors = append(errors, "STORAGE_MAX_LOGO_SIDE must be positive")
	}

	// Importer
	if cfg.Importer.QueueKey == "" {
		errors = append(errors, "IMPORTER_QUEUE_KEY is required")
	}

	// Partners
	if cfg.Partners.BrandName == "" {
		errors = append(errors, "PARTNERS_BRAND_NAME is required")
	}
	if cfg.Partners.InviteConcurrency <= 0 {
		errors = append(errors, "PARTNERS_INVITE_CONCURRENCY must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
