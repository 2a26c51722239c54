package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Admin    AdminConfig
	Sessions SessionsConfig
	Engine   EngineConfig
	UISync   UISyncConfig
	Reports  ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig secures the admin route group (cleanup, exports).
type AdminConfig struct {
	TokenSecret string
}

// SessionsConfig tunes the session registry and the staleness sweep.
type SessionsConfig struct {
	SweepEnabled  bool
	SweepInterval time.Duration
	MaxPendingAge time.Duration
	ResultsTTL    time.Duration
}

// EngineConfig tunes the impact engine worker queue.
type EngineConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// UISyncConfig governs the dashboard sync channel kept in Redis.
type UISyncConfig struct {
	TTL time.Duration
}

// ReportsConfig gates progress report exports.
type ReportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		TokenSecret: v.GetString("ADMIN_TOKEN_SECRET"),
	}

	cfg.Sessions = SessionsConfig{
		SweepEnabled:  v.GetBool("SESSION_SWEEP_ENABLED"),
		SweepInterval: parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), 15*time.Minute),
		MaxPendingAge: parseDuration(v.GetString("SESSION_MAX_PENDING_AGE"), time.Hour),
		ResultsTTL:    parseDuration(v.GetString("SESSION_RESULTS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Engine = EngineConfig{
		WorkerConcurrency: v.GetInt("ENGINE_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ENGINE_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("ENGINE_RETRY_DELAY"), time.Second),
	}

	cfg.UISync = UISyncConfig{
		TTL: parseDuration(v.GetString("UI_SYNC_TTL"), 24*time.Hour),
	}

	cfg.Reports = ReportsConfig{
		Enabled: v.GetBool("ENABLE_REPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edubright")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_TOKEN_SECRET", "dev_admin_secret")

	v.SetDefault("SESSION_SWEEP_ENABLED", true)
	v.SetDefault("SESSION_SWEEP_INTERVAL", "15m")
	v.SetDefault("SESSION_MAX_PENDING_AGE", "1h")
	v.SetDefault("SESSION_RESULTS_CACHE_TTL", "30s")

	v.SetDefault("ENGINE_WORKER_CONCURRENCY", 1)
	v.SetDefault("ENGINE_WORKER_RETRIES", 3)
	v.SetDefault("ENGINE_RETRY_DELAY", "1s")

	v.SetDefault("UI_SYNC_TTL", "24h")

	v.SetDefault("ENABLE_REPORTS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
