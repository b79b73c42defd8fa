package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Document store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverHTTP     = "http"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	Catalog  CatalogConfig
	Session  SessionConfig
	CORS     CORSConfig
	Log      LogConfig
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

// StoreConfig selects and addresses the remote document collection.
type StoreConfig struct {
	Driver     string
	Collection string
	Endpoint   string
	ProjectID  string
	DatabaseID string
	APIKey     string
	Timeout    time.Duration
}

// Missing lists the settings the selected driver requires but lacks.
func (s StoreConfig) Missing() []string {
	var missing []string
	if s.Collection == "" {
		missing = append(missing, "STORE_COLLECTION")
	}
	if s.Driver != StoreDriverHTTP {
		return missing
	}
	if s.Endpoint == "" {
		missing = append(missing, "STORE_ENDPOINT")
	}
	if s.ProjectID == "" {
		missing = append(missing, "STORE_PROJECT_ID")
	}
	if s.DatabaseID == "" {
		missing = append(missing, "STORE_DATABASE_ID")
	}
	return missing
}

// CatalogConfig tunes the in-memory catalog and its refresh cadence.
type CatalogConfig struct {
	RemapWildcardOnCreate bool
	CacheEnabled          bool
	CacheTTL              time.Duration
	RefreshInterval       time.Duration
	RefreshWorkers        int
}

// SessionConfig holds the signing secret and the admin screen passphrase.
type SessionConfig struct {
	Secret          string
	AdminPassphrase string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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

	cfg.Store = StoreConfig{
		Driver:     strings.ToLower(v.GetString("STORE_DRIVER")),
		Collection: v.GetString("STORE_COLLECTION"),
		Endpoint:   strings.TrimRight(v.GetString("STORE_ENDPOINT"), "/"),
		ProjectID:  v.GetString("STORE_PROJECT_ID"),
		DatabaseID: v.GetString("STORE_DATABASE_ID"),
		APIKey:     v.GetString("STORE_API_KEY"),
		Timeout:    parseDuration(v.GetString("STORE_TIMEOUT"), 5*time.Second),
	}

	cfg.Catalog = CatalogConfig{
		RemapWildcardOnCreate: v.GetBool("CATALOG_REMAP_WILDCARD_ON_CREATE"),
		CacheEnabled:          v.GetBool("CATALOG_CACHE_ENABLED"),
		CacheTTL:              parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
		RefreshInterval:       parseDuration(v.GetString("CATALOG_REFRESH_INTERVAL"), 0),
		RefreshWorkers:        v.GetInt("CATALOG_REFRESH_WORKERS"),
	}

	cfg.Session = SessionConfig{
		Secret:          v.GetString("SESSION_SECRET"),
		AdminPassphrase: v.GetString("ADMIN_PASSPHRASE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "subject_catalog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_COLLECTION", "subjects")
	v.SetDefault("STORE_ENDPOINT", "")
	v.SetDefault("STORE_PROJECT_ID", "")
	v.SetDefault("STORE_DATABASE_ID", "")
	v.SetDefault("STORE_API_KEY", "")
	v.SetDefault("STORE_TIMEOUT", "5s")

	v.SetDefault("CATALOG_REMAP_WILDCARD_ON_CREATE", false)
	v.SetDefault("CATALOG_CACHE_ENABLED", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("CATALOG_REFRESH_INTERVAL", "")
	v.SetDefault("CATALOG_REFRESH_WORKERS", 1)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("ADMIN_PASSPHRASE", "admin123")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
