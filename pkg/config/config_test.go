package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "subjects", cfg.Store.Collection)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Catalog.RemapWildcardOnCreate)
	assert.Equal(t, time.Duration(0), cfg.Catalog.RefreshInterval)
	assert.Equal(t, "admin123", cfg.Session.AdminPassphrase)
	assert.Empty(t, cfg.Store.Missing())
}

func TestStoreMissingForHTTPDriver(t *testing.T) {
	store := StoreConfig{Driver: StoreDriverHTTP, Collection: "subjects", Endpoint: "https://cloud.example.com/v1"}
	assert.Equal(t, []string{"STORE_PROJECT_ID", "STORE_DATABASE_ID"}, store.Missing())
}

func TestOverridesAndParsing(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "HTTP")
	v.Set("STORE_ENDPOINT", "https://cloud.example.com/v1/")
	v.Set("CATALOG_REFRESH_INTERVAL", "90s")
	v.Set("CATALOG_CACHE_TTL", "not-a-duration")
	v.Set("CATALOG_REMAP_WILDCARD_ON_CREATE", true)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := fromViper(v)

	assert.Equal(t, StoreDriverHTTP, cfg.Store.Driver)
	assert.Equal(t, "https://cloud.example.com/v1", cfg.Store.Endpoint)
	assert.Equal(t, 90*time.Second, cfg.Catalog.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.True(t, cfg.Catalog.RemapWildcardOnCreate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
