package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/models"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(&memoryCacheRepo{}, nil, 0, nil, false)
	assert.False(t, svc.Enabled())

	var dest []models.Subject
	hit, err := svc.Get(context.Background(), CatalogCacheKey, &dest)
	assert.False(t, hit)
	assert.NoError(t, err)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(context.Background(), CatalogCachePattern))
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&memoryCacheRepo{}, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest []models.Subject
	hit, err := svc.Get(ctx, CatalogCacheKey, &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, CatalogCacheKey, catalogFixture(), 0))
	hit, err = svc.Get(ctx, CatalogCacheKey, &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, dest, 3)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil, true)
	ctx := context.Background()

	var dest []models.Subject
	hit, err := svc.Get(ctx, CatalogCacheKey, &dest)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, svc.Set(ctx, CatalogCacheKey, catalogFixture(), 0))
	assert.Error(t, svc.Invalidate(ctx, CatalogCachePattern))
}
