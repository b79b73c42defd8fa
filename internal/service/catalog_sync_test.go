package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls    int32
	fallback bool
}

func (r *countingRefresher) Refresh(ctx context.Context) RefreshResult {
	atomic.AddInt32(&r.calls, 1)
	return RefreshResult{Applied: !r.fallback, Fallback: r.fallback}
}

func (r *countingRefresher) count() int32 {
	return atomic.LoadInt32(&r.calls)
}

func TestCatalogSyncerTrigger(t *testing.T) {
	refresher := &countingRefresher{}
	syncer := NewCatalogSyncer(refresher, CatalogSyncConfig{}, nil)

	_, err := syncer.Trigger("admin")
	require.Error(t, err, "trigger before start fails")

	syncer.Start(context.Background())
	defer syncer.Stop()

	id, err := syncer.Trigger("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Eventually(t, func() bool { return refresher.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCatalogSyncerSchedule(t *testing.T) {
	refresher := &countingRefresher{}
	syncer := NewCatalogSyncer(refresher, CatalogSyncConfig{Interval: 10 * time.Millisecond}, nil)
	syncer.Start(context.Background())
	defer syncer.Stop()

	require.Eventually(t, func() bool { return refresher.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestCatalogSyncerRetriesWhileStoreUnavailable(t *testing.T) {
	refresher := &countingRefresher{fallback: true}
	syncer := NewCatalogSyncer(refresher, CatalogSyncConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond}, nil)
	syncer.Start(context.Background())
	defer syncer.Stop()

	_, err := syncer.Trigger("admin")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return refresher.count() == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestCatalogSyncerStopIsIdempotent(t *testing.T) {
	syncer := NewCatalogSyncer(&countingRefresher{}, CatalogSyncConfig{}, nil)
	syncer.Stop()
	syncer.Start(context.Background())
	syncer.Stop()
	syncer.Stop()
}
