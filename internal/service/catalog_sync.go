package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
	"github.com/noah-isme/subject-catalog-api/pkg/jobs"
)

const catalogRefreshJob = "catalog.refresh"

type catalogRefresher interface {
	Refresh(ctx context.Context) RefreshResult
}

// CatalogSyncConfig tunes background refreshes.
type CatalogSyncConfig struct {
	// Interval between scheduled refreshes. Zero disables the schedule.
	Interval   time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// CatalogSyncer refreshes the catalog in the background, on a schedule and
// on demand. Overlapping refreshes are safe: the engine discards results
// older than the last one applied.
type CatalogSyncer struct {
	refresher catalogRefresher
	queue     *jobs.Queue
	cfg       CatalogSyncConfig
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCatalogSyncer constructs a syncer.
func NewCatalogSyncer(refresher catalogRefresher, cfg CatalogSyncConfig, logger *zap.Logger) *CatalogSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	s := &CatalogSyncer{refresher: refresher, cfg: cfg, logger: logger}
	s.queue = jobs.NewQueue("catalog-sync", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 1,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and, when configured, the refresh schedule.
func (s *CatalogSyncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	if s.cfg.Interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Trigger("schedule"); err != nil {
					s.logger.Warn("scheduled catalog refresh not queued", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the schedule and the workers.
func (s *CatalogSyncer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.queue.Stop()
}

// Trigger queues a refresh. When one is already waiting the request is
// folded into it and the returned id is empty.
func (s *CatalogSyncer) Trigger(reason string) (string, error) {
	job := jobs.Job{ID: uuid.NewString(), Type: catalogRefreshJob, Payload: reason}
	err := s.queue.TryEnqueue(job)
	if errors.Is(err, jobs.ErrQueueFull) {
		return "", nil
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "catalog refresh unavailable")
	}
	return job.ID, nil
}

func (s *CatalogSyncer) handle(ctx context.Context, job jobs.Job) error {
	result := s.refresher.Refresh(ctx)
	s.logger.Info("catalog refreshed",
		zap.String("job_id", job.ID),
		zap.Any("reason", job.Payload),
		zap.Bool("applied", result.Applied),
		zap.Bool("fallback", result.Fallback),
		zap.String("source", string(result.Source)),
		zap.Int("size", result.Size),
		zap.Uint64("version", result.Version),
	)
	if result.Fallback {
		return errors.New("document store unavailable")
	}
	return nil
}
