package service

import (
	"context"
	"strings"

	"github.com/okian/profrate/internal/adapters/mq/queue"
	"github.com/okian/profrate/internal/adapters/mq/worker"
	"github.com/okian/profrate/internal/domain/dedupe"
	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/pkg/logger"
	"github.com/okian/profrate/pkg/metrics"
)

// Start launches the prefetch pipeline and enqueues the configured names.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting professor service...")

	// Each run owns its pending set so a straggler from a previous run only
	// releases marks in its own set.
	s.pending = s.newPending()
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, warmer{s: s, pending: s.pending},
		worker.WithLogger(s.logger.Named("prefetch")),
	)
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.pool.Start(runCtx)
	s.started = true

	queued := s.enqueueLocked(ctx, s.prefetchNames)

	s.logger.Info(ctx, "professor service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("prefetch", queued),
	)

	return nil
}

// Prefetch enqueues names for background warming and returns how many were
// accepted. Names are dropped when the service is stopped, the queue is full
// or the same name is already pending.
func (s *Service) Prefetch(ctx context.Context, names ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enqueueLocked(ctx, names)
}

func (s *Service) enqueueLocked(ctx context.Context, names []string) int {
	if !s.started {
		return 0
	}
	n := 0
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		key := normalize(name)
		if s.pending.SeenAndRecord(ctx, key) {
			continue
		}
		if !s.queue.Enqueue(ctx, queue.Job{Name: name}) {
			s.pending.Unrecord(ctx, key)
			continue
		}
		n++
	}
	return n
}

// warmer releases a name's pending mark once its prefetch finished.
type warmer struct {
	s       *Service
	pending dedupe.Deduper
}

func (w warmer) ProfessorOverview(ctx context.Context, name string) (model.Professor, error) {
	defer w.pending.Unrecord(ctx, normalize(name))
	return w.s.ProfessorOverview(ctx, name)
}

// Stop shuts the prefetch pipeline down. Cached state is kept.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping professor service...")

	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "professor service stopped")
}

// Close stops the service and releases the record store.
func (s *Service) Close() error {
	s.Stop()
	if closer, ok := s.records.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()

	s.tokenMu.Lock()
	tokenCached := s.token != ""
	s.tokenMu.Unlock()

	records := s.records.Count(ctx)
	identities := s.identities.Len(ctx)

	stats := map[string]interface{}{
		"started":     s.started,
		"records":     records,
		"identities":  identities,
		"tokenCached": tokenCached,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"pending":     s.pending.Size(),
	}

	metrics.UpdateRecordCount(records)
	metrics.UpdateIdentityCount(identities)

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
