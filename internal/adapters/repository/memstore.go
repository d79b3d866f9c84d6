package repository

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/profrate/internal/adapters/repository")

// MemoryStore is the process-lifetime Store. The map lock is held only for
// map access; score computation is guarded per record.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[uint32]*Record

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a record store with configuration options and
// starts its background metrics updater, bound to ctx.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[uint32]*Record),
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// GetOrCreate implements Store.GetOrCreate.
func (s *MemoryStore) GetOrCreate(ctx context.Context, id uint32, hit model.SearchHit) *Record {
	_, span := tracer.Start(ctx, "repository.GetOrCreate", trace.WithAttributes(attribute.Int64("rmp.id", int64(id))))
	defer span.End()

	s.mu.RLock()
	r, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	if r, ok = s.byID[id]; !ok {
		r = newRecord(id, hit)
		s.byID[id] = r
	}
	count := len(s.byID)
	s.mu.Unlock()

	if !ok {
		span.SetAttributes(attribute.Bool("rmp.created", true))
		metrics.UpdateRecordCount(count)
	}
	return r
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id uint32) (*Record, error) {
	_, span := tracer.Start(ctx, "repository.Get", trace.WithAttributes(attribute.Int64("rmp.id", int64(id))))
	defer span.End()

	s.mu.RLock()
	r, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}
	return r, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRecordCount(s.Count(ctx))
			}
		}
	}()
}
