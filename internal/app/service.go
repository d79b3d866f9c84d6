// Package service is the resolution-and-scoring cache controller behind the
// HTTP API. It memoizes name to professor resolution, professor scores and
// the review site's GraphQL token for the lifetime of the process.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/okian/profrate/internal/adapters/mq/queue"
	"github.com/okian/profrate/internal/adapters/mq/worker"
	"github.com/okian/profrate/internal/adapters/repository"
	"github.com/okian/profrate/internal/domain/dedupe"
	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/internal/domain/scoring"
	"github.com/okian/profrate/pkg/logger"
	"github.com/okian/profrate/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/profrate/internal/app")

// Gateway is the review site as seen by the controller. Every failure is
// treated alike.
type Gateway interface {
	Search(ctx context.Context, name string) ([]model.SearchHit, error)
	FetchRatings(ctx context.Context, token string, id uint32, course string) ([]model.Rating, error)
	FetchToken(ctx context.Context) (string, error)
}

// Service implements the API dependencies for the professor routes.
type Service struct {
	gateway    Gateway
	records    repository.Store
	identities repository.Index
	scorer     scoring.Scorer

	// tokenMu guards token only; fetches run outside it.
	tokenMu sync.Mutex
	token   string

	// resolving collapses concurrent cold resolutions of one name.
	resolving singleflight.Group

	// Prefetch pipeline
	mu            sync.RWMutex
	prefetchNames []string
	workerCount   int
	queueSize     int
	queue         *queue.InMemoryQueue
	pool          *worker.Pool
	cancelRun     context.CancelFunc
	started       bool

	// pending holds normalized names that are queued or being warmed.
	pending dedupe.Deduper

	logger logger.Logger
}

// New constructs a Service over the given gateway.
func New(gw Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:     gw,
		scorer:      scoring.NewWindowScorer(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.records == nil {
		s.records = repository.NewMemoryStore(context.Background())
	}
	if s.identities == nil {
		s.identities = repository.NewIdentityIndex()
	}
	s.pending = s.newPending()

	return s
}

func (s *Service) newPending() dedupe.Deduper {
	return dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.queueSize + s.workerCount))
}

// normalize produces the identity index key of a display name.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GraphQLToken returns the cached review-site token, fetching it on first
// use. Concurrent cold callers each fetch; the last one to finish wins.
func (s *Service) GraphQLToken(ctx context.Context) (string, error) {
	s.tokenMu.Lock()
	token := s.token
	s.tokenMu.Unlock()
	if token != "" {
		metrics.RecordCacheHit(metrics.CacheToken)
		return token, nil
	}
	metrics.RecordCacheMiss(metrics.CacheToken)

	token, err := s.gateway.FetchToken(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch graphql token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty graphql token", ErrUpstream)
	}

	s.tokenMu.Lock()
	s.token = token
	s.tokenMu.Unlock()

	s.logger.Info(ctx, "cached graphql token")
	return token, nil
}

// ProfessorOverview resolves name and returns the professor with its score,
// computing and caching the score on first use. It returns ErrNotFound when
// the name matches nobody and an ErrUpstream wrap when the site fails.
func (s *Service) ProfessorOverview(ctx context.Context, name string) (model.Professor, error) {
	ctx, span := tracer.Start(ctx, "service.ProfessorOverview", trace.WithAttributes(attribute.String("professor.name", name)))
	defer span.End()

	rec, err := s.resolve(ctx, name)
	if err != nil {
		recordSpanError(span, err)
		return model.Professor{}, err
	}
	span.SetAttributes(attribute.Int64("rmp.id", int64(rec.ID())))

	if _, ok := rec.Score(); ok {
		metrics.RecordCacheHit(metrics.CacheScore)
		return rec.Snapshot(), nil
	}
	metrics.RecordCacheMiss(metrics.CacheScore)

	_, computed, err := rec.ScoreOnce(func() (model.Score, error) {
		ratings, err := s.fetchRatings(ctx, rec.ID(), "")
		if err != nil {
			return model.Score{}, err
		}
		score := s.scorer.Score(ratings)
		if score.Quality == nil {
			metrics.RecordScoreUnpublished("all_time")
		}
		if score.QualityYear == nil {
			metrics.RecordScoreUnpublished("year")
		}
		metrics.RecordScoreComputed()
		s.logger.Debug(ctx, "scored professor",
			logger.Uint32("rmp_id", rec.ID()),
			logger.Int("ratings", len(ratings)),
		)
		return score, nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.Warn(ctx, "professor overview failed", logger.Uint32("rmp_id", rec.ID()), logger.Error(err))
		return model.Professor{}, err
	}
	span.SetAttributes(attribute.Bool("score.computed", computed))

	return rec.Snapshot(), nil
}

// ProfessorComments resolves name and returns its ratings, optionally for
// one course. Ratings are never cached. Any failure yields an empty list.
func (s *Service) ProfessorComments(ctx context.Context, name, course string) []model.Rating {
	ctx, span := tracer.Start(ctx, "service.ProfessorComments", trace.WithAttributes(
		attribute.String("professor.name", name),
		attribute.String("professor.course", course),
	))
	defer span.End()

	rec, err := s.resolve(ctx, name)
	if err != nil {
		recordSpanError(span, err)
		return []model.Rating{}
	}

	ratings, err := s.fetchRatings(ctx, rec.ID(), course)
	if err != nil {
		recordSpanError(span, err)
		s.logger.Warn(ctx, "professor comments failed", logger.Uint32("rmp_id", rec.ID()), logger.Error(err))
		return []model.Rating{}
	}
	if ratings == nil {
		ratings = []model.Rating{}
	}
	return ratings
}

// SearchProfessors resolves name and returns every candidate in ranking
// order. An empty result is not an error.
func (s *Service) SearchProfessors(ctx context.Context, name string) ([]model.Professor, error) {
	ctx, span := tracer.Start(ctx, "service.SearchProfessors", trace.WithAttributes(attribute.String("professor.name", name)))
	defer span.End()

	ids, err := s.resolveIDs(ctx, name)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]model.Professor, 0, len(ids))
	for _, id := range ids {
		rec, err := s.records.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, rec.Snapshot())
	}
	return out, nil
}

// resolve returns the canonical record for name.
func (s *Service) resolve(ctx context.Context, name string) (*repository.Record, error) {
	ids, err := s.resolveIDs(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, normalize(name))
	}
	rec, err := s.records.Get(ctx, ids[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNotFound, normalize(name), err)
	}
	return rec, nil
}

// resolveIDs returns the ordered candidates for name, searching upstream
// on a miss. Failed searches are not cached.
func (s *Service) resolveIDs(ctx context.Context, name string) ([]uint32, error) {
	key := normalize(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	if ids, ok := s.identities.Lookup(ctx, key); ok {
		metrics.RecordCacheHit(metrics.CacheIdentity)
		return ids, nil
	}
	metrics.RecordCacheMiss(metrics.CacheIdentity)

	// The shared search must not die with whichever caller started it.
	searchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.resolving.Do(key, func() (interface{}, error) {
		if ids, ok := s.identities.Lookup(searchCtx, key); ok {
			return ids, nil
		}

		hits, err := s.gateway.Search(searchCtx, key)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", key, err)
		}

		ids := make([]uint32, 0, len(hits))
		seen := make(map[uint32]struct{}, len(hits))
		for _, hit := range hits {
			id, ok := hit.RMPID()
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			s.records.GetOrCreate(searchCtx, id, hit)
			ids = append(ids, id)
		}

		s.logger.Debug(searchCtx, "resolved professor name",
			logger.String("name", key),
			logger.Int("candidates", len(ids)),
		)
		return s.identities.Put(searchCtx, key, ids), nil
	})
	if err != nil {
		s.logger.Warn(ctx, "professor search failed", logger.String("name", key), logger.Error(err))
		return nil, err
	}
	return v.([]uint32), nil
}

func (s *Service) fetchRatings(ctx context.Context, id uint32, course string) ([]model.Rating, error) {
	token, err := s.GraphQLToken(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := s.gateway.FetchRatings(ctx, token, id, course)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings for %d: %w", id, err)
	}
	return ratings, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
