package service

import (
	"time"

	"github.com/okian/profrate/internal/adapters/repository"
	"github.com/okian/profrate/internal/domain/scoring"
	"github.com/okian/profrate/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer replaces the rating scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithClock scores against the given time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.scorer = scoring.NewWindowScorer(scoring.WithClock(now))
		}
	}
}

// WithStore replaces the professor record store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.records = st
		}
	}
}

// WithIndex replaces the identity index.
func WithIndex(idx repository.Index) Option {
	return func(s *Service) {
		if idx != nil {
			s.identities = idx
		}
	}
}

// WithPrefetchNames sets the names warmed when the service starts.
func WithPrefetchNames(names []string) Option {
	return func(s *Service) {
		s.prefetchNames = append([]string(nil), names...)
	}
}

// WithWorkerCount sets the number of prefetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the prefetch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}
