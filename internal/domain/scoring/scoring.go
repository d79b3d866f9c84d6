// Package scoring computes the time- and popularity-weighted quality score
// of a professor from raw ratings. Everything here is pure and safe for
// concurrent use.
package scoring

import (
	"math"
	"time"

	"github.com/okian/profrate/internal/domain/model"
)

// Windows over which ratings are weighted, in seconds.
const (
	WindowAllTime int64 = 157_680_000 // five years
	WindowYear    int64 = 31_536_000
)

// Minimum weight a window must accumulate before its score is published.
const (
	MinWeightAllTime = 8.0
	MinWeightYear    = 2.0
)

// Weighted returns the weighted quality sum and the total weight of the
// ratings dated inside [now-window, ...). Ratings newer than now are kept and
// weigh more than one on the time axis. An empty input yields (0, 0).
func Weighted(ratings []model.Rating, window int64, now time.Time) (sum, weight float64) {
	if window <= 0 {
		return 0, 0
	}
	cutoff := now.Unix() - window
	span := float64(window)

	for i := range ratings {
		r := &ratings[i]
		ts := r.Date.Unix()
		if ts < cutoff {
			continue
		}
		up := float64(r.ThumbsUp)
		down := float64(r.ThumbsDown)

		thumbs := (up + 1) / (up + down + 1)
		recency := float64(ts-cutoff) / span
		quantity := math.Log(1+(up+down)/2) + 1

		w := thumbs * recency * quantity
		sum += r.Quality() * w
		weight += w
	}
	return sum, weight
}

// Publish returns sum/weight when weight reaches min, nil otherwise.
func Publish(sum, weight, minWeight float64) *float64 {
	if weight <= 0 || weight < minWeight {
		return nil
	}
	v := sum / weight
	return &v
}

// Compute scores ratings over both windows.
func Compute(ratings []model.Rating, now time.Time) model.Score {
	allSum, allWeight := Weighted(ratings, WindowAllTime, now)
	yrSum, yrWeight := Weighted(ratings, WindowYear, now)
	return model.Score{
		Quality:     Publish(allSum, allWeight, MinWeightAllTime),
		QualityYear: Publish(yrSum, yrWeight, MinWeightYear),
	}
}

// Scorer turns a list of ratings into a Score.
type Scorer interface {
	Score(ratings []model.Rating) model.Score
}

// Option applies a configuration option to a WindowScorer.
type Option func(*WindowScorer)

// WithClock replaces the time source used as "now".
func WithClock(now func() time.Time) Option {
	return func(s *WindowScorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WindowScorer implements Scorer with the two standard windows.
type WindowScorer struct {
	now func() time.Time
}

// NewWindowScorer creates a scorer reading the wall clock by default.
func NewWindowScorer(opts ...Option) *WindowScorer {
	s := &WindowScorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *WindowScorer) Score(ratings []model.Rating) model.Score {
	return Compute(ratings, s.now())
}
