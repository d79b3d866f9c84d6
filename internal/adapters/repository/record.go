package repository

import (
	"sync"
	"sync/atomic"

	"github.com/okian/profrate/internal/domain/model"
)

// Record is the shared handle of one cached professor. Its metadata is
// fixed at creation; its Score is set at most once.
type Record struct {
	id         uint32
	firstName  string
	lastName   string
	fullName   string
	department string
	average    *float64

	// mu serializes score computation; score is read without it.
	mu    sync.Mutex
	score atomic.Pointer[model.Score]
}

func newRecord(id uint32, hit model.SearchHit) *Record {
	r := &Record{
		id:         id,
		firstName:  hit.FirstName,
		lastName:   hit.LastName,
		fullName:   hit.FullName,
		department: hit.Department,
	}
	if hit.Score != nil {
		v := *hit.Score
		r.average = &v
	}
	return r
}

// ID returns the review-site id of the professor.
func (r *Record) ID() uint32 { return r.id }

// Score returns the cached score, if any.
func (r *Record) Score() (model.Score, bool) {
	if s := r.score.Load(); s != nil {
		return *s, true
	}
	return model.Score{}, false
}

// ScoreOnce returns the cached score, or runs compute under the record lock
// and caches its result. Concurrent callers block on the lock and the ones
// that acquire it after a successful compute observe the cached score
// without running compute. A failed compute caches nothing.
func (r *Record) ScoreOnce(compute func() (model.Score, error)) (score model.Score, computed bool, err error) {
	if s, ok := r.Score(); ok {
		return s, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.Score(); ok {
		return s, false, nil
	}

	s, err := compute()
	if err != nil {
		return model.Score{}, false, err
	}
	r.score.Store(&s)
	return s, true, nil
}

// Snapshot returns an immutable copy of the record.
func (r *Record) Snapshot() model.Professor {
	p := model.Professor{
		RMPID:      r.id,
		FirstName:  r.firstName,
		LastName:   r.lastName,
		FullName:   r.fullName,
		Department: r.department,
		Average:    r.average,
	}
	if s, ok := r.Score(); ok {
		p.Score = &s
	}
	return p
}
