// Package probe drives a running profrate instance: it fetches overviews for
// a set of names concurrently and repeatedly, then checks that the cached
// scores never change between calls.
package probe

import (
	"errors"
	"time"

	"github.com/okian/profrate/internal/domain/types"
	"github.com/okian/profrate/pkg/logger"
)

// Errors reported by a probe run.
var (
	ErrNoNames      = errors.New("no names to probe")
	ErrUnhealthy    = errors.New("service health check failed")
	ErrInconsistent = errors.New("inconsistent overviews")
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Names   []string      // Instructor names to resolve
	Repeat  int           // Overview requests per name
	Course  string        // Optional course filter for comments
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every request
	Logger  logger.Logger // Defaults to a no-op logger
}

// Result is the outcome of probing one name.
type Result struct {
	Name      string
	Overview  *types.Overview
	Requests  int
	Failures  int
	Mismatch  int
	Comments  int
	NotFound  bool
	LastError error
	Latency   time.Duration // Sum over all overview requests
}

// AvgLatency is the mean overview round trip.
func (r Result) AvgLatency() time.Duration {
	if r.Requests == 0 {
		return 0
	}
	return r.Latency / time.Duration(r.Requests)
}

// Stats holds run statistics.
type Stats struct {
	Requests  int
	Failures  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
