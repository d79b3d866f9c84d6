package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/profrate/internal/domain/types"
	"github.com/okian/profrate/pkg/logger"
)

// job is one overview request for one name.
type job struct {
	index int
	name  string
}

// Run executes a probe against cfg.BaseURL and renders a report to out.
// It fails with ErrInconsistent when any name returned differing overviews.
func Run(ctx context.Context, cfg *Config, out io.Writer) ([]Result, error) {
	names := cleanNames(cfg.Names)
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	repeat := max(cfg.Repeat, 1)
	workers := max(cfg.Workers, 1)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("probe")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("names", len(names)),
		logger.Int("repeat", repeat),
		logger.Int("workers", workers))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	results := make([]Result, len(names))
	for i, n := range names {
		results[i].Name = n
	}
	locks := make([]sync.Mutex, len(names))

	jobs := make(chan job, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				var ov types.Overview
				start := time.Now()
				status, err := client.get(ctx, overviewPath(j.name), &ov)
				took := time.Since(start)
				if cfg.Verbose {
					log.Info(ctx, "overview", logger.String("name", j.name), logger.Int("status", status), logger.Error(err))
				}

				locks[j.index].Lock()
				record(&results[j.index], ov, status, err, took)
				locks[j.index].Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for r := 0; r < repeat; r++ {
			for i, n := range names {
				select {
				case <-ctx.Done():
					return
				case jobs <- job{index: i, name: n}:
				}
			}
		}
	}()
	wg.Wait()

	for i := range results {
		var comments []types.Comment
		if _, err := client.get(ctx, commentsPath(results[i].Name, cfg.Course), &comments); err == nil {
			results[i].Comments = len(comments)
		}
		stats.Requests += results[i].Requests
		stats.Failures += results[i].Failures
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if err := Render(out, results); err != nil {
		return results, fmt.Errorf("render report: %w", err)
	}
	log.Info(ctx, "probe finished",
		logger.Int("requests", stats.Requests),
		logger.Int("failures", stats.Failures),
		logger.String("duration", stats.Duration.String()))

	return results, Verify(results)
}

// record folds one overview response into r. The first successful body is
// the reference every later one is compared to.
func record(r *Result, ov types.Overview, status int, err error, took time.Duration) {
	r.Requests++
	r.Latency += took
	switch {
	case err != nil:
		r.Failures++
		r.LastError = err
	case status == http.StatusNotFound:
		r.NotFound = true
	case status != http.StatusOK:
		r.Failures++
		r.LastError = fmt.Errorf("unexpected status %d", status)
	case r.Overview == nil:
		r.Overview = &ov
	case !sameOverview(*r.Overview, ov):
		r.Mismatch++
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient) error {
	status, err := client.get(ctx, "/healthz", nil)
	if err != nil {
		return errors.Join(ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
