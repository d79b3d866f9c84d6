// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// SchoolID restricts professor search to one school on the review site.
	SchoolID string `koanf:"school_id"`

	// SearchURL is the Solr select endpoint used for name search.
	SearchURL string `koanf:"search_url"`

	// GraphQLURL is the ratings query endpoint.
	GraphQLURL string `koanf:"graphql_url"`

	// TokenPageURL is the page scraped for the GraphQL authorization token.
	TokenPageURL string `koanf:"token_page_url"`

	// UpstreamTimeoutMS bounds every single upstream HTTP request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// RatingsPageSize and RatingsMaxPages control ratings pagination.
	RatingsPageSize int `koanf:"ratings_page_size"`
	RatingsMaxPages int `koanf:"ratings_max_pages"`

	// RateLimitRPS and RateLimitBurst configure the inbound request limiter.
	// A non-positive RPS disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// PrefetchNames are warmed into the caches at startup.
	PrefetchNames []string `koanf:"prefetch_names"`

	// PrefetchWorkers sets the number of warming workers.
	PrefetchWorkers int `koanf:"prefetch_workers"`

	// PrefetchQueueSize bounds the warming queue.
	PrefetchQueueSize int `koanf:"prefetch_queue_size"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8000",
		SchoolID:          "1074",
		SearchURL:         "https://solr-aws-elb-production.ratemyprofessors.com/solr/rmp/select/",
		GraphQLURL:        "https://www.ratemyprofessors.com/graphql",
		TokenPageURL:      "https://www.ratemyprofessors.com/",
		UpstreamTimeoutMS: 10_000,
		RatingsPageSize:   1000,
		RatingsMaxPages:   5,
		RateLimitRPS:      200,
		RateLimitBurst:    400,
		PrefetchNames:     nil,
		PrefetchWorkers:   runtime.NumCPU(),
		PrefetchQueueSize: 1024,
	}
}

// UpstreamTimeout returns the per-request upstream timeout as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.SchoolID) == "" {
		return fmt.Errorf("%w: school_id must not be empty", ErrInvalidConfig)
	}
	for key, raw := range map[string]string{
		"search_url":     c.SearchURL,
		"graphql_url":    c.GraphQLURL,
		"token_page_url": c.TokenPageURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidConfig, key)
		}
	}
	if c.UpstreamTimeoutMS <= 0 {
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.RatingsPageSize <= 0 || c.RatingsMaxPages <= 0 {
		return fmt.Errorf("%w: ratings_page_size and ratings_max_pages must be positive", ErrInvalidConfig)
	}
	return nil
}
