// Package rmp is the HTTP adapter to the review site: professor search over
// Solr, ratings over GraphQL and the GraphQL token scraped from the site.
package rmp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/profrate/pkg/logger"
	"github.com/okian/profrate/pkg/metrics"
)

// Upstream operations, used as metric and span labels.
const (
	opSearch  = "search"
	opRatings = "ratings"
	opToken   = "token"
)

const (
	defaultSearchURL    = "https://solr-aws-elb-production.ratemyprofessors.com/solr/rmp/select/"
	defaultGraphQLURL   = "https://www.ratemyprofessors.com/graphql"
	defaultTokenPageURL = "https://www.ratemyprofessors.com/"
	defaultSchoolID     = "1074"
	defaultTimeout      = 10 * time.Second
	defaultPageSize     = 1000
	defaultMaxPages     = 5

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 16 << 20
	// errorBodyBytes caps the body echoed into HTTPError.
	errorBodyBytes = 1 << 10
)

var tracer = otel.Tracer("github.com/okian/profrate/internal/adapters/rmp")

// Client talks to the review site. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	searchURL    string
	graphqlURL   string
	tokenPageURL string
	schoolID     string
	timeout      time.Duration
	pageSize     int
	maxPages     int
	logger       logger.Logger
}

// New constructs a Client with defaults pointing at the public site.
func New(opts ...Option) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		httpClient:   &http.Client{Transport: tr},
		searchURL:    defaultSearchURL,
		graphqlURL:   defaultGraphQLURL,
		tokenPageURL: defaultTokenPageURL,
		schoolID:     defaultSchoolID,
		timeout:      defaultTimeout,
		pageSize:     defaultPageSize,
		maxPages:     defaultMaxPages,
		logger:       logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do sends req under the per-request timeout and returns the body of a 2xx
// response. Every failure wraps ErrUpstream. Metrics are recorded per op.
func (c *Client) do(ctx context.Context, op string, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "rmp."+op)
	defer span.End()

	start := time.Now()
	body, err := c.roundTrip(ctx, build)
	latency := float64(time.Since(start).Milliseconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordUpstreamCall(op, metrics.OutcomeError, latency)
		metrics.RecordErrorByComponent("rmp", op)
		c.logger.Warn(ctx, "upstream call failed",
			logger.String("operation", op),
			logger.Float64("latency_ms", latency),
			logger.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("rmp.body_bytes", len(body)))
	metrics.RecordUpstreamCall(op, metrics.OutcomeOK, latency)
	c.logger.Debug(ctx, "upstream call succeeded",
		logger.String("operation", op),
		logger.Float64("latency_ms", latency),
	)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	return body, nil
}
