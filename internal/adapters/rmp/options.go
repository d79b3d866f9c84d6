package rmp

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/profrate/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSchoolID restricts searches to one school.
func WithSchoolID(id string) Option {
	return func(c *Client) {
		if id = strings.TrimSpace(id); id != "" {
			c.schoolID = id
		}
	}
}

// WithSearchURL sets the Solr select endpoint.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.searchURL = u
		}
	}
}

// WithGraphQLURL sets the ratings query endpoint.
func WithGraphQLURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.graphqlURL = u
		}
	}
}

// WithTokenPageURL sets the page the GraphQL token is scraped from.
func WithTokenPageURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.tokenPageURL = u
		}
	}
}

// WithTimeout bounds every single upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPagination sets the ratings page size and the maximum number of
// pages followed per fetch.
func WithPagination(pageSize, maxPages int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
