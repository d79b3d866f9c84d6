package api

import (
	"errors"

	service "github.com/okian/profrate/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotFound is the controller's not-found kind, mapped to 404.
	ErrNotFound = service.ErrNotFound
)
