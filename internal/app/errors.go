package service

import (
	"errors"

	"github.com/okian/profrate/internal/adapters/rmp"
)

// Sentinel kinds returned by the controller.
var (
	// ErrNotFound reports that a name resolved to no professor.
	ErrNotFound = errors.New("professor not found")

	// ErrUpstream reports that the review site failed or answered with an
	// unexpected payload.
	ErrUpstream = rmp.ErrUpstream
)
