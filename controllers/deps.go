package controllers

import (
	"context"

	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/utils"
)

// Deps is everything the handlers need. Handlers are built as closures over
// it, one factory per route.
type Deps struct {
	Events *services.EventService
	Auth   *services.AuthService
	Images utils.ImageStore

	MaxUploadBytes int64
	// Development exposes internal error details in responses.
	Development bool
	// HealthCheck reports whether the backing store is reachable.
	HealthCheck func(ctx context.Context) error
}
