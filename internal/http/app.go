// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"leadlift_backend/internal/events"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// main.go builds it and hands it to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is used for readiness checks (DB ping).
	Health   HealthChecker
	EventBus events.Bus
	// Metrics is optional; when set the router records request metrics and serves /metrics.
	Metrics *metrics.Registry
	Modules []Module
}
