package http

import (
	"context"

	"supaco_backend/platform/config"
	"supaco_backend/platform/logger"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health. *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything cmd/api assembled that the router needs.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health may be nil, in which case the health endpoint always answers ok.
	Health  HealthChecker
	Modules []Module
}
