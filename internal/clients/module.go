// Package clients provides the tenant management module.
package clients

import (
	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/clients/handler"
	"leadlift_backend/internal/clients/repository"
	"leadlift_backend/internal/clients/service"
	"leadlift_backend/internal/events"
	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the clients module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.TrackingConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), cfg, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// Service returns the clients service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts clients routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	view := access.Require(access.ViewAnalytics)
	manage := access.Require(access.ManageClients)

	clients := ctx.Protected.Group("/clients")
	clients.GET("", view, m.handler.List)
	clients.POST("", manage, m.handler.Create)
	clients.GET("/industries", view, m.handler.Industries)
	clients.GET("/by-industry/:industry", view, m.handler.ByIndustry)
	clients.GET("/:clientId", view, m.handler.Get)
	clients.GET("/:clientId/tracking-script", view, m.handler.TrackingScript)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
