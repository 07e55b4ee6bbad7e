// Package submissions is the lead capture bounded context: public ingestion,
// submission listing and per-client analytics.
package submissions

import (
	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/events"
	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/internal/submissions/handler"
	"leadlift_backend/internal/submissions/repository"
	"leadlift_backend/internal/submissions/service"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/metrics"
	"leadlift_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the submissions context and implements http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
	limiter *httpkit.IPRateLimiter
}

// NewModule builds the module. The limiter guards the public submit route.
func NewModule(pool *pgxpool.Pool, tenants service.TenantResolver, bus events.Bus, recorder metrics.IngestRecorder, limiter *httpkit.IPRateLimiter, phoneRegion string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(tenants, repo, bus, recorder, log, phoneRegion)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
		limiter: limiter,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "submissions"
}

// Service exposes the service so main can attach the analytics cache.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes submission counts to the forms and clients modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the submission routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	submit := ctx.V1.Group("/submit")
	if m.limiter != nil {
		submit.Use(m.limiter.RateLimit())
	}
	submit.POST("/:clientId", m.handler.Submit)

	view := access.Require(access.ViewAnalytics)
	ctx.Protected.GET("/submissions/client/:clientId", view, m.handler.List)
	ctx.Protected.GET("/submissions/client/:clientId/forms", view, m.handler.Forms)
	ctx.Protected.GET("/analytics/:clientId", view, m.handler.Analytics)
}

var _ apphttp.Module = (*Module)(nil)
