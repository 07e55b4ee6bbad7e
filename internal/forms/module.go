// Package forms provides the registered-forms module.
package forms

import (
	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/forms/handler"
	"leadlift_backend/internal/forms/repository"
	"leadlift_backend/internal/forms/service"
	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the forms bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the forms module. Client lookup and submission counts come
// from the clients and submissions contexts through adapters.
func NewModule(pool *pgxpool.Pool, clients service.ClientLookup, counter service.SubmissionCounter, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), clients, counter, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "forms"
}

// RegisterRoutes mounts forms routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	view := access.Require(access.ViewAnalytics)
	manage := access.Require(access.ManageClients)

	ctx.Protected.GET("/clients/:clientId/forms", view, m.handler.List)
	ctx.Protected.POST("/clients/:clientId/forms", manage, m.handler.Create)
	ctx.Protected.PUT("/forms/:formId", manage, m.handler.Update)
	ctx.Protected.DELETE("/forms/:formId", manage, m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
