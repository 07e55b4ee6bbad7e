// Package auth provides the authentication and user administration module.
package auth

import (
	"context"

	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/auth/handler"
	"leadlift_backend/internal/auth/repository"
	"leadlift_backend/internal/auth/service"
	authvalidator "leadlift_backend/internal/auth/validator"
	"leadlift_backend/internal/events"
	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule creates the auth module and registers its validation rules on val.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := authvalidator.Register(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, cfg, access.Default(), eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		log:     log,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service.
func (m *Module) Service() *service.Service {
	return m.service
}

// Bootstrap creates the default admin account when needed.
func (m *Module) Bootstrap(ctx context.Context, cfg config.BootstrapConfig) error {
	created, err := m.service.EnsureBootstrapAdmin(ctx, cfg)
	if err != nil {
		return err
	}
	if created {
		m.log.Info("bootstrap admin created", "username", cfg.GetBootstrapAdminUsername())
	}
	return nil
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
	authGroup.POST("/logout", m.handler.Logout)
	authGroup.GET("/me", ctx.AuthMiddleware, m.handler.Me)
	authGroup.POST("/change-password", ctx.AuthMiddleware, m.handler.ChangePassword)

	ctx.Protected.GET("/users", access.Require(access.CreateUsers), m.handler.ListUsers)
	ctx.Protected.POST("/users", access.Require(access.CreateUsers), m.handler.CreateUser)
	ctx.Protected.GET("/users/:id", m.handler.GetUser)
	ctx.Protected.PUT("/users/:id", m.handler.UpdateUser)
	ctx.Protected.DELETE("/users/:id", access.Require(access.DeleteUsers), m.handler.DeleteUser)

	ctx.Admin.GET("/permissions", access.Require(access.ManageSettings), m.handler.Permissions)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
