// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules implement for route registration.
package http

import (
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine.
	Engine *gin.Engine
	// V1 is the public /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the authenticated route group under /api/v1.
	Protected *gin.RouterGroup
	// Admin is the /api/v1/admin group; routes here still need their own permission guard.
	Admin *gin.RouterGroup
	// Config is the JWT configuration for modules that issue tokens.
	Config config.JWTConfig
	// AuthMiddleware provides the authentication middleware.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter is the stricter rate limiter for login.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
