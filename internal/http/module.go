// Package http wires bounded-context modules into one gin engine.
package http

import (
	"supaco_backend/platform/config"
	"supaco_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount its routes.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind AuthRequired; handlers read the caller
	// with httpkit.MustGetIdentity.
	Protected *gin.RouterGroup
	Config    config.JWTConfig
	// AuthRateLimiter guards credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
	// ChatRateLimiter guards endpoints that call the language model.
	ChatRateLimiter *httpkit.IPRateLimiter
}
