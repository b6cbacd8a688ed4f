package health

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// NewHealthRoutesModule registers /health, /health/live and /health/ready.
// A ServiceLabel must be supplied by the service module.
func NewHealthRoutesModule() fx.Option {
	return fx.Module("health-routes",
		fx.Provide(newHealthHandler),
		fx.Invoke(registerHealthRoutes),
	)
}

func registerHealthRoutes(r *gin.Engine, handler *healthHandler) {
	r.GET("/health", handler.Status)
	r.GET("/health/ready", handler.IsReady)
	r.GET("/health/live", handler.IsLive)
}
