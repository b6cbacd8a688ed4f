package middleware

import (
	"context"
	"errors"

	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/Sokol111/student-housing/pkg/http/server"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// newTimeoutMiddleware puts a deadline on the request context. Handlers pass the
// context to mongo and the emitter, so they return once it expires; the middleware
// then answers 504 if nothing was written yet.
func newTimeoutMiddleware(conf server.TimeoutConfig, log *zap.Logger, priority int) Middleware {
	if !conf.IsEnabled() {
		return Middleware{Priority: priority}
	}

	log.Info("HTTP timeout middleware initialized", zap.Duration("request-timeout", conf.RequestTimeout))

	return Middleware{
		Priority: priority,
		Handler: func(c *gin.Context) {
			if isHealthPath(c.Request.URL.Path) {
				c.Next()
				return
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), conf.RequestTimeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)

			c.Next()

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
				return
			}

			log.Warn("HTTP request timeout", append(requestFields(c), zap.Duration("timeout", conf.RequestTimeout))...)
			problems.Write(c, problems.GatewayTimeout("request took too long to process"))
		},
	}
}

func TimeoutModule(priority int) fx.Option {
	return asMiddleware(func(conf server.Config, log *zap.Logger) Middleware {
		return newTimeoutMiddleware(conf.Timeout, log, priority)
	})
}
