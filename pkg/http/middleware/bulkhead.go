package middleware

import (
	"context"

	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/Sokol111/student-housing/pkg/http/server"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// newBulkheadMiddleware caps concurrent requests; a request waits at most conf.Timeout for a slot.
func newBulkheadMiddleware(conf server.BulkheadConfig, log *zap.Logger, priority int) Middleware {
	if !conf.IsEnabled() {
		return Middleware{Priority: priority}
	}

	sem := semaphore.NewWeighted(int64(conf.MaxConcurrent))

	log.Info("HTTP bulkhead initialized",
		zap.Int("max-concurrent", conf.MaxConcurrent),
		zap.Duration("timeout", conf.Timeout),
	)

	return Middleware{
		Priority: priority,
		Handler: func(c *gin.Context) {
			if isHealthPath(c.Request.URL.Path) {
				c.Next()
				return
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), conf.Timeout)
			defer cancel()

			if err := sem.Acquire(ctx, 1); err != nil {
				log.Warn("HTTP bulkhead full, rejecting request", append(requestFields(c), zap.Error(err))...)
				problems.Abort(c, problems.ServiceUnavailable("too many concurrent requests, please try again later"))
				return
			}
			defer sem.Release(1)

			c.Next()
		},
	}
}

func BulkheadModule(priority int) fx.Option {
	return asMiddleware(func(conf server.Config, log *zap.Logger) Middleware {
		return newBulkheadMiddleware(conf.Bulkhead, log, priority)
	})
}
