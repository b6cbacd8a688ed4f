package middleware

import (
	"net/http"

	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/Sokol111/student-housing/pkg/http/server"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

func newRateLimitMiddleware(conf server.RateLimitConfig, priority int) Middleware {
	if !conf.IsEnabled() {
		return Middleware{Priority: priority}
	}

	limiter := rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), conf.Burst)

	return Middleware{
		Priority: priority,
		Handler: func(c *gin.Context) {
			if isHealthPath(c.Request.URL.Path) {
				c.Next()
				return
			}

			if !limiter.Allow() {
				problems.Abort(c, problems.New(http.StatusTooManyRequests, "rate limit exceeded, please try again later"))
				return
			}

			c.Next()
		},
	}
}

func RateLimitModule(priority int) fx.Option {
	return asMiddleware(func(conf server.Config) Middleware {
		return newRateLimitMiddleware(conf.RateLimit, priority)
	})
}
