package middleware

import (
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// loggerMiddleware stores a request-scoped logger in the request context and logs
// the outcome; handler errors collected in c.Errors are logged at ERROR.
func loggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := base
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			log = log.With(zap.String("trace_id", sc.TraceID().String()))
		}
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		if isHealthPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := append(requestFields(c),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		for _, e := range c.Errors {
			log.Error("request error", append(fields, zap.Error(e.Err))...)
		}
		log.Debug("incoming request", fields...)
	}
}

func LoggerModule(priority int) fx.Option {
	return asMiddleware(func(log *zap.Logger) Middleware {
		return Middleware{Priority: priority, Handler: loggerMiddleware(log.Named("http"))}
	})
}
