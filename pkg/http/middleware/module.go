package middleware

import (
	"github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// NewGinModule provides the gin engine and its middleware chain.
//
//	 5 - Tracing   - otelgin server spans
//	 8 - Problem   - collected errors to RFC 7807, wraps everything below so aborts are rendered
//	10 - Timeout   - request deadline and 504
//	20 - RateLimit - requests per second
//	30 - Bulkhead  - concurrent requests
//	40 - Recovery  - panics to 500
//	50 - Logger    - request-scoped logger, access and error log
func NewGinModule() fx.Option {
	return fx.Module("gin",
		TracingModule(5),
		ProblemModule(8),
		TimeoutModule(10),
		RateLimitModule(20),
		BulkheadModule(30),
		RecoveryModule(40),
		LoggerModule(50),
		fx.Provide(provideGinAndHandler),
	)
}

type tracingIn struct {
	fx.In

	App    config.AppConfig
	Tracer trace.TracerProvider `optional:"true"`
	Meter  metric.MeterProvider `optional:"true"`
}

// TracingModule starts a server span per request under the service name and
// records request metrics. Health probes are not instrumented.
func TracingModule(priority int) fx.Option {
	return asMiddleware(func(in tracingIn) Middleware {
		opts := []otelgin.Option{
			otelgin.WithGinFilter(func(c *gin.Context) bool {
				return !isHealthPath(c.Request.URL.Path)
			}),
		}
		if in.Tracer != nil {
			opts = append(opts, otelgin.WithTracerProvider(in.Tracer))
		}
		if in.Meter != nil {
			opts = append(opts, otelgin.WithMeterProvider(in.Meter))
		}
		return Middleware{Priority: priority, Handler: otelgin.Middleware(in.App.ServiceName, opts...)}
	})
}
