package middleware

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Middleware is a gin handler with its position in the chain; lower runs first.
type Middleware struct {
	Priority int
	Handler  gin.HandlerFunc
}

type mwIn struct {
	fx.In
	Middlewares []Middleware `group:"gin_mw"`
}

func provideGinAndHandler(in mwIn) (*gin.Engine, http.Handler) {
	e := newEngine(in.Middlewares)
	return e, e
}

func newEngine(mws []Middleware) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New(func(e *gin.Engine) {
		e.ContextWithFallback = true
	})

	sort.SliceStable(mws, func(i, j int) bool { return mws[i].Priority < mws[j].Priority })
	for _, m := range mws {
		if m.Handler == nil {
			continue
		}
		engine.Use(m.Handler)
	}

	return engine
}

func asMiddleware(fn any) fx.Option {
	return fx.Provide(fx.Annotate(fn, fx.ResultTags(`group:"gin_mw"`)))
}

func isHealthPath(path string) bool {
	return path == "/health" || path == "/health/live" || path == "/health/ready"
}

func requestFields(c *gin.Context) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
	}
}
