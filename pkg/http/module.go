package http

import (
	"github.com/Sokol111/student-housing/pkg/http/apidocs"
	"github.com/Sokol111/student-housing/pkg/http/health"
	"github.com/Sokol111/student-housing/pkg/http/middleware"
	"github.com/Sokol111/student-housing/pkg/http/server"
	"go.uber.org/fx"
)

type httpOptions struct {
	serverOptions []server.Option
	label         health.ServiceLabel
}

type Option func(*httpOptions)

// WithServerConfig provides a static server Config instead of the viper section.
func WithServerConfig(cfg server.Config) Option {
	return func(o *httpOptions) {
		o.serverOptions = append(o.serverOptions, server.WithServerConfig(cfg))
	}
}

// WithServiceLabel sets the name reported by GET /health.
func WithServiceLabel(label string) Option {
	return func(o *httpOptions) {
		o.label = health.ServiceLabel(label)
	}
}

// NewHTTPModule provides the gin engine, its middleware, health routes and the server.
// A service that supplies an *apidocs.Document also gets /openapi.yaml and /docs.
//
//	http.NewHTTPModule(http.WithServiceLabel("Auth Service"))
func NewHTTPModule(opts ...Option) fx.Option {
	o := &httpOptions{label: "Service"}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Supply(o.label),
		middleware.NewGinModule(),
		health.NewHealthRoutesModule(),
		apidocs.NewDocsModule(),
		server.NewHTTPServerModule(o.serverOptions...),
	)
}
