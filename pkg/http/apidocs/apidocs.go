// Package apidocs serves a service's OpenAPI document and a Swagger UI page for it.
package apidocs

import (
	"html/template"
	"net/http"

	"github.com/Sokol111/student-housing/pkg/http/health"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

const (
	specRoute    = "/openapi.yaml"
	defaultRoute = "/docs"
)

// Document is supplied by a service module that wants its API documented.
type Document struct {
	Spec []byte
	// Route of the UI page, /docs when empty.
	Route string
}

var page = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>{{.Title}} API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui'
    });
  </script>
</body>
</html>`))

// NewDocsModule registers the routes when a *Document is provided and does nothing otherwise.
func NewDocsModule() fx.Option {
	return fx.Invoke(registerDocs)
}

type docsParams struct {
	fx.In
	Router   *gin.Engine
	Label    health.ServiceLabel
	Document *Document `optional:"true"`
}

func registerDocs(p docsParams) {
	if p.Document == nil || len(p.Document.Spec) == 0 {
		return
	}
	register(p.Router, string(p.Label), *p.Document)
}

func register(r *gin.Engine, title string, doc Document) {
	r.GET(specRoute, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", doc.Spec)
	})

	route := doc.Route
	if route == "" {
		route = defaultRoute
	}
	r.GET(route, func(c *gin.Context) {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		_ = page.Execute(c.Writer, struct{ Title, SpecURL string }{title, specRoute})
	})
}
