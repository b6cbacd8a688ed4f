package problems

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string       `json:"type,omitempty"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p *Problem) Error() string {
	return p.Detail
}

func New(status int, detail string) *Problem {
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func BadRequest(detail string, fields ...FieldError) *Problem {
	p := New(http.StatusBadRequest, detail)
	p.Errors = fields
	return p
}

func NotFound(detail string) *Problem {
	return New(http.StatusNotFound, detail)
}

func ServiceUnavailable(detail string) *Problem {
	return New(http.StatusServiceUnavailable, detail)
}

func GatewayTimeout(detail string) *Problem {
	return New(http.StatusGatewayTimeout, detail)
}

func Internal(detail string) *Problem {
	return New(http.StatusInternalServerError, detail)
}

// Abort attaches p to the gin context and aborts the chain; the problem middleware renders it.
func Abort(c *gin.Context, p *Problem) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	_ = c.Error(p).SetMeta(p) //nolint:errcheck // gin returns the same error
	c.Abort()
}

// Write renders p immediately with the problem+json content type.
func Write(c *gin.Context, p *Problem) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	if p.TraceID == "" {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			p.TraceID = sc.TraceID().String()
		}
	}
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(p.Status, p)
}
