package health

import (
	"net/http"

	coreHealth "github.com/Sokol111/student-housing/pkg/core/health"
	"github.com/gin-gonic/gin"
)

// ServiceLabel is the human name reported by GET /health, e.g. "Booking Service".
type ServiceLabel string

type healthHandler struct {
	readiness coreHealth.ReadinessChecker
	label     ServiceLabel
}

func newHealthHandler(r coreHealth.ReadinessChecker, label ServiceLabel) *healthHandler {
	return &healthHandler{readiness: r, label: label}
}

// Status always answers 200 while the process serves HTTP.
func (h *healthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": string(h.label) + " OK"})
}

func (h *healthHandler) IsReady(c *gin.Context) {
	if c.Query("format") == "json" || c.GetHeader("Accept") == "application/json" {
		status := h.readiness.GetStatus()
		code := http.StatusOK
		if !status.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
		return
	}

	if h.readiness.IsReady() {
		c.String(http.StatusOK, "ready")
		return
	}
	c.String(http.StatusServiceUnavailable, "not ready")
}

func (h *healthHandler) IsLive(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}
