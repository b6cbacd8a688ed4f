package booking

import (
	"errors"
	"net/http"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/http/problems"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handler struct {
	svc Service
}

func newHandler(svc Service) *handler {
	return &handler{svc: svc}
}

func registerRoutes(r *gin.Engine, h *handler) {
	r.GET("/", h.root)
	r.POST("/bookings", h.create)
	r.GET("/bookings", h.list)
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Booking Service is running", "health": "/health"})
}

func (h *handler) create(c *gin.Context) {
	var cmd CreateBookingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		problems.Write(c, problems.BadRequest("request body is not valid JSON"))
		return
	}

	b, err := h.svc.Create(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *handler) list(c *gin.Context) {
	bookings, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *handler) fail(c *gin.Context, err error) {
	var verr validation.Errors
	if errors.As(err, &verr) {
		problems.Write(c, problems.Validation("invalid booking request", verr))
		return
	}
	logger.FromContext(c.Request.Context()).Error("booking request failed", zap.Error(err))
	problems.Write(c, problems.Internal("internal error"))
}
