package housing

import (
	"errors"
	"net/http"
	"strconv"

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
	r.GET("/listings", h.search)
	r.POST("/listings", h.create)
	r.GET("/listings/:id", h.get)
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Housing Service is running", "health": "/health"})
}

func (h *handler) search(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	listings, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *handler) create(c *gin.Context) {
	var cmd CreateListingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		problems.Write(c, problems.BadRequest("request body is not valid JSON"))
		return
	}

	listing, err := h.svc.Create(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *handler) get(c *gin.Context) {
	listing, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *handler) fail(c *gin.Context, err error) {
	var verr validation.Errors
	switch {
	case errors.Is(err, ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &verr):
		problems.Write(c, problems.Validation("invalid listing request", verr))
	default:
		logger.FromContext(c.Request.Context()).Error("housing request failed", zap.Error(err))
		problems.Write(c, problems.Internal("internal error"))
	}
}

func parseFilter(c *gin.Context) (ListingFilter, error) {
	f := ListingFilter{
		Location: c.Query("location"),
		Type:     c.Query("type"),
	}
	errs := validation.Errors{}
	f.MinPrice = parsePrice(c.Query("minPrice"), "minPrice", errs)
	f.MaxPrice = parsePrice(c.Query("maxPrice"), "maxPrice", errs)
	return f, errs.Filter()
}

func parsePrice(raw, field string, errs validation.Errors) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs[field] = errors.New("must be a number")
		return nil
	}
	return &v
}
