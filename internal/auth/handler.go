package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/http/problems"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Msg   string   `json:"msg"`
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func newSessionResponse(msg string, s *Session) sessionResponse {
	return sessionResponse{
		Msg:   msg,
		Token: s.Token,
		User:  userView{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email, Role: s.User.Role},
	}
}

type handler struct {
	svc Service
}

func newHandler(svc Service) *handler {
	return &handler{svc: svc}
}

func registerRoutes(r *gin.Engine, h *handler) {
	r.GET("/", h.root)
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/verify", h.verify)
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Auth Service is running", "health": "/health"})
}

func (h *handler) register(c *gin.Context) {
	var cmd RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		problems.Write(c, problems.BadRequest("request body is not valid JSON"))
		return
	}

	session, err := h.svc.Register(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse("User registered", session))
}

func (h *handler) login(c *gin.Context) {
	var cmd LoginCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		problems.Write(c, problems.BadRequest("request body is not valid JSON"))
		return
	}

	session, err := h.svc.Login(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse("Login success", session))
}

// verify expects "Authorization: Bearer <token>".
func (h *handler) verify(c *gin.Context) {
	fields := strings.Fields(c.GetHeader("Authorization"))
	if len(fields) < 2 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token"})
		return
	}

	claims, err := h.svc.Verify(fields[1])
	if err != nil {
		logger.FromContext(c.Request.Context()).Debug("token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": claims})
}

func (h *handler) fail(c *gin.Context, err error) {
	var verr validation.Errors
	switch {
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
	case errors.As(err, &verr):
		problems.Write(c, problems.Validation("request validation failed", verr))
	default:
		logger.FromContext(c.Request.Context()).Error("auth request failed", zap.Error(err))
		problems.Write(c, problems.Internal("internal error"))
	}
}
