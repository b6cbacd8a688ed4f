package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/Sokol111/student-housing/pkg/http/server"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func enabled() *bool {
	b := true
	return &b
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problems.Problem {
	t.Helper()
	var p problems.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestNewEngine_OrdersByPriority(t *testing.T) {
	var order []int
	mk := func(n int) Middleware {
		return Middleware{Priority: n, Handler: func(c *gin.Context) {
			order = append(order, n)
			c.Next()
		}}
	}

	engine := newEngine([]Middleware{mk(30), {Priority: 15}, mk(10), mk(20)})
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodGet, "/x")

	assert.Equal(t, []int{10, 20, 30}, order)
}

func TestProblemMiddleware(t *testing.T) {
	t.Run("renders problem from handler", func(t *testing.T) {
		engine := newEngine([]Middleware{{Priority: 1, Handler: problemMiddleware()}})
		engine.GET("/listings/:id", func(c *gin.Context) {
			problems.Abort(c, problems.NotFound("listing not found"))
		})

		w := serve(engine, http.MethodGet, "/listings/1")

		assert.Equal(t, http.StatusNotFound, w.Code)
		p := decodeProblem(t, w)
		assert.Equal(t, "listing not found", p.Detail)
		assert.Equal(t, "/listings/1", p.Instance)
	})

	t.Run("plain error becomes 500", func(t *testing.T) {
		engine := newEngine([]Middleware{{Priority: 1, Handler: problemMiddleware()}})
		engine.GET("/x", func(c *gin.Context) {
			_ = c.Error(errors.New("mongo down"))
		})

		w := serve(engine, http.MethodGet, "/x")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "mongo down", decodeProblem(t, w).Detail)
	})

	t.Run("written response is left alone", func(t *testing.T) {
		engine := newEngine([]Middleware{{Priority: 1, Handler: problemMiddleware()}})
		engine.GET("/x", func(c *gin.Context) {
			_ = c.Error(errors.New("ignored"))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		})

		w := serve(engine, http.MethodGet, "/x")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimitMiddleware(server.RateLimitConfig{Enabled: enabled(), RequestsPerSecond: 1, Burst: 1}, 20)
	engine := newEngine([]Middleware{{Priority: 8, Handler: problemMiddleware()}, rl})
	engine.GET("/bookings", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/bookings").Code)

	w := serve(engine, http.MethodGet, "/bookings")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	disabled := false
	m := newRateLimitMiddleware(server.RateLimitConfig{Enabled: &disabled}, 20)

	assert.Nil(t, m.Handler)
}

func TestBulkheadMiddleware(t *testing.T) {
	bh := newBulkheadMiddleware(server.BulkheadConfig{Enabled: enabled(), MaxConcurrent: 1, Timeout: 10 * time.Millisecond}, zap.NewNop(), 30)
	engine := newEngine([]Middleware{{Priority: 8, Handler: problemMiddleware()}, bh})

	release := make(chan struct{})
	entered := make(chan struct{})
	engine.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	engine.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serve(engine, http.MethodGet, "/slow")
	}()
	<-entered

	w := serve(engine, http.MethodGet, "/fast")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/fast").Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	tm := newTimeoutMiddleware(server.TimeoutConfig{Enabled: enabled(), RequestTimeout: 20 * time.Millisecond}, zap.NewNop(), 10)
	engine := newEngine([]Middleware{tm})
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	engine.GET("/fast", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(engine, http.MethodGet, "/slow")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, http.StatusGatewayTimeout, decodeProblem(t, w).Status)

	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodGet, "/fast").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := newEngine([]Middleware{{Priority: 40, Handler: recoveryMiddleware()}})
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodGet, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeProblem(t, w).Detail)
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := newEngine([]Middleware{{Priority: 50, Handler: loggerMiddleware(zap.New(core))}})
	engine.GET("/bookings", func(c *gin.Context) {
		_ = c.Error(errors.New("emit failed"))
		c.Status(http.StatusCreated)
	})
	engine.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodGet, "/bookings?x=1")
	serve(engine, http.MethodGet, "/health/live")

	require.Equal(t, 1, logs.FilterMessage("incoming request").Len())
	entry := logs.FilterMessage("incoming request").All()[0]
	assert.Equal(t, "/bookings", entry.ContextMap()["path"])
	assert.Equal(t, int64(http.StatusCreated), entry.ContextMap()["status"])
	assert.Equal(t, 1, logs.FilterMessage("request error").Len())
}
