package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults when section missing", func(t *testing.T) {
		cfg, err := newConfig(viper.New(), zap.NewNop())

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.True(t, cfg.Timeout.IsEnabled())
		assert.Equal(t, 30*time.Second, cfg.Timeout.RequestTimeout)
		assert.Equal(t, 40*time.Second, cfg.Connection.WriteTimeout)
		assert.Equal(t, 1000, cfg.RateLimit.RequestsPerSecond)
		assert.Equal(t, 500, cfg.Bulkhead.MaxConcurrent)
	})

	t.Run("write timeout follows request timeout", func(t *testing.T) {
		v := viper.New()
		v.Set("server.port", 3001)
		v.Set("server.timeout.request-timeout", "5s")

		cfg, err := newConfig(v, zap.NewNop())

		require.NoError(t, err)
		assert.Equal(t, 3001, cfg.Port)
		assert.Equal(t, 15*time.Second, cfg.Connection.WriteTimeout)
	})

	t.Run("disabled features keep zero values", func(t *testing.T) {
		v := viper.New()
		v.Set("server.rate-limit.enabled", false)
		v.Set("server.bulkhead.enabled", false)

		cfg, err := newConfig(v, zap.NewNop())

		require.NoError(t, err)
		assert.False(t, cfg.RateLimit.IsEnabled())
		assert.Zero(t, cfg.RateLimit.RequestsPerSecond)
		assert.False(t, cfg.Bulkhead.IsEnabled())
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		v := viper.New()
		v.Set("server.prot", 3001)

		_, err := newConfig(v, zap.NewNop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load server config")
	})

	t.Run("invalid port", func(t *testing.T) {
		v := viper.New()
		v.Set("server.port", 70000)

		_, err := newConfig(v, zap.NewNop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
	})
}

func TestServer_ServeWithReadyCallback(t *testing.T) {
	srv := newServer(zap.NewNop(), Config{Port: 0}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ready := make(chan struct{})
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ServeWithReadyCallback(func() { close(ready) })
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("onReady callback was not called")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/anything")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ListenFailure(t *testing.T) {
	first := newServer(zap.NewNop(), Config{Port: 0}, http.NotFoundHandler())
	go func() { _ = first.ServeWithReadyCallback(nil) }()
	addr := first.Addr()
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	second := newServer(zap.NewNop(), Config{}, http.NotFoundHandler())
	second.httpSrv.Addr = addr

	called := false
	err := second.ServeWithReadyCallback(func() { called = true })

	require.Error(t, err)
	assert.False(t, called)
}
