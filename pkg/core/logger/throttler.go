package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LogThrottler logs a key at WARN at most once per interval and at DEBUG otherwise.
// The consumer uses it while the bus is unreachable so reconnect loops do not flood the log.
type LogThrottler struct {
	log      *zap.Logger
	limiters sync.Map // map[string]*rate.Limiter
	interval time.Duration
}

// NewLogThrottler creates a throttler; a zero interval means 5 minutes.
func NewLogThrottler(log *zap.Logger, interval time.Duration) *LogThrottler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &LogThrottler{log: log, interval: interval}
}

func (t *LogThrottler) Warn(key string, msg string, fields ...zap.Field) {
	if t.getLimiter(key).Allow() {
		t.log.Warn(msg, fields...)
		return
	}
	t.log.Debug(msg, fields...)
}

// Reset forgets the key so that the next Warn for it is emitted at WARN again.
func (t *LogThrottler) Reset(key string) {
	t.limiters.Delete(key)
}

func (t *LogThrottler) getLimiter(key string) *rate.Limiter {
	if limiter, ok := t.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Every(t.interval), 1)
	actual, _ := t.limiters.LoadOrStore(key, limiter)
	return actual.(*rate.Limiter)
}
