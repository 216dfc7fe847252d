package middlewares

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
)

type LoginLimiterConfig struct {
	Window      time.Duration
	MaxAttempts int
}

type loginWindow struct {
	windowStart time.Time
	count       int
}

// LoginLimiter is a per-IP fixed-window limiter for the login endpoint. It
// runs in front of the per-account throttle and bounds credential-stuffing
// from a single source address.
type LoginLimiter struct {
	mu      sync.Mutex
	windows map[string]*loginWindow
	config  LoginLimiterConfig
	now     func() time.Time
}

func NewLoginLimiter(config LoginLimiterConfig) *LoginLimiter {
	if config.Window <= 0 {
		config.Window = 10 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 7
	}
	return &LoginLimiter{
		windows: make(map[string]*loginWindow),
		config:  config,
		now:     time.Now,
	}
}

func (l *LoginLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.windowStart) >= l.config.Window {
		l.windows[key] = &loginWindow{windowStart: now, count: 1}
		l.pruneLocked(now)
		return true
	}

	w.count++
	return w.count <= l.config.MaxAttempts
}

// pruneLocked drops stale windows so the map does not grow unbounded.
// Called with the mutex held, only on the window-reset path.
func (l *LoginLimiter) pruneLocked(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.windowStart) >= l.config.Window {
			delete(l.windows, key)
		}
	}
}

func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			slog.Warn("login rate limit reached", slog.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apihelpers.APIResponse{
				Success:    false,
				StatusCode: http.StatusTooManyRequests,
				Message:    "too many login attempts, try again later",
				Errors:     []string{},
			})
			return
		}
		c.Next()
	}
}
