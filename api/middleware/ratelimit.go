package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
	"golang.org/x/time/rate"
)

const msgRateLimited = "You are submitting too quickly. Please wait a moment and try again."

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns per-identity (visitor id or IP) token-bucket rate
// limiting middleware powered by golang.org/x/time/rate.
//
// A limited request gets one error toast and is redirected back to the page
// it was submitted from. Entries unused for 1 hour are evicted by a
// background goroutine that runs every 5 minutes.
func RateLimit(cfg config.RateLimitConfig, n notify.Notifier) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*limiterEntry)

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		entry, ok := limiters[identity]
		if !ok {
			entry = &limiterEntry{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			limiters[identity] = entry
		}
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour)
			mu.Lock()
			for id, entry := range limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(limiters, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString(visitorKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !getLimiter(identity).Allow() {
			limitErr := models.NewAPIError(models.ErrCodeRateLimited, "submission rate exceeded", nil)
			slog.WarnContext(c.Request.Context(), "submission rate limited",
				"path", c.Request.URL.Path,
				"code", limitErr.Code,
			)
			notify.Error(c.Request.Context(), n, msgRateLimited)
			c.Redirect(http.StatusSeeOther, c.Request.URL.Path)
			c.Abort()
			return
		}

		c.Next()
	}
}
