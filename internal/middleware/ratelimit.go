package middleware

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // Retry-After formatting
	"time"     // Window durations

	"kcode_backend/internal/utils" // Redis counter helper

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// RateLimitMiddleware bounds request frequency per identifier and action.
// Counters live in Redis so limits survive restarts and hold across
// horizontally scaled instances. The identifier is the session wallet when
// present, the client IP otherwise.
func RateLimitMiddleware(rdb *redis.Client, action string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.ClientIP() // Fall back to client IP for unauthenticated routes
		if wallet, exists := c.Get("walletAddress"); exists {
			identifier = wallet.(string) // Prefer the session wallet
		}
		key := "ratelimit:" + action + ":" + identifier // Per identifier+action counter
		count, err := utils.IncrWithTTL(context.Background(), rdb, key, window)
		if err != nil {
			// Redis being down should not take the API with it
			logrus.WithFields(logrus.Fields{
				"action": action,      // Limited action
				"error":  err.Error(), // Redis failure
			}).Warn("Rate limit counter unavailable")
			c.Next()
			return
		}
		// Over the limit for this window
		if count > limit {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds()))) // Tell the client when to retry
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next() // Under the limit; proceed
	}
}
