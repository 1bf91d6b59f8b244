package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ummahconnect/community-backend/internal/httpx"
)

// RateLimiter limits requests per client IP to perMinute.
func RateLimiter(perMinute int64) gin.HandlerFunc {
	store := memory.NewStore()
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  perMinute,
	}

	instance := limiter.New(store, rate)

	return ginlimiter.NewMiddleware(instance,
		ginlimiter.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpx.Envelope{
				Success: false,
				Message: "too many requests, slow down",
				Code:    "RATE_LIMITED",
			})
		}),
	)
}
