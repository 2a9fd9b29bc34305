package middleware

import (
	"codetrainer/internal/common/ratelimit"
	appErr "codetrainer/pkg/errors"
	"codetrainer/pkg/utils/logger"
	"codetrainer/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware rejects callers over the limit, keyed by route and client IP.
// Limiter failures other than rejections let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := route + ":" + c.ClientIP()
		if err := limiter.Allow(c.Request.Context(), key); err != nil {
			if appErr.Is(err, appErr.TooManyRequests) {
				response.AbortWithError(c, err)
				return
			}
			logger.Warn(c.Request.Context(), "rate limiter unavailable", zap.String("key", key), zap.Error(err))
		}
		c.Next()
	}
}
