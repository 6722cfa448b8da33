package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/pkg/config"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/response"
)

// RateLimit enforces a sliding-window request limit per caller, keyed by
// account ID when JWT claims are already on the context and client IP
// otherwise — so it belongs after JWT on protected groups and before it on
// public ones. The window lives in a Redis sorted set of request
// timestamps. When Redis is unreachable the request is let through;
// throttling is protection, not availability.
func RateLimit(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !cfg.Enabled || client == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + callerKey(c)
		now := time.Now().UTC()
		windowStart := now.Add(-cfg.Window)

		pipe := client.TxPipeline()
		pipe.ZRemRangeByScore(c.Request.Context(), key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
		count := pipe.ZCard(c.Request.Context(), key)
		pipe.ZAdd(c.Request.Context(), key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
		pipe.Expire(c.Request.Context(), key, cfg.Window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			logger.Warn("rate limit check failed, letting request through", zap.Error(err))
			c.Next()
			return
		}

		if count.Val() >= int64(cfg.Limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if claims, ok := c.Get(ContextUserKey); ok {
		if typed, ok := claims.(*models.JWTClaims); ok {
			return "account:" + typed.AccountID
		}
	}
	return "ip:" + c.ClientIP()
}
