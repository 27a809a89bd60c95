package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/pkg/redis"
	"fleet-ledger/backend/pkg/response"
)

// RateRule 限流规则：同一来源在 Window 内最多 Limit 次
type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// LoginRateRule 登录接口按 IP 计数，管理员与司机登录共用额度
var LoginRateRule = RateRule{Name: "login", Limit: 10, Window: time.Minute}

// RateLimit 基于 Redis 固定窗口计数的限流
// rdb 为 nil 或 Redis 出错时放行，与 JWTAuth 的黑名单降级一致
func RateLimit(rdb *redis.Client, rule RateRule) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(rule.Window / time.Second))
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", rule.Name, c.ClientIP())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		response.Error(c, http.StatusTooManyRequests, 10004,
			fmt.Sprintf("%s 请求过于频繁，请 %s 秒后再试", rule.Name, retryAfter))
		c.Abort()
	}
}
