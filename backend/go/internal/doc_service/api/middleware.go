package api

import (
	"errors"
	"net/http"
	"strings"

	"DocHive/backend/go/internal/models"
	"DocHive/backend/go/pkg/logger"
	"DocHive/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// TraceMiddleware 为每个请求生成追踪 ID，写入上下文与响应头。
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set("traceID", traceID)
		c.Header("X-Trace-Id", traceID)
		c.Next()
	}
}

// AuthMiddleware 创建一个 Gin 中间件，用于验证 JWT 并解析出用户 ID。
// 认证体系在服务外部，这里只信任签名并取出 sub。
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权标头"})
			c.Abort()
			return
		}

		// 期望的格式是 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "授权标头格式不正确"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("非预期的签名方法")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 token"})
			c.Abort()
			return
		}
		// JWT 中的数字默认解析为 float64
		sub, ok := claims["sub"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 token claims"})
			c.Abort()
			return
		}
		c.Set("uid", int64(sub))

		c.Next()
	}
}

// AccessLogMiddleware 在每个请求完成后输出一条结构化访问日志，
// 带追踪 ID、用户 ID 与请求上下文。
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logger.New("doc_service", c.GetString("traceID"), "").
			WithUID(c.GetInt64("uid")).
			WithRequest(models.RequestInfo{
				Method:     c.Request.Method,
				Path:       c.Request.URL.Path,
				RemoteAddr: c.ClientIP(),
				UserAgent:  c.Request.UserAgent(),
			})
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			entry.WithError(models.ErrorInfo{
				Message:    c.Errors.String(),
				StatusCode: status,
			}).Error("请求处理失败")
			return
		}
		entry.WithPayload(map[string]interface{}{"status": status}).Info("请求完成")
	}
}

// RateLimitMiddleware 对路由应用限流，超限返回 429。
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUID 从上下文取出认证中间件写入的用户 ID。
func currentUID(c *gin.Context) int64 {
	return c.GetInt64("uid")
}
