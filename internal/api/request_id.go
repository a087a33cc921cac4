package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
)

// RequestIDMiddleware 请求 ID 中间件
// 客户端传入 X-Request-ID 则沿用,否则生成新 ID
// 请求元信息同时写入请求 context,服务层审计直接读取
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := auth.WithRequestInfo(c.Request.Context(), requestID, c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
