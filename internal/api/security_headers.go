package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// securityHeaders 所有响应统一携带的安全头
// 接口返回的是受监管物质交易数据,一律禁止中间缓存
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Referrer-Policy":           "no-referrer",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Cache-Control":             "no-store",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
}

// SecurityHeadersMiddleware 安全头中间件
// Swagger UI 需要内联脚本,不对 /swagger 路径下发 CSP 与缓存限制
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range securityHeaders {
			c.Header(name, value)
		}
		if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			c.Header("Content-Security-Policy", "")
			c.Header("Cache-Control", "")
		}
		c.Next()
	}
}
