package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultAPIVersion = "v1"

// VersionMiddleware API 版本中间件
// 版本取自 URL 路径 /api/v<N>/,API-Version 请求头优先;
// 响应统一携带 X-API-Version 头
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := versionFromPath(c.Request.URL.Path)
		if header := c.GetHeader("API-Version"); header != "" {
			version = header
		}

		c.Set("api_version", version)
		c.Header("X-API-Version", version)

		c.Next()
	}
}

func versionFromPath(path string) string {
	const prefix = "/api/"
	if !strings.HasPrefix(path, prefix) {
		return defaultAPIVersion
	}
	rest := strings.TrimPrefix(path, prefix)
	segment, _, _ := strings.Cut(rest, "/")
	if len(segment) > 1 && segment[0] == 'v' {
		return segment
	}
	return defaultAPIVersion
}

// GetAPIVersion 从上下文获取 API 版本
func GetAPIVersion(c *gin.Context) string {
	if version, ok := c.Get("api_version"); ok {
		if v, ok := version.(string); ok {
			return v
		}
	}
	return defaultAPIVersion
}
