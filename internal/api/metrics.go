package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/metrics"
)

// MetricsHandler Prometheus 指标端点
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
