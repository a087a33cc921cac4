package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LatencyConfig 响应时间目标配置
// 交易验证的目标是 3 秒内出结果,其余操作为常规查询目标
type LatencyConfig struct {
	ValidationMaxTime       time.Duration // 交易验证最大响应时间
	OverrideDecisionMaxTime time.Duration // 例外审批最大响应时间
	QueryMaxTime            time.Duration // 查询最大响应时间
	ReportMaxTime           time.Duration // 报告生成最大响应时间
}

// DefaultLatencyConfig 返回默认响应时间目标
func DefaultLatencyConfig() *LatencyConfig {
	return &LatencyConfig{
		ValidationMaxTime:       3 * time.Second,
		OverrideDecisionMaxTime: 1 * time.Second,
		QueryMaxTime:            500 * time.Millisecond,
		ReportMaxTime:           5 * time.Second,
	}
}

// getOperation 从请求路径和方法获取操作类型
func getOperation(c *gin.Context) string {
	method := c.Request.Method
	path := c.Request.URL.Path

	if strings.HasSuffix(path, "/validate") || strings.HasSuffix(path, "/revalidate") {
		return "transaction_validation"
	}
	if strings.Contains(path, "/override/") {
		return "override_decision"
	}
	if strings.Contains(path, "/reports") {
		return "report_generation"
	}
	if method == "GET" {
		return "query"
	}

	return "unknown"
}

// CheckLatency 检查操作是否在响应时间目标内
func CheckLatency(operation string, duration time.Duration, config *LatencyConfig) bool {
	switch operation {
	case "transaction_validation":
		return duration <= config.ValidationMaxTime
	case "override_decision":
		return duration <= config.OverrideDecisionMaxTime
	case "query":
		return duration <= config.QueryMaxTime
	case "report_generation":
		return duration <= config.ReportMaxTime
	default:
		// 未知操作不检查
		return true
	}
}

// getExpectedDuration 获取操作的目标响应时间
func getExpectedDuration(operation string, config *LatencyConfig) time.Duration {
	switch operation {
	case "transaction_validation":
		return config.ValidationMaxTime
	case "override_decision":
		return config.OverrideDecisionMaxTime
	case "query":
		return config.QueryMaxTime
	case "report_generation":
		return config.ReportMaxTime
	default:
		return 0
	}
}

// LatencyViolation 响应时间超标记录
type LatencyViolation struct {
	Operation string
	Duration  time.Duration
	Expected  time.Duration
	Timestamp time.Time
	Path      string
	Method    string
}

// LatencyAlertManager 响应时间告警管理器
type LatencyAlertManager struct {
	violations     map[string][]LatencyViolation
	thresholds     map[string]int
	alertCallbacks []func(string, []LatencyViolation)
	mu             sync.RWMutex
}

// NewLatencyAlertManager 创建响应时间告警管理器
func NewLatencyAlertManager() *LatencyAlertManager {
	return &LatencyAlertManager{
		violations:     make(map[string][]LatencyViolation),
		thresholds:     make(map[string]int),
		alertCallbacks: make([]func(string, []LatencyViolation), 0),
	}
}

// RecordViolation 记录超标
func (m *LatencyAlertManager) RecordViolation(operation string, violation LatencyViolation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.violations[operation] = append(m.violations[operation], violation)

	threshold := m.thresholds[operation]
	if threshold > 0 && len(m.violations[operation]) >= threshold {
		m.triggerAlert(operation)
	}
}

// SetAlertThreshold 设置告警阈值
func (m *LatencyAlertManager) SetAlertThreshold(operation string, threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[operation] = threshold
}

// OnAlert 注册告警回调
func (m *LatencyAlertManager) OnAlert(callback func(string, []LatencyViolation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertCallbacks = append(m.alertCallbacks, callback)
}

// GetViolations 获取超标记录
func (m *LatencyAlertManager) GetViolations(operation string) []LatencyViolation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.violations[operation]
}

// triggerAlert 触发告警
func (m *LatencyAlertManager) triggerAlert(operation string) {
	violations := m.violations[operation]
	for _, callback := range m.alertCallbacks {
		callback(operation, violations)
	}
}

// LatencyMonitorMiddleware 响应时间监控中间件
func LatencyMonitorMiddleware(config *LatencyConfig, alertManager *LatencyAlertManager) gin.HandlerFunc {
	if config == nil {
		config = DefaultLatencyConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := getOperation(c)

		c.Next()

		duration := time.Since(start)
		if !CheckLatency(operation, duration, config) {
			violation := LatencyViolation{
				Operation: operation,
				Duration:  duration,
				Expected:  getExpectedDuration(operation, config),
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
				Method:    c.Request.Method,
			}

			if alertManager != nil {
				alertManager.RecordViolation(operation, violation)
			}

			c.Header("X-Latency-Violation", "true")
			c.Header("X-Latency-Operation", operation)
			c.Header("X-Latency-Duration", duration.String())
			c.Header("X-Latency-Expected", violation.Expected.String())
		}
	}
}
