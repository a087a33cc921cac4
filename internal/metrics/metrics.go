package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 验证执行数(按结果)
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_validations_total",
			Help: "Total number of transaction validations by outcome",
		},
		[]string{"outcome"}, // valid, invalid, pending_override_approval
	)

	// 验证耗时,设计目标 3 秒内,桶边界覆盖目标值
	validationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transaction_validation_duration_seconds",
			Help:    "Transaction validation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		},
	)

	// 违规数(按代码)
	violationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_violations_total",
			Help: "Total number of compliance violations by code",
		},
		[]string{"code"},
	)

	// 例外审批决定数
	overridesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "override_decisions_total",
			Help: "Total number of override decisions",
		},
		[]string{"decision"}, // approved, rejected
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 交易状态分布
	transactionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transactions_by_status",
			Help: "Number of transactions by validation status",
		},
		[]string{"status"},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(validationsTotal)
	prometheus.MustRegister(validationDuration)
	prometheus.MustRegister(violationsTotal)
	prometheus.MustRegister(overridesTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(transactionsByStatus)

	// 注册 Go 运行时指标(只注册一次)
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordValidation 记录一次交易验证
func RecordValidation(outcome string, durationSeconds float64) {
	validationsTotal.WithLabelValues(outcome).Inc()
	validationDuration.Observe(durationSeconds)
}

// RecordViolation 记录一次合规违规
func RecordViolation(code string) {
	violationsTotal.WithLabelValues(code).Inc()
}

// RecordOverrideDecision 记录一次例外审批决定
func RecordOverrideDecision(decision string) {
	overridesTotal.WithLabelValues(decision).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateTransactionsByStatus 更新交易状态分布指标
func UpdateTransactionsByStatus(status string, count float64) {
	transactionsByStatus.WithLabelValues(status).Set(count)
}
