package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
	"github.com/yuriirask-bit/compliance-gin/internal/config"
	"github.com/yuriirask-bit/compliance-gin/internal/websocket"
	"gorm.io/gorm"

	_ "github.com/yuriirask-bit/compliance-gin/docs" // 导入生成的 docs 包
)

// Controllers API 控制器集合
type Controllers struct {
	Transaction *TransactionController
	Threshold   *ThresholdController
	Licence     *LicenceController
	Customer    *CustomerController
	Substance   *SubstanceController
	GDP         *GDPController
	Statistics  *StatisticsController
	Report      *ReportController
}

// SetupRoutes 配置路由
func SetupRoutes(
	cfg *config.Config,
	controllers *Controllers,
	hub *websocket.Hub,
	validator *auth.TokenValidator,
	db *gorm.DB,
) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(VersionMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(I18nMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(HTTPSRedirectMiddlewareWithConfig(config.IsProduction(cfg)))
	if cfg.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	router.Use(ErrorHandlerMiddleware())
	router.Use(LatencyMonitorMiddleware(DefaultLatencyConfig(), NewLatencyAlertManager()))

	// 健康检查
	healthController := NewHealthController(db, hub)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由: 交易状态变更推送
	if hub != nil && validator != nil {
		router.GET("/ws/transactions", websocket.StatusStreamHandler(hub, validator))
	}

	// Swagger UI 路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("http://localhost:8080/swagger/doc.json"), // Swagger JSON URL
	))

	// API v1 路由组,全部需要认证
	v1 := router.Group("/api/v1")
	if validator != nil {
		v1.Use(auth.AuthMiddleware(validator))
	}
	{
		// 交易验证路由
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", controllers.Transaction.Create)
			transactions.GET("", controllers.Transaction.List)
			transactions.GET("/:id", controllers.Transaction.Get)
			transactions.POST("/:id/validate", controllers.Transaction.Validate)
			transactions.POST("/:id/revalidate", controllers.Transaction.Revalidate)
			transactions.GET("/:id/violations", controllers.Transaction.GetViolations)
			transactions.GET("/:id/licence-usages", controllers.Transaction.GetLicenceUsages)

			// 例外审批需要合规官角色
			overrides := transactions.Group("/:id/override")
			overrides.Use(auth.RequireRole(auth.RoleComplianceOfficer))
			{
				overrides.POST("/approve", controllers.Transaction.ApproveOverride)
				overrides.POST("/reject", controllers.Transaction.RejectOverride)
			}
		}

		// 阈值管理路由
		thresholds := v1.Group("/thresholds")
		{
			thresholds.POST("", controllers.Threshold.Create)
			thresholds.GET("", controllers.Threshold.List)
			thresholds.GET("/resolve", controllers.Threshold.Resolve)
			thresholds.GET("/:id", controllers.Threshold.Get)
			thresholds.PUT("/:id", controllers.Threshold.Update)
			thresholds.DELETE("/:id", controllers.Threshold.Delete)
			thresholds.POST("/:id/deactivate", controllers.Threshold.Deactivate)
		}

		// 许可证管理路由
		licences := v1.Group("/licences")
		{
			licences.POST("", controllers.Licence.Create)
			licences.GET("", controllers.Licence.ListByHolder)
			licences.GET("/:id", controllers.Licence.Get)
			licences.PUT("/:id", controllers.Licence.Update)
			licences.POST("/:id/suspend", controllers.Licence.Suspend)
			licences.POST("/:id/revoke", controllers.Licence.Revoke)
			licences.POST("/:id/mappings", controllers.Licence.AddMapping)
			licences.GET("/:id/mappings", controllers.Licence.ListMappings)
			licences.DELETE("/:id/mappings/:mapping_id", controllers.Licence.RemoveMapping)
		}

		// 客户资质路由
		customers := v1.Group("/customers")
		{
			customers.POST("", controllers.Customer.Create)
			customers.GET("", controllers.Customer.List)
			customers.GET("/:id", controllers.Customer.Get)
			customers.PUT("/:id", controllers.Customer.Update)
			customers.POST("/:id/approval-status", controllers.Customer.SetApprovalStatus)
		}

		// 物质目录路由
		substances := v1.Group("/substances")
		{
			substances.PUT("", controllers.Substance.Save)
			substances.GET("", controllers.Substance.List)
			substances.GET("/:code", controllers.Substance.Get)
			substances.POST("/:code/reclassification", controllers.Substance.MarkReclassification)
			substances.DELETE("/:code/reclassification", controllers.Substance.ClearReclassification)
		}

		// GDP 管理路由
		gdp := v1.Group("/gdp")
		{
			gdp.PUT("/sites", controllers.GDP.SaveSite)
			gdp.GET("/sites", controllers.GDP.ListSites)
			gdp.GET("/sites/:id", controllers.GDP.GetSite)
			gdp.POST("/sites/:id/credentials", controllers.GDP.AddCredential)
			gdp.GET("/sites/:id/credentials", controllers.GDP.ListCredentials)
			gdp.POST("/sites/:id/inspections", controllers.GDP.RecordInspection)
			gdp.GET("/sites/:id/inspections", controllers.GDP.ListInspections)
			gdp.GET("/credentials/expiring", controllers.GDP.ListExpiringCredentials)
		}

		// 合规统计路由
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/transactions/by-status", controllers.Statistics.TransactionsByStatus)
			statistics.GET("/transactions/by-time", controllers.Statistics.TransactionsByTime)
			statistics.GET("/violations/by-code", controllers.Statistics.ViolationsByCode)
			statistics.GET("/overrides", controllers.Statistics.Overrides)
			statistics.GET("/licence-utilisation", controllers.Statistics.LicenceUtilisation)
		}

		// 合规报告与留存路由
		reports := v1.Group("/reports")
		{
			reports.GET("/customers/:id", controllers.Report.CustomerReport)
			reports.POST("/exports", controllers.Report.CreateExport)
			reports.GET("/exports", controllers.Report.ListExports)
		}

		// 审计轨迹路由
		v1.GET("/audit/:resource_type/:resource_id", controllers.Report.AuditTrail)
	}

	return router
}
