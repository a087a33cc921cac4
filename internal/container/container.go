package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/api"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
	"github.com/yuriirask-bit/compliance-gin/internal/config"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/websocket"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、仓储、服务与控制器
type Container struct {
	db                 *gorm.DB
	logger             *logrus.Logger
	hub                *websocket.Hub
	tokenValidator     *auth.TokenValidator
	auditService       service.AuditLogService
	validationService  service.ValidationService
	thresholdService   service.ThresholdService
	licenceService     service.LicenceService
	customerService    service.CustomerService
	substanceService   service.SubstanceService
	gdpService         service.GDPService
	statisticsService  service.StatisticsService
	reportService      service.ReportService
	retentionService   *service.RetentionService
	retentionScheduler *service.RetentionScheduler
	controllers        *api.Controllers
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// 1. 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewContainerWithDB(cfg, db, logger)
}

// NewContainerWithDB 基于已有数据库连接创建容器,测试时传入 SQLite 内存库
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = api.GetLogger()
	}

	// WebSocket Hub: 交易状态变更推送
	hub := websocket.NewHub()

	// OIDC Token 验证器,未配置 Issuer 时为空(路由层跳过认证)
	var tokenValidator *auth.TokenValidator
	if cfg.OIDC.Issuer != "" {
		tokenValidator = auth.NewTokenValidator(cfg.OIDC.Issuer)
	}

	// 仓储层
	txRepo := repository.NewTransactionRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	substanceRepo := repository.NewSubstanceRepository(db)
	thresholdRepo := repository.NewThresholdRepository(db)
	licenceRepo := repository.NewLicenceRepository(db)
	gdpRepo := repository.NewGDPRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 服务层
	auditService := service.NewAuditLogService(auditRepo)
	validationService := service.NewValidationService(
		txRepo, customerRepo, substanceRepo, thresholdRepo, licenceRepo,
		auditService, hub, logger,
	)
	thresholdService := service.NewThresholdService(thresholdRepo, customerRepo, auditService, logger)
	licenceService := service.NewLicenceService(licenceRepo, auditService, logger)
	customerService := service.NewCustomerService(customerRepo, auditService, logger)
	substanceService := service.NewSubstanceService(substanceRepo, auditService, logger)
	gdpService := service.NewGDPService(gdpRepo, auditService, cfg.Security.EncryptionKey, logger)
	statisticsService := service.NewStatisticsService(db)
	reportService := service.NewReportService(txRepo, customerRepo)

	// 留存导出
	retentionService := service.NewRetentionService(db, cfg.Retention.ExportDir, logger)
	retentionScheduler := service.NewRetentionScheduler(retentionService, &service.RetentionScheduleConfig{
		Enabled:        cfg.Retention.Enabled,
		ExportInterval: time.Duration(cfg.Retention.ExportIntervalHours) * time.Hour,
		RetentionDays:  cfg.Retention.RetentionDays,
	}, logger)

	// 控制器
	controllers := &api.Controllers{
		Transaction: api.NewTransactionController(validationService),
		Threshold:   api.NewThresholdController(thresholdService),
		Licence:     api.NewLicenceController(licenceService),
		Customer:    api.NewCustomerController(customerService),
		Substance:   api.NewSubstanceController(substanceService),
		GDP:         api.NewGDPController(gdpService),
		Statistics:  api.NewStatisticsController(statisticsService),
		Report:      api.NewReportController(reportService, retentionService, auditService),
	}

	return &Container{
		db:                 db,
		logger:             logger,
		hub:                hub,
		tokenValidator:     tokenValidator,
		auditService:       auditService,
		validationService:  validationService,
		thresholdService:   thresholdService,
		licenceService:     licenceService,
		customerService:    customerService,
		substanceService:   substanceService,
		gdpService:         gdpService,
		statisticsService:  statisticsService,
		reportService:      reportService,
		retentionService:   retentionService,
		retentionScheduler: retentionScheduler,
		controllers:        controllers,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// TokenValidator 获取 OIDC Token 验证器,未配置时为 nil
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.tokenValidator
}

// Controllers 获取 API 控制器集合
func (c *Container) Controllers() *api.Controllers {
	return c.controllers
}

// ValidationService 获取交易验证服务
func (c *Container) ValidationService() service.ValidationService {
	return c.validationService
}

// RetentionScheduler 获取留存导出调度器
func (c *Container) RetentionScheduler() *service.RetentionScheduler {
	return c.retentionScheduler
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.retentionScheduler != nil {
		c.retentionScheduler.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
