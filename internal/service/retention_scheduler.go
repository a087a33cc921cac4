package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetentionScheduler 留存导出调度器
type RetentionScheduler struct {
	retentionService *RetentionService
	config           *RetentionScheduleConfig
	logger           *logrus.Logger
	stopChan         chan struct{}
}

// RetentionScheduleConfig 留存计划配置
type RetentionScheduleConfig struct {
	Enabled        bool          // 是否启用定期导出
	ExportInterval time.Duration // 导出间隔
	RetentionDays  int           // 归档文件保留天数
}

// NewRetentionScheduler 创建留存导出调度器
func NewRetentionScheduler(retentionService *RetentionService, config *RetentionScheduleConfig, logger *logrus.Logger) *RetentionScheduler {
	if config == nil {
		config = &RetentionScheduleConfig{
			Enabled:        true,
			ExportInterval: 24 * time.Hour,
			RetentionDays:  365,
		}
	}
	return &RetentionScheduler{
		retentionService: retentionService,
		config:           config,
		logger:           logger,
		stopChan:         make(chan struct{}),
	}
}

// Start 启动调度器
func (s *RetentionScheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		return
	}
	go s.loop(ctx)
}

// Stop 停止调度器
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
}

// Config 获取留存配置
func (s *RetentionScheduler) Config() *RetentionScheduleConfig {
	return s.config
}

func (s *RetentionScheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.config.ExportInterval)
	defer ticker.Stop()

	// 启动时先执行一次
	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *RetentionScheduler) runOnce(ctx context.Context) {
	if _, err := s.retentionService.CreateExport(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled retention export failed")
	}
	if _, err := s.retentionService.CleanupExports(s.config.RetentionDays); err != nil {
		s.logger.WithError(err).Error("Retention export cleanup failed")
	}
}
