package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// SubstanceService 物质目录管理服务接口
type SubstanceService interface {
	Save(ctx context.Context, substance *model.SubstanceModel) error
	Get(ctx context.Context, code string) (*model.SubstanceModel, error)
	List(ctx context.Context) ([]*model.SubstanceModel, error)
	// MarkReclassification 标记物质进入重新分级复核
	// 自给定日期起该物质的交易被阻断,直至复核解除
	MarkReclassification(ctx context.Context, code string, at time.Time) error
	ClearReclassification(ctx context.Context, code string) error
}

// substanceService 物质目录管理服务实现
type substanceService struct {
	substanceRepo repository.SubstanceRepository
	auditService  AuditLogService
	logger        *logrus.Logger
}

// NewSubstanceService 创建物质目录管理服务
func NewSubstanceService(
	substanceRepo repository.SubstanceRepository,
	auditService AuditLogService,
	logger *logrus.Logger,
) SubstanceService {
	return &substanceService{
		substanceRepo: substanceRepo,
		auditService:  auditService,
		logger:        logger,
	}
}

// Save 保存物质
func (s *substanceService) Save(ctx context.Context, substance *model.SubstanceModel) error {
	if substance.CreatedAt.IsZero() {
		substance.CreatedAt = time.Now()
	}
	substance.UpdatedAt = time.Now()

	if err := substance.Validate(); err != nil {
		return err
	}
	if err := s.substanceRepo.Save(ctx, substance); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceSubstance, substance.Code, map[string]interface{}{
		"name":           substance.Name,
		"classification": substance.Classification,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for substance save")
	}
	return nil
}

// Get 查询物质
func (s *substanceService) Get(ctx context.Context, code string) (*model.SubstanceModel, error) {
	return s.substanceRepo.FindByCode(ctx, code)
}

// List 查询所有物质
func (s *substanceService) List(ctx context.Context) ([]*model.SubstanceModel, error) {
	return s.substanceRepo.FindAll(ctx)
}

// MarkReclassification 标记物质重新分级
func (s *substanceService) MarkReclassification(ctx context.Context, code string, at time.Time) error {
	substance, err := s.substanceRepo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	substance.UnderReclassification = true
	substance.ReclassifiedAt = &at
	substance.UpdatedAt = time.Now()
	if err := s.substanceRepo.Save(ctx, substance); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceSubstance, code, map[string]interface{}{
		"under_reclassification": true,
		"reclassified_at":        at,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for reclassification mark")
	}

	s.logger.WithFields(logrus.Fields{
		"substance_code":  code,
		"reclassified_at": at,
	}).Warn("Substance marked for reclassification review, trade is blocked")
	return nil
}

// ClearReclassification 解除物质重新分级标记
func (s *substanceService) ClearReclassification(ctx context.Context, code string) error {
	substance, err := s.substanceRepo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	substance.UnderReclassification = false
	substance.ReclassifiedAt = nil
	substance.UpdatedAt = time.Now()
	if err := s.substanceRepo.Save(ctx, substance); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceSubstance, code, map[string]interface{}{
		"under_reclassification": false,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for reclassification clear")
	}
	return nil
}
