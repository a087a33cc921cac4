package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// ThresholdService 阈值管理服务接口
type ThresholdService interface {
	Create(ctx context.Context, threshold *model.ThresholdModel) error
	Update(ctx context.Context, threshold *model.ThresholdModel) error
	Get(ctx context.Context, id string) (*model.ThresholdModel, error)
	List(ctx context.Context) ([]*model.ThresholdModel, error)
	// Deactivate 停用阈值,历史交易的验证结果不受影响
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// ResolveFor 解析客户对物质的适用阈值,供核查界面预览
	ResolveFor(ctx context.Context, substanceCode string, customerID string) (map[model.ThresholdKind]*model.ThresholdModel, error)
}

// thresholdService 阈值管理服务实现
type thresholdService struct {
	thresholdRepo repository.ThresholdRepository
	customerRepo  repository.CustomerRepository
	auditService  AuditLogService
	logger        *logrus.Logger
}

// NewThresholdService 创建阈值管理服务
func NewThresholdService(
	thresholdRepo repository.ThresholdRepository,
	customerRepo repository.CustomerRepository,
	auditService AuditLogService,
	logger *logrus.Logger,
) ThresholdService {
	return &thresholdService{
		thresholdRepo: thresholdRepo,
		customerRepo:  customerRepo,
		auditService:  auditService,
		logger:        logger,
	}
}

// Create 创建阈值
func (s *thresholdService) Create(ctx context.Context, threshold *model.ThresholdModel) error {
	if threshold.ID == "" {
		threshold.ID = uuid.New().String()
	}
	threshold.RowVersion = 1
	threshold.CreatedAt = time.Now()
	threshold.UpdatedAt = threshold.CreatedAt

	if err := threshold.Validate(); err != nil {
		return err
	}
	// 客户级阈值的客户必须存在
	if threshold.CustomerID != nil {
		if _, err := s.customerRepo.FindByID(ctx, *threshold.CustomerID); err != nil {
			return err
		}
	}

	if err := s.thresholdRepo.Save(ctx, threshold); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionCreate, ResourceThreshold, threshold.ID, map[string]interface{}{
		"name":           threshold.Name,
		"kind":           threshold.Kind,
		"substance_code": threshold.SubstanceCode,
		"limit":          threshold.LimitValue.String(),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for threshold creation")
	}
	return nil
}

// Update 更新阈值
func (s *thresholdService) Update(ctx context.Context, threshold *model.ThresholdModel) error {
	if err := threshold.Validate(); err != nil {
		return err
	}
	existing, err := s.thresholdRepo.FindByID(ctx, threshold.ID)
	if err != nil {
		return err
	}
	threshold.CreatedAt = existing.CreatedAt
	threshold.CreatedBy = existing.CreatedBy
	threshold.UpdatedAt = time.Now()

	if err := s.thresholdRepo.Save(ctx, threshold); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceThreshold, threshold.ID, map[string]interface{}{
		"name":   threshold.Name,
		"limit":  threshold.LimitValue.String(),
		"active": threshold.Active,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for threshold update")
	}
	return nil
}

// Get 查询阈值
func (s *thresholdService) Get(ctx context.Context, id string) (*model.ThresholdModel, error) {
	return s.thresholdRepo.FindByID(ctx, id)
}

// List 查询所有阈值
func (s *thresholdService) List(ctx context.Context) ([]*model.ThresholdModel, error) {
	return s.thresholdRepo.FindAll(ctx)
}

// Deactivate 停用阈值
func (s *thresholdService) Deactivate(ctx context.Context, id string) error {
	threshold, err := s.thresholdRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !threshold.Active {
		return nil
	}
	threshold.Active = false
	threshold.UpdatedAt = time.Now()
	if err := s.thresholdRepo.Save(ctx, threshold); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceThreshold, id, map[string]interface{}{
		"active": false,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for threshold deactivation")
	}
	return nil
}

// Delete 删除阈值
func (s *thresholdService) Delete(ctx context.Context, id string) error {
	if err := s.thresholdRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.auditService.RecordAction(ctx, ActionDelete, ResourceThreshold, id, nil); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for threshold deletion")
	}
	return nil
}

// ResolveFor 解析客户对物质的适用阈值
func (s *thresholdService) ResolveFor(ctx context.Context, substanceCode string, customerID string) (map[model.ThresholdKind]*model.ThresholdModel, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return newThresholdResolver(s.thresholdRepo).Resolve(ctx, substanceCode, customer)
}
