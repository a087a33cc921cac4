package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// ErrMappingOutlivesLicence 映射有效期超出父许可证有效期
var ErrMappingOutlivesLicence = errors.New("mapping validity window must lie within the licence validity window")

// LicenceService 许可证管理服务接口
type LicenceService interface {
	Create(ctx context.Context, licence *model.LicenceModel) error
	Update(ctx context.Context, licence *model.LicenceModel) error
	Get(ctx context.Context, id string) (*model.LicenceModel, error)
	ListByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string) ([]*model.LicenceModel, error)
	// Suspend 暂停许可证,即时生效: 后续验证不再接受该证
	Suspend(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	AddMapping(ctx context.Context, mapping *model.LicenceSubstanceMappingModel) error
	RemoveMapping(ctx context.Context, licenceID, mappingID string) error
	ListMappings(ctx context.Context, licenceID string) ([]*model.LicenceSubstanceMappingModel, error)
}

// licenceService 许可证管理服务实现
type licenceService struct {
	licenceRepo  repository.LicenceRepository
	auditService AuditLogService
	logger       *logrus.Logger
}

// NewLicenceService 创建许可证管理服务
func NewLicenceService(
	licenceRepo repository.LicenceRepository,
	auditService AuditLogService,
	logger *logrus.Logger,
) LicenceService {
	return &licenceService{
		licenceRepo:  licenceRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// Create 创建许可证
func (s *licenceService) Create(ctx context.Context, licence *model.LicenceModel) error {
	if licence.ID == "" {
		licence.ID = uuid.New().String()
	}
	if licence.Status == "" {
		licence.Status = model.LicenceActive
	}
	licence.RowVersion = 1
	licence.CreatedAt = time.Now()
	licence.UpdatedAt = licence.CreatedAt

	if err := licence.Validate(); err != nil {
		return err
	}
	if err := s.licenceRepo.Create(ctx, licence); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionCreate, ResourceLicence, licence.ID, map[string]interface{}{
		"holder_type":  licence.HolderType,
		"holder_id":    licence.HolderID,
		"licence_type": licence.LicenceType,
		"number":       licence.Number,
		"expiry_date":  licence.ExpiryDate,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for licence creation")
	}
	return nil
}

// Update 更新许可证(乐观并发)
// 收窄有效期时既有映射可能越界,越界映射随之失效是预期行为
func (s *licenceService) Update(ctx context.Context, licence *model.LicenceModel) error {
	if err := licence.Validate(); err != nil {
		return err
	}
	if err := s.licenceRepo.SaveWithVersion(ctx, licence); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceLicence, licence.ID, map[string]interface{}{
		"status":      licence.Status,
		"expiry_date": licence.ExpiryDate,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for licence update")
	}
	return nil
}

// Get 查询许可证
func (s *licenceService) Get(ctx context.Context, id string) (*model.LicenceModel, error) {
	return s.licenceRepo.FindByID(ctx, id)
}

// ListByHolder 查询持有方的许可证
func (s *licenceService) ListByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string) ([]*model.LicenceModel, error) {
	return s.licenceRepo.FindByHolder(ctx, holderType, holderID)
}

// Suspend 暂停许可证
func (s *licenceService) Suspend(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.LicenceSuspended)
}

// Revoke 吊销许可证
func (s *licenceService) Revoke(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.LicenceRevoked)
}

func (s *licenceService) setStatus(ctx context.Context, id string, status model.LicenceStatus) error {
	licence, err := s.licenceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if licence.Status == status {
		return nil
	}
	licence.Status = status
	if err := s.licenceRepo.SaveWithVersion(ctx, licence); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceLicence, id, map[string]interface{}{
		"status": status,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for licence status change")
	}

	s.logger.WithFields(logrus.Fields{
		"licence_id": id,
		"status":     status,
	}).Info("Licence status changed")
	return nil
}

// AddMapping 添加许可证-物质映射
// 不变式: 映射有效期必须完全落在父许可证有效期之内
func (s *licenceService) AddMapping(ctx context.Context, mapping *model.LicenceSubstanceMappingModel) error {
	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	mapping.CreatedAt = time.Now()
	mapping.UpdatedAt = mapping.CreatedAt

	if err := mapping.Validate(); err != nil {
		return err
	}

	licence, err := s.licenceRepo.FindByID(ctx, mapping.LicenceID)
	if err != nil {
		return err
	}
	if mapping.EffectiveDate.Before(licence.EffectiveDate) || mapping.ExpiryDate.After(licence.ExpiryDate) {
		return ErrMappingOutlivesLicence
	}

	if err := s.licenceRepo.SaveMapping(ctx, mapping); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceLicence, mapping.LicenceID, map[string]interface{}{
		"mapping_id":     mapping.ID,
		"substance_code": mapping.SubstanceCode,
		"expiry_date":    mapping.ExpiryDate,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for mapping addition")
	}
	return nil
}

// RemoveMapping 删除映射
func (s *licenceService) RemoveMapping(ctx context.Context, licenceID, mappingID string) error {
	if err := s.licenceRepo.DeleteMapping(ctx, mappingID); err != nil {
		return err
	}
	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceLicence, licenceID, map[string]interface{}{
		"removed_mapping_id": mappingID,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for mapping removal")
	}
	return nil
}

// ListMappings 查询许可证的映射
func (s *licenceService) ListMappings(ctx context.Context, licenceID string) ([]*model.LicenceSubstanceMappingModel, error) {
	return s.licenceRepo.FindMappingsByLicence(ctx, licenceID)
}
