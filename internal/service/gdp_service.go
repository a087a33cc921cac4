package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// GDPService GDP 站点/凭证/检查管理服务接口
type GDPService interface {
	SaveSite(ctx context.Context, site *model.GDPSiteModel) error
	GetSite(ctx context.Context, id string) (*model.GDPSiteModel, error)
	ListSites(ctx context.Context) ([]*model.GDPSiteModel, error)
	// AddCredential 登记凭证,编号加密落库
	AddCredential(ctx context.Context, credential *model.GDPCredentialModel, number string) error
	ListCredentials(ctx context.Context, siteID string) ([]*model.GDPCredentialModel, error)
	// DecryptCredentialNumber 解密凭证编号,仅限授权查询路径调用
	DecryptCredentialNumber(credential *model.GDPCredentialModel) (string, error)
	// ListExpiringCredentials 查询给定天数内到期的凭证,供到期预警
	ListExpiringCredentials(ctx context.Context, withinDays int) ([]*model.GDPCredentialModel, error)
	RecordInspection(ctx context.Context, inspection *model.GDPInspectionModel) error
	ListInspections(ctx context.Context, siteID string) ([]*model.GDPInspectionModel, error)
}

// gdpService GDP 管理服务实现
type gdpService struct {
	gdpRepo       repository.GDPRepository
	auditService  AuditLogService
	encryptionKey string
	logger        *logrus.Logger
}

// NewGDPService 创建 GDP 管理服务
func NewGDPService(
	gdpRepo repository.GDPRepository,
	auditService AuditLogService,
	encryptionKey string,
	logger *logrus.Logger,
) GDPService {
	return &gdpService{
		gdpRepo:       gdpRepo,
		auditService:  auditService,
		encryptionKey: encryptionKey,
		logger:        logger,
	}
}

// SaveSite 保存站点
func (s *gdpService) SaveSite(ctx context.Context, site *model.GDPSiteModel) error {
	if site.ID == "" {
		site.ID = uuid.New().String()
		site.RowVersion = 1
		site.Active = true
		site.CreatedAt = time.Now()
	}
	site.UpdatedAt = time.Now()

	if err := site.Validate(); err != nil {
		return err
	}
	if err := s.gdpRepo.SaveSite(ctx, site); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceGDPSite, site.ID, map[string]interface{}{
		"name":       site.Name,
		"country":    site.Country,
		"activities": site.Activities.String(),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for GDP site save")
	}
	return nil
}

// GetSite 查询站点
func (s *gdpService) GetSite(ctx context.Context, id string) (*model.GDPSiteModel, error) {
	return s.gdpRepo.FindSiteByID(ctx, id)
}

// ListSites 查询所有站点
func (s *gdpService) ListSites(ctx context.Context) ([]*model.GDPSiteModel, error) {
	return s.gdpRepo.FindSites(ctx)
}

// AddCredential 登记凭证
func (s *gdpService) AddCredential(ctx context.Context, credential *model.GDPCredentialModel, number string) error {
	if credential.ID == "" {
		credential.ID = uuid.New().String()
	}
	credential.CreatedAt = time.Now()
	credential.UpdatedAt = credential.CreatedAt

	encrypted, err := utils.Encrypt(number, s.encryptionKey)
	if err != nil {
		return err
	}
	credential.NumberEncrypted = encrypted

	if err := credential.Validate(); err != nil {
		return err
	}
	if _, err := s.gdpRepo.FindSiteByID(ctx, credential.SiteID); err != nil {
		return err
	}
	if err := s.gdpRepo.SaveCredential(ctx, credential); err != nil {
		return err
	}

	// 审计详情不含明文编号
	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceGDPSite, credential.SiteID, map[string]interface{}{
		"credential_id": credential.ID,
		"kind":          credential.Kind,
		"expiry_date":   credential.ExpiryDate,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for credential addition")
	}
	return nil
}

// ListCredentials 查询站点凭证
func (s *gdpService) ListCredentials(ctx context.Context, siteID string) ([]*model.GDPCredentialModel, error) {
	return s.gdpRepo.FindCredentialsBySite(ctx, siteID)
}

// DecryptCredentialNumber 解密凭证编号
func (s *gdpService) DecryptCredentialNumber(credential *model.GDPCredentialModel) (string, error) {
	return utils.Decrypt(credential.NumberEncrypted, s.encryptionKey)
}

// ListExpiringCredentials 查询即将到期的凭证
func (s *gdpService) ListExpiringCredentials(ctx context.Context, withinDays int) ([]*model.GDPCredentialModel, error) {
	if withinDays <= 0 {
		withinDays = 90
	}
	before := time.Now().AddDate(0, 0, withinDays)
	return s.gdpRepo.FindExpiringCredentials(ctx, before)
}

// RecordInspection 记录检查
func (s *gdpService) RecordInspection(ctx context.Context, inspection *model.GDPInspectionModel) error {
	if inspection.ID == "" {
		inspection.ID = uuid.New().String()
	}
	inspection.CreatedAt = time.Now()

	if err := inspection.Validate(); err != nil {
		return err
	}
	if _, err := s.gdpRepo.FindSiteByID(ctx, inspection.SiteID); err != nil {
		return err
	}
	if err := s.gdpRepo.SaveInspection(ctx, inspection); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceGDPSite, inspection.SiteID, map[string]interface{}{
		"inspection_id": inspection.ID,
		"outcome":       inspection.Outcome,
		"capa_required": inspection.CAPARequired,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for inspection")
	}

	if inspection.Outcome == model.InspectionFailed {
		s.logger.WithFields(logrus.Fields{
			"site_id":       inspection.SiteID,
			"inspection_id": inspection.ID,
		}).Warn("GDP inspection failed, review site qualification")
	}
	return nil
}

// ListInspections 查询站点检查记录
func (s *gdpService) ListInspections(ctx context.Context, siteID string) ([]*model.GDPInspectionModel, error) {
	return s.gdpRepo.FindInspectionsBySite(ctx, siteID)
}
