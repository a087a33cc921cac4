package repository

import (
	"context"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// GDPRepository GDP 站点/凭证/检查仓储接口
type GDPRepository interface {
	SaveSite(ctx context.Context, site *model.GDPSiteModel) error
	FindSiteByID(ctx context.Context, id string) (*model.GDPSiteModel, error)
	FindSites(ctx context.Context) ([]*model.GDPSiteModel, error)
	SaveCredential(ctx context.Context, credential *model.GDPCredentialModel) error
	FindCredentialsBySite(ctx context.Context, siteID string) ([]*model.GDPCredentialModel, error)
	// FindExpiringCredentials 返回在给定日期前到期的凭证,用于到期预警
	FindExpiringCredentials(ctx context.Context, before time.Time) ([]*model.GDPCredentialModel, error)
	SaveInspection(ctx context.Context, inspection *model.GDPInspectionModel) error
	FindInspectionsBySite(ctx context.Context, siteID string) ([]*model.GDPInspectionModel, error)
}

// gdpRepository GDP 仓储实现
type gdpRepository struct {
	db *gorm.DB
}

// NewGDPRepository 创建 GDP 仓储
func NewGDPRepository(db *gorm.DB) GDPRepository {
	return &gdpRepository{db: db}
}

// SaveSite 保存站点
func (r *gdpRepository) SaveSite(ctx context.Context, site *model.GDPSiteModel) error {
	return r.db.WithContext(ctx).Save(site).Error
}

// FindSiteByID 根据 ID 查找站点
func (r *gdpRepository) FindSiteByID(ctx context.Context, id string) (*model.GDPSiteModel, error) {
	var site model.GDPSiteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&site).Error; err != nil {
		return nil, translate(err)
	}
	return &site, nil
}

// FindSites 查找所有站点
func (r *gdpRepository) FindSites(ctx context.Context) ([]*model.GDPSiteModel, error) {
	var sites []*model.GDPSiteModel
	err := r.db.WithContext(ctx).Order("name ASC").Find(&sites).Error
	return sites, err
}

// SaveCredential 保存凭证
func (r *gdpRepository) SaveCredential(ctx context.Context, credential *model.GDPCredentialModel) error {
	return r.db.WithContext(ctx).Save(credential).Error
}

// FindCredentialsBySite 查找站点的全部凭证
func (r *gdpRepository) FindCredentialsBySite(ctx context.Context, siteID string) ([]*model.GDPCredentialModel, error) {
	var credentials []*model.GDPCredentialModel
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("expiry_date ASC").
		Find(&credentials).Error
	return credentials, err
}

// FindExpiringCredentials 查找即将到期的凭证
func (r *gdpRepository) FindExpiringCredentials(ctx context.Context, before time.Time) ([]*model.GDPCredentialModel, error) {
	var credentials []*model.GDPCredentialModel
	err := r.db.WithContext(ctx).
		Where("expiry_date <= ?", before).
		Order("expiry_date ASC").
		Find(&credentials).Error
	return credentials, err
}

// SaveInspection 保存检查记录
func (r *gdpRepository) SaveInspection(ctx context.Context, inspection *model.GDPInspectionModel) error {
	return r.db.WithContext(ctx).Save(inspection).Error
}

// FindInspectionsBySite 查找站点的检查记录
func (r *gdpRepository) FindInspectionsBySite(ctx context.Context, siteID string) ([]*model.GDPInspectionModel, error) {
	var inspections []*model.GDPInspectionModel
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("inspected_at DESC").
		Find(&inspections).Error
	return inspections, err
}
