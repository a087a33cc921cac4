package repository

import (
	"context"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// LicenceRepository 许可证与许可证-物质映射仓储接口
type LicenceRepository interface {
	Create(ctx context.Context, licence *model.LicenceModel) error
	SaveWithVersion(ctx context.Context, licence *model.LicenceModel) error
	FindByID(ctx context.Context, id string) (*model.LicenceModel, error)
	FindByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string) ([]*model.LicenceModel, error)
	// FindActiveByHolder 返回持有方在给定日期有效的许可证
	FindActiveByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string, onDate time.Time) ([]*model.LicenceModel, error)
	SaveMapping(ctx context.Context, mapping *model.LicenceSubstanceMappingModel) error
	DeleteMapping(ctx context.Context, mappingID string) error
	FindMappingsByLicence(ctx context.Context, licenceID string) ([]*model.LicenceSubstanceMappingModel, error)
	// FindActiveMappings 返回客户在给定日期对给定物质有效的映射及其父许可证
	// 排序固定为 (映射到期日升序, 许可证 ID 升序),保证多证覆盖时选择确定
	FindActiveMappings(ctx context.Context, holderID, substanceCode string, onDate time.Time) ([]*ActiveMapping, error)
}

// ActiveMapping 有效映射与其父许可证
type ActiveMapping struct {
	Mapping *model.LicenceSubstanceMappingModel
	Licence *model.LicenceModel
}

// licenceRepository 许可证仓储实现
type licenceRepository struct {
	db *gorm.DB
}

// NewLicenceRepository 创建许可证仓储
func NewLicenceRepository(db *gorm.DB) LicenceRepository {
	return &licenceRepository{db: db}
}

// Create 创建许可证
func (r *licenceRepository) Create(ctx context.Context, licence *model.LicenceModel) error {
	return r.db.WithContext(ctx).Create(licence).Error
}

// SaveWithVersion 比较交换写入许可证
func (r *licenceRepository) SaveWithVersion(ctx context.Context, licence *model.LicenceModel) error {
	res := r.db.WithContext(ctx).Model(&model.LicenceModel{}).
		Where("id = ? AND row_version = ?", licence.ID, licence.RowVersion).
		Updates(map[string]interface{}{
			"licence_type":         licence.LicenceType,
			"number":               licence.Number,
			"effective_date":       licence.EffectiveDate,
			"expiry_date":          licence.ExpiryDate,
			"permitted_activities": licence.PermittedActivities,
			"scope":                licence.Scope,
			"status":               licence.Status,
			"row_version":          licence.RowVersion + 1,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.LicenceModel{}).
			Where("id = ?", licence.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConcurrencyConflict
	}
	licence.RowVersion++
	return nil
}

// FindByID 根据 ID 查找许可证(预加载映射)
func (r *licenceRepository) FindByID(ctx context.Context, id string) (*model.LicenceModel, error) {
	var licence model.LicenceModel
	err := r.db.WithContext(ctx).Preload("Mappings").Where("id = ?", id).First(&licence).Error
	if err != nil {
		return nil, translate(err)
	}
	return &licence, nil
}

// FindByHolder 查找持有方的全部许可证
func (r *licenceRepository) FindByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string) ([]*model.LicenceModel, error) {
	var licences []*model.LicenceModel
	err := r.db.WithContext(ctx).
		Where("holder_type = ? AND holder_id = ?", holderType, holderID).
		Order("expiry_date DESC").
		Find(&licences).Error
	return licences, err
}

// FindActiveByHolder 查找持有方在给定日期有效的许可证
func (r *licenceRepository) FindActiveByHolder(ctx context.Context, holderType model.LicenceHolderType, holderID string, onDate time.Time) ([]*model.LicenceModel, error) {
	var licences []*model.LicenceModel
	err := r.db.WithContext(ctx).
		Where("holder_type = ? AND holder_id = ?", holderType, holderID).
		Where("status = ?", model.LicenceActive).
		Where("effective_date <= ? AND expiry_date >= ?", onDate, onDate).
		Order("expiry_date ASC, id ASC").
		Find(&licences).Error
	return licences, err
}

// SaveMapping 保存许可证-物质映射
func (r *licenceRepository) SaveMapping(ctx context.Context, mapping *model.LicenceSubstanceMappingModel) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

// DeleteMapping 删除映射
func (r *licenceRepository) DeleteMapping(ctx context.Context, mappingID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", mappingID).Delete(&model.LicenceSubstanceMappingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindMappingsByLicence 查找许可证的全部映射
func (r *licenceRepository) FindMappingsByLicence(ctx context.Context, licenceID string) ([]*model.LicenceSubstanceMappingModel, error) {
	var mappings []*model.LicenceSubstanceMappingModel
	err := r.db.WithContext(ctx).
		Where("licence_id = ?", licenceID).
		Order("substance_code ASC, effective_date ASC").
		Find(&mappings).Error
	return mappings, err
}

// FindActiveMappings 查找客户对物质的有效映射及父许可证
func (r *licenceRepository) FindActiveMappings(ctx context.Context, holderID, substanceCode string, onDate time.Time) ([]*ActiveMapping, error) {
	var mappings []*model.LicenceSubstanceMappingModel
	err := r.db.WithContext(ctx).Model(&model.LicenceSubstanceMappingModel{}).
		Joins("JOIN licences ON licences.id = licence_substance_mappings.licence_id").
		Where("licences.holder_id = ?", holderID).
		Where("licences.status = ?", model.LicenceActive).
		Where("licences.effective_date <= ? AND licences.expiry_date >= ?", onDate, onDate).
		Where("licence_substance_mappings.substance_code = ?", substanceCode).
		Where("licence_substance_mappings.effective_date <= ? AND licence_substance_mappings.expiry_date >= ?", onDate, onDate).
		Order("licence_substance_mappings.expiry_date ASC, licence_substance_mappings.licence_id ASC").
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}

	result := make([]*ActiveMapping, 0, len(mappings))
	for _, m := range mappings {
		var licence model.LicenceModel
		if err := r.db.WithContext(ctx).Where("id = ?", m.LicenceID).First(&licence).Error; err != nil {
			return nil, translate(err)
		}
		result = append(result, &ActiveMapping{Mapping: m, Licence: &licence})
	}
	return result, nil
}
