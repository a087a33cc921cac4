package repository

import (
	"context"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// ThresholdRepository 阈值仓储接口
type ThresholdRepository interface {
	Save(ctx context.Context, threshold *model.ThresholdModel) error
	FindByID(ctx context.Context, id string) (*model.ThresholdModel, error)
	FindAll(ctx context.Context) ([]*model.ThresholdModel, error)
	Delete(ctx context.Context, id string) error
	// FindCandidates 返回给定物质的全部有效阈值(含客户/类别/全局作用域)
	// 特异性裁决在服务层完成,仓储只负责取数
	FindCandidates(ctx context.Context, substanceCode string) ([]*model.ThresholdModel, error)
	FindActiveForSubstances(ctx context.Context, substanceCodes []string) ([]*model.ThresholdModel, error)
}

// thresholdRepository 阈值仓储实现
type thresholdRepository struct {
	db *gorm.DB
}

// NewThresholdRepository 创建阈值仓储
func NewThresholdRepository(db *gorm.DB) ThresholdRepository {
	return &thresholdRepository{db: db}
}

// Save 保存阈值
func (r *thresholdRepository) Save(ctx context.Context, threshold *model.ThresholdModel) error {
	return r.db.WithContext(ctx).Save(threshold).Error
}

// FindByID 根据 ID 查找阈值
func (r *thresholdRepository) FindByID(ctx context.Context, id string) (*model.ThresholdModel, error) {
	var threshold model.ThresholdModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&threshold).Error; err != nil {
		return nil, translate(err)
	}
	return &threshold, nil
}

// FindAll 查找所有阈值
func (r *thresholdRepository) FindAll(ctx context.Context) ([]*model.ThresholdModel, error) {
	var thresholds []*model.ThresholdModel
	err := r.db.WithContext(ctx).Order("substance_code ASC, created_at DESC").Find(&thresholds).Error
	return thresholds, err
}

// Delete 删除阈值
func (r *thresholdRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ThresholdModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindCandidates 查找物质的全部有效阈值
func (r *thresholdRepository) FindCandidates(ctx context.Context, substanceCode string) ([]*model.ThresholdModel, error) {
	var thresholds []*model.ThresholdModel
	err := r.db.WithContext(ctx).
		Where("substance_code = ? AND active = ?", substanceCode, true).
		Find(&thresholds).Error
	return thresholds, err
}

// FindActiveForSubstances 批量预加载一组物质的有效阈值
func (r *thresholdRepository) FindActiveForSubstances(ctx context.Context, substanceCodes []string) ([]*model.ThresholdModel, error) {
	if len(substanceCodes) == 0 {
		return nil, nil
	}
	var thresholds []*model.ThresholdModel
	err := r.db.WithContext(ctx).
		Where("substance_code IN ? AND active = ?", substanceCodes, true).
		Find(&thresholds).Error
	return thresholds, err
}
