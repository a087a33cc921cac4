package repository

import (
	"context"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// SubstanceRepository 物质仓储接口
type SubstanceRepository interface {
	Save(ctx context.Context, substance *model.SubstanceModel) error
	FindByCode(ctx context.Context, code string) (*model.SubstanceModel, error)
	FindByCodes(ctx context.Context, codes []string) (map[string]*model.SubstanceModel, error)
	FindAll(ctx context.Context) ([]*model.SubstanceModel, error)
}

// substanceRepository 物质仓储实现
type substanceRepository struct {
	db *gorm.DB
}

// NewSubstanceRepository 创建物质仓储
func NewSubstanceRepository(db *gorm.DB) SubstanceRepository {
	return &substanceRepository{db: db}
}

// Save 保存物质
func (r *substanceRepository) Save(ctx context.Context, substance *model.SubstanceModel) error {
	return r.db.WithContext(ctx).Save(substance).Error
}

// FindByCode 根据代码查找物质
func (r *substanceRepository) FindByCode(ctx context.Context, code string) (*model.SubstanceModel, error) {
	var substance model.SubstanceModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&substance).Error; err != nil {
		return nil, translate(err)
	}
	return &substance, nil
}

// FindByCodes 批量查找物质,返回按代码索引的映射
func (r *substanceRepository) FindByCodes(ctx context.Context, codes []string) (map[string]*model.SubstanceModel, error) {
	if len(codes) == 0 {
		return map[string]*model.SubstanceModel{}, nil
	}
	var substances []*model.SubstanceModel
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&substances).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*model.SubstanceModel, len(substances))
	for _, s := range substances {
		result[s.Code] = s
	}
	return result, nil
}

// FindAll 查找所有物质
func (r *substanceRepository) FindAll(ctx context.Context) ([]*model.SubstanceModel, error) {
	var substances []*model.SubstanceModel
	err := r.db.WithContext(ctx).Order("code ASC").Find(&substances).Error
	return substances, err
}
