package repository

import (
	"context"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.CustomerModel) error
	SaveWithVersion(ctx context.Context, customer *model.CustomerModel) error
	FindByID(ctx context.Context, id string) (*model.CustomerModel, error)
	FindAll(ctx context.Context) ([]*model.CustomerModel, error)
	FindByCategory(ctx context.Context, category string) ([]*model.CustomerModel, error)
}

// customerRepository 客户仓储实现
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create 创建客户
func (r *customerRepository) Create(ctx context.Context, customer *model.CustomerModel) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// SaveWithVersion 比较交换写入客户
func (r *customerRepository) SaveWithVersion(ctx context.Context, customer *model.CustomerModel) error {
	res := r.db.WithContext(ctx).Model(&model.CustomerModel{}).
		Where("id = ? AND row_version = ?", customer.ID, customer.RowVersion).
		Updates(map[string]interface{}{
			"name":             customer.Name,
			"category":         customer.Category,
			"country":          customer.Country,
			"approval_status":  customer.ApprovalStatus,
			"override_allowed": customer.OverrideAllowed,
			"row_version":      customer.RowVersion + 1,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.CustomerModel{}).
			Where("id = ?", customer.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConcurrencyConflict
	}
	customer.RowVersion++
	return nil
}

// FindByID 根据 ID 查找客户
func (r *customerRepository) FindByID(ctx context.Context, id string) (*model.CustomerModel, error) {
	var customer model.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// FindAll 查找所有客户
func (r *customerRepository) FindAll(ctx context.Context) ([]*model.CustomerModel, error) {
	var customers []*model.CustomerModel
	err := r.db.WithContext(ctx).Order("name ASC").Find(&customers).Error
	return customers, err
}

// FindByCategory 根据类别查找客户
func (r *customerRepository) FindByCategory(ctx context.Context, category string) ([]*model.CustomerModel, error) {
	var customers []*model.CustomerModel
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("name ASC").Find(&customers).Error
	return customers, err
}
