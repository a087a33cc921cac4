package repository

import (
	"context"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// TransactionRepository 交易仓储接口
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.TransactionModel) error
	FindByID(ctx context.Context, id string) (*model.TransactionModel, error)
	FindByFilter(ctx context.Context, filter *TransactionFilter) ([]*model.TransactionModel, int64, error)
	// SaveWithVersion 基于行版本的比较交换写入
	// 版本过期返回 ErrConcurrencyConflict,成功后递增内存中的 RowVersion
	SaveWithVersion(ctx context.Context, tx *model.TransactionModel) error
	ReplaceViolations(ctx context.Context, transactionID string, violations []*model.TransactionViolationModel) error
	FindViolations(ctx context.Context, transactionID string) ([]*model.TransactionViolationModel, error)
	InsertUsages(ctx context.Context, usages []*model.TransactionLicenceUsageModel) error
	DeleteUsages(ctx context.Context, transactionID string) error
	FindUsages(ctx context.Context, transactionID string) ([]*model.TransactionLicenceUsageModel, error)
	// FindValidatedLinesInPeriod 返回客户在给定时间窗内已通过验证交易的指定物质行
	// 用于数量/频率阈值的周期累计,排除给定交易自身
	FindValidatedLinesInPeriod(ctx context.Context, customerID, substanceCode string, from, to time.Time, excludeTransactionID string) ([]*model.TransactionLineModel, error)
	CountValidatedInPeriod(ctx context.Context, customerID, substanceCode string, from, to time.Time, excludeTransactionID string) (int64, error)
	// FindUsagesForMappingInPeriod 返回映射在给定时间窗内被已验证交易占用的使用记录
	// 用于许可证映射的周期数量上限累计,排除给定交易自身
	FindUsagesForMappingInPeriod(ctx context.Context, mappingID string, from, to time.Time, excludeTransactionID string) ([]*model.TransactionLicenceUsageModel, error)
}

// TransactionFilter 交易查询过滤器
type TransactionFilter struct {
	CustomerID    *string
	Status        *model.TransactionStatus
	SubstanceCode *string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}

// transactionRepository 交易仓储实现
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create 创建交易及其交易行
func (r *transactionRepository) Create(ctx context.Context, tx *model.TransactionModel) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByID 根据 ID 查找交易(预加载交易行)
func (r *transactionRepository) FindByID(ctx context.Context, id string) (*model.TransactionModel, error) {
	var tx model.TransactionModel
	err := r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

// FindByFilter 根据过滤器查找交易,返回当前页与总数
func (r *transactionRepository) FindByFilter(ctx context.Context, filter *TransactionFilter) ([]*model.TransactionModel, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.TransactionModel{})

	if filter != nil {
		if filter.CustomerID != nil {
			query = query.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.SubstanceCode != nil {
			query = query.Where("id IN (?)",
				r.db.Model(&model.TransactionLineModel{}).
					Select("transaction_id").
					Where("substance_code = ?", *filter.SubstanceCode))
		}
		if filter.StartDate != nil {
			query = query.Where("transaction_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("transaction_date <= ?", *filter.EndDate)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var txs []*model.TransactionModel
	err := query.Preload("Lines").Order("transaction_date DESC").Find(&txs).Error
	return txs, total, err
}

// SaveWithVersion 比较交换写入交易头
func (r *transactionRepository) SaveWithVersion(ctx context.Context, tx *model.TransactionModel) error {
	res := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("id = ? AND row_version = ?", tx.ID, tx.RowVersion).
		Updates(map[string]interface{}{
			"status":                 tx.Status,
			"override_approver":      tx.OverrideApprover,
			"override_justification": tx.OverrideJustification,
			"override_at":            tx.OverrideAt,
			"row_version":            tx.RowVersion + 1,
			"updated_at":             time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 区分记录不存在与版本过期
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
			Where("id = ?", tx.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConcurrencyConflict
	}
	tx.RowVersion++
	return nil
}

// ReplaceViolations 整体替换交易的违规记录
func (r *transactionRepository) ReplaceViolations(ctx context.Context, transactionID string, violations []*model.TransactionViolationModel) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("transaction_id = ?", transactionID).
			Delete(&model.TransactionViolationModel{}).Error; err != nil {
			return err
		}
		if len(violations) == 0 {
			return nil
		}
		return db.Create(violations).Error
	})
}

// FindViolations 查找交易的违规记录
func (r *transactionRepository) FindViolations(ctx context.Context, transactionID string) ([]*model.TransactionViolationModel, error) {
	var violations []*model.TransactionViolationModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC, code ASC").
		Find(&violations).Error
	return violations, err
}

// InsertUsages 写入许可证使用记录
func (r *transactionRepository) InsertUsages(ctx context.Context, usages []*model.TransactionLicenceUsageModel) error {
	if len(usages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(usages).Error
}

// DeleteUsages 删除交易的许可证使用记录(仅用于重新验证前清理)
func (r *transactionRepository) DeleteUsages(ctx context.Context, transactionID string) error {
	return r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Delete(&model.TransactionLicenceUsageModel{}).Error
}

// FindUsages 查找交易的许可证使用记录
func (r *transactionRepository) FindUsages(ctx context.Context, transactionID string) ([]*model.TransactionLicenceUsageModel, error) {
	var usages []*model.TransactionLicenceUsageModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&usages).Error
	return usages, err
}

// validatedStatuses 计入周期累计的交易状态
var validatedStatuses = []model.TransactionStatus{
	model.StatusValid,
	model.StatusApprovedWithOverride,
}

// FindValidatedLinesInPeriod 查找周期内已验证交易的物质行
func (r *transactionRepository) FindValidatedLinesInPeriod(ctx context.Context, customerID, substanceCode string, from, to time.Time, excludeTransactionID string) ([]*model.TransactionLineModel, error) {
	var lines []*model.TransactionLineModel
	query := r.db.WithContext(ctx).Model(&model.TransactionLineModel{}).
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transactions.customer_id = ?", customerID).
		Where("transactions.status IN ?", validatedStatuses).
		Where("transactions.transaction_date >= ? AND transactions.transaction_date <= ?", from, to).
		Where("transaction_lines.substance_code = ?", substanceCode)
	if excludeTransactionID != "" {
		query = query.Where("transactions.id != ?", excludeTransactionID)
	}
	err := query.Find(&lines).Error
	return lines, err
}

// FindUsagesForMappingInPeriod 查找映射在周期内的许可证使用记录
func (r *transactionRepository) FindUsagesForMappingInPeriod(ctx context.Context, mappingID string, from, to time.Time, excludeTransactionID string) ([]*model.TransactionLicenceUsageModel, error) {
	var usages []*model.TransactionLicenceUsageModel
	query := r.db.WithContext(ctx).Model(&model.TransactionLicenceUsageModel{}).
		Joins("JOIN transactions ON transactions.id = transaction_licence_usages.transaction_id").
		Where("transaction_licence_usages.mapping_id = ?", mappingID).
		Where("transactions.status IN ?", validatedStatuses).
		Where("transactions.transaction_date >= ? AND transactions.transaction_date <= ?", from, to)
	if excludeTransactionID != "" {
		query = query.Where("transactions.id != ?", excludeTransactionID)
	}
	err := query.Find(&usages).Error
	return usages, err
}

// CountValidatedInPeriod 统计周期内已验证的交易笔数
func (r *transactionRepository) CountValidatedInPeriod(ctx context.Context, customerID, substanceCode string, from, to time.Time, excludeTransactionID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("customer_id = ?", customerID).
		Where("status IN ?", validatedStatuses).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Where("id IN (?)",
			r.db.Model(&model.TransactionLineModel{}).
				Select("transaction_id").
				Where("substance_code = ?", substanceCode))
	if excludeTransactionID != "" {
		query = query.Where("id != ?", excludeTransactionID)
	}
	err := query.Count(&count).Error
	return count, err
}
