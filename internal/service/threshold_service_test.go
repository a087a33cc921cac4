package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupThresholdService 创建阈值服务测试环境
func setupThresholdService(t *testing.T) (*gorm.DB, service.ThresholdService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	svc := service.NewThresholdService(
		repository.NewThresholdRepository(db),
		repository.NewCustomerRepository(db),
		service.NewAuditLogService(repository.NewAuditLogRepository(db)),
		logger,
	)
	return db, svc
}

func seedThresholdCustomer(t *testing.T, db *gorm.DB, id, category string) {
	require.NoError(t, db.Create(&model.CustomerModel{
		ID:             id,
		Name:           "Customer " + id,
		Category:       category,
		Country:        "NL",
		ApprovalStatus: model.CustomerApproved,
		RowVersion:     1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}).Error)
}

// TestThresholdCreateAndGet 测试阈值创建与查询
func TestThresholdCreateAndGet(t *testing.T) {
	db, svc := setupThresholdService(t)
	ctx := context.Background()
	seedThresholdCustomer(t, db, "cust-001", "wholesaler")

	threshold := &model.ThresholdModel{
		Name:           "morphine monthly cap",
		Kind:           model.ThresholdQuantity,
		SubstanceCode:  "MORPHINE",
		Period:         model.PeriodMonthly,
		LimitValue:     decimal.NewFromInt(100),
		WarningPercent: 80,
		Active:         true,
	}
	require.NoError(t, svc.Create(ctx, threshold))
	assert.NotEmpty(t, threshold.ID)

	found, err := svc.Get(ctx, threshold.ID)
	require.NoError(t, err)
	assert.Equal(t, "morphine monthly cap", found.Name)

	// 客户级阈值的客户必须存在
	customerID := "cust-missing"
	invalid := &model.ThresholdModel{
		Name:           "scoped cap",
		Kind:           model.ThresholdQuantity,
		SubstanceCode:  "MORPHINE",
		CustomerID:     &customerID,
		Period:         model.PeriodMonthly,
		LimitValue:     decimal.NewFromInt(50),
		WarningPercent: 80,
		Active:         true,
	}
	err = svc.Create(ctx, invalid)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestResolveForSpecificity 测试特异性裁决: 客户级优先于类别级与全局级
func TestResolveForSpecificity(t *testing.T) {
	db, svc := setupThresholdService(t)
	ctx := context.Background()
	seedThresholdCustomer(t, db, "cust-001", "wholesaler")

	customerID := "cust-001"
	category := "wholesaler"
	seed := func(id string, customer *string, cat *string, limit string) {
		require.NoError(t, db.Create(&model.ThresholdModel{
			ID:               id,
			Name:             "threshold " + id,
			Kind:             model.ThresholdQuantity,
			SubstanceCode:    "MORPHINE",
			CustomerID:       customer,
			CustomerCategory: cat,
			Period:           model.PeriodMonthly,
			LimitValue:       decimal.RequireFromString(limit),
			WarningPercent:   80,
			Active:           true,
			RowVersion:       1,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}).Error)
	}

	seed("thr-global", nil, nil, "200")
	seed("thr-category", nil, &category, "100")
	seed("thr-customer", &customerID, nil, "50")

	resolved, err := svc.ResolveFor(ctx, "MORPHINE", "cust-001")
	require.NoError(t, err)
	require.Contains(t, resolved, model.ThresholdQuantity)
	assert.Equal(t, "thr-customer", resolved[model.ThresholdQuantity].ID)
}

// TestResolveForTieBreak 测试同特异性取限额最小者
func TestResolveForTieBreak(t *testing.T) {
	db, svc := setupThresholdService(t)
	ctx := context.Background()
	seedThresholdCustomer(t, db, "cust-001", "wholesaler")

	seed := func(id, limit string) {
		require.NoError(t, db.Create(&model.ThresholdModel{
			ID:             id,
			Name:           "threshold " + id,
			Kind:           model.ThresholdQuantity,
			SubstanceCode:  "MORPHINE",
			Period:         model.PeriodMonthly,
			LimitValue:     decimal.RequireFromString(limit),
			WarningPercent: 80,
			Active:         true,
			RowVersion:     1,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}).Error)
	}

	seed("thr-b", "150")
	seed("thr-a", "100")
	// 同限额按 ID 升序
	seed("thr-c", "100")

	resolved, err := svc.ResolveFor(ctx, "MORPHINE", "cust-001")
	require.NoError(t, err)
	require.Contains(t, resolved, model.ThresholdQuantity)
	assert.Equal(t, "thr-a", resolved[model.ThresholdQuantity].ID)
}

// TestThresholdDeactivate 测试停用阈值后不再参与解析
func TestThresholdDeactivate(t *testing.T) {
	db, svc := setupThresholdService(t)
	ctx := context.Background()
	seedThresholdCustomer(t, db, "cust-001", "wholesaler")

	threshold := &model.ThresholdModel{
		Name:           "morphine monthly cap",
		Kind:           model.ThresholdQuantity,
		SubstanceCode:  "MORPHINE",
		Period:         model.PeriodMonthly,
		LimitValue:     decimal.NewFromInt(100),
		WarningPercent: 80,
		Active:         true,
	}
	require.NoError(t, svc.Create(ctx, threshold))
	require.NoError(t, svc.Deactivate(ctx, threshold.ID))

	resolved, err := svc.ResolveFor(ctx, "MORPHINE", "cust-001")
	require.NoError(t, err)
	assert.NotContains(t, resolved, model.ThresholdQuantity)

	// 重复停用幂等
	require.NoError(t, svc.Deactivate(ctx, threshold.ID))
}

// TestThresholdDelete 测试阈值删除
func TestThresholdDelete(t *testing.T) {
	db, svc := setupThresholdService(t)
	ctx := context.Background()
	seedThresholdCustomer(t, db, "cust-001", "wholesaler")

	threshold := &model.ThresholdModel{
		Name:           "morphine monthly cap",
		Kind:           model.ThresholdQuantity,
		SubstanceCode:  "MORPHINE",
		Period:         model.PeriodMonthly,
		LimitValue:     decimal.NewFromInt(100),
		WarningPercent: 80,
		Active:         true,
	}
	require.NoError(t, svc.Create(ctx, threshold))
	require.NoError(t, svc.Delete(ctx, threshold.ID))

	_, err := svc.Get(ctx, threshold.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, threshold.ID), repository.ErrNotFound)
}
