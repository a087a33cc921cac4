package service_test

import (
	"context"
	"testing"
	"time"

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

// setupCustomerAndSubstanceServices 创建客户与物质服务测试环境
func setupCustomerAndSubstanceServices(t *testing.T) (service.CustomerService, service.SubstanceService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	auditService := service.NewAuditLogService(repository.NewAuditLogRepository(db))

	customerSvc := service.NewCustomerService(repository.NewCustomerRepository(db), auditService, logger)
	substanceSvc := service.NewSubstanceService(repository.NewSubstanceRepository(db), auditService, logger)
	return customerSvc, substanceSvc
}

// TestCustomerCreateDefaultsToPending 测试新客户默认待审核
func TestCustomerCreateDefaultsToPending(t *testing.T) {
	svc, _ := setupCustomerAndSubstanceServices(t)
	ctx := context.Background()

	customer := &model.CustomerModel{
		Name:     "Apotheek Centraal",
		Category: "hospital_pharmacy",
		Country:  "NL",
	}
	require.NoError(t, svc.Create(ctx, customer))
	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, model.CustomerPending, customer.ApprovalStatus)
	assert.False(t, customer.CanTransact())
}

// TestCustomerSetApprovalStatus 测试资质状态变更
func TestCustomerSetApprovalStatus(t *testing.T) {
	svc, _ := setupCustomerAndSubstanceServices(t)
	ctx := context.Background()

	customer := &model.CustomerModel{
		Name:     "Apotheek Centraal",
		Category: "hospital_pharmacy",
		Country:  "NL",
	}
	require.NoError(t, svc.Create(ctx, customer))

	require.NoError(t, svc.SetApprovalStatus(ctx, customer.ID, model.CustomerApproved))
	found, err := svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, found.CanTransact())

	// 幂等: 重复设置同一状态不报错
	require.NoError(t, svc.SetApprovalStatus(ctx, customer.ID, model.CustomerApproved))

	require.NoError(t, svc.SetApprovalStatus(ctx, customer.ID, model.CustomerSuspended))
	found, err = svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, found.CanTransact())

	// 无效状态被拒绝
	err = svc.SetApprovalStatus(ctx, customer.ID, "verified")
	assert.Error(t, err)

	err = svc.SetApprovalStatus(ctx, "cust-missing", model.CustomerApproved)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestSubstanceReclassificationLifecycle 测试重新分级标记与解除
func TestSubstanceReclassificationLifecycle(t *testing.T) {
	_, svc := setupCustomerAndSubstanceServices(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, &model.SubstanceModel{
		Code:           "MORPHINE",
		Name:           "Morphine",
		Classification: model.ClassOpiumListI,
	}))

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.MarkReclassification(ctx, "MORPHINE", at))

	substance, err := svc.Get(ctx, "MORPHINE")
	require.NoError(t, err)
	assert.True(t, substance.UnderReclassification)
	require.NotNil(t, substance.ReclassifiedAt)
	assert.True(t, substance.BlockedOn(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, svc.ClearReclassification(ctx, "MORPHINE"))
	substance, err = svc.Get(ctx, "MORPHINE")
	require.NoError(t, err)
	assert.False(t, substance.UnderReclassification)
	assert.Nil(t, substance.ReclassifiedAt)

	// 未登记物质
	err = svc.MarkReclassification(ctx, "UNKNOWN", at)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
