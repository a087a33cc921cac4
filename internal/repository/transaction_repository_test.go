package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 迁移数据库
	err = database.Migrate(db)
	require.NoError(t, err)

	return db
}

func newTransaction(id, customerID string, date time.Time, status model.TransactionStatus, substanceCode string, grams string) *model.TransactionModel {
	qty := decimal.RequireFromString(grams)
	return &model.TransactionModel{
		ID:                 id,
		Type:               model.TypeOrder,
		Direction:          model.DirectionOutbound,
		CustomerID:         customerID,
		OriginCountry:      "NL",
		DestinationCountry: "NL",
		TransactionDate:    date,
		Status:             status,
		RowVersion:         1,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
		Lines: []model.TransactionLineModel{
			{
				ID:            id + "-line-1",
				TransactionID: id,
				SubstanceCode: substanceCode,
				Quantity:      qty,
				Unit:          "g",
				BaseQuantity:  qty,
				CreatedAt:     time.Now(),
			},
		},
	}
}

// TestTransactionCreateAndFindByID 测试创建交易与按 ID 查找
func TestTransactionCreateAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	tx := newTransaction("txn-001", "cust-001", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), model.StatusPending, "MORPHINE", "10")
	require.NoError(t, repo.Create(ctx, tx))

	found, err := repo.FindByID(ctx, "txn-001")
	require.NoError(t, err)
	assert.Equal(t, "cust-001", found.CustomerID)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "MORPHINE", found.Lines[0].SubstanceCode)

	// 不存在的交易
	_, err = repo.FindByID(ctx, "txn-missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTransactionSaveWithVersion 测试乐观并发写入
func TestTransactionSaveWithVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	tx := newTransaction("txn-001", "cust-001", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), model.StatusPending, "MORPHINE", "10")
	require.NoError(t, repo.Create(ctx, tx))

	// 版本匹配,写入成功并递增内存版本
	tx.Status = model.StatusValid
	require.NoError(t, repo.SaveWithVersion(ctx, tx))
	assert.Equal(t, 2, tx.RowVersion)

	found, err := repo.FindByID(ctx, "txn-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusValid, found.Status)
	assert.Equal(t, 2, found.RowVersion)

	// 过期版本写入失败
	stale := *found
	stale.RowVersion = 1
	stale.Status = model.StatusInvalid
	err = repo.SaveWithVersion(ctx, &stale)
	assert.ErrorIs(t, err, repository.ErrConcurrencyConflict)

	// 记录不存在
	missing := newTransaction("txn-missing", "cust-001", time.Now(), model.StatusPending, "MORPHINE", "1")
	err = repo.SaveWithVersion(ctx, missing)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTransactionReplaceViolations 测试违规记录整体替换
func TestTransactionReplaceViolations(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	tx := newTransaction("txn-001", "cust-001", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), model.StatusPending, "MORPHINE", "10")
	require.NoError(t, repo.Create(ctx, tx))

	first := []*model.TransactionViolationModel{
		{ID: "vio-001", TransactionID: "txn-001", Code: model.ViolationMissingLicence, Severity: model.SeverityViolation, Message: "no active licence", SubstanceCode: "MORPHINE", CreatedAt: time.Now()},
		{ID: "vio-002", TransactionID: "txn-001", Code: model.ViolationQuantityThresholdExceeded, Severity: model.SeverityWarning, Message: "approaching limit", SubstanceCode: "MORPHINE", CreatedAt: time.Now()},
	}
	require.NoError(t, repo.ReplaceViolations(ctx, "txn-001", first))

	violations, err := repo.FindViolations(ctx, "txn-001")
	require.NoError(t, err)
	assert.Len(t, violations, 2)

	// 重新验证后整体替换,旧记录不残留
	second := []*model.TransactionViolationModel{
		{ID: "vio-003", TransactionID: "txn-001", Code: model.ViolationSubstanceReclassified, Severity: model.SeverityViolation, Message: "substance under reclassification", SubstanceCode: "MORPHINE", CreatedAt: time.Now()},
	}
	require.NoError(t, repo.ReplaceViolations(ctx, "txn-001", second))

	violations, err = repo.FindViolations(ctx, "txn-001")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, model.ViolationSubstanceReclassified, violations[0].Code)

	// 替换为空即清空
	require.NoError(t, repo.ReplaceViolations(ctx, "txn-001", nil))
	violations, err = repo.FindViolations(ctx, "txn-001")
	require.NoError(t, err)
	assert.Empty(t, violations)
}

// TestFindValidatedLinesInPeriod 测试周期累计只计入已验证交易并排除自身
func TestFindValidatedLinesInPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	march := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	// 计入: valid 与 approved_with_override
	require.NoError(t, repo.Create(ctx, newTransaction("txn-valid", "cust-001", march(5), model.StatusValid, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-override", "cust-001", march(8), model.StatusApprovedWithOverride, "MORPHINE", "20")))
	// 不计入: pending 与 invalid
	require.NoError(t, repo.Create(ctx, newTransaction("txn-pending", "cust-001", march(9), model.StatusPending, "MORPHINE", "30")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-invalid", "cust-001", march(9), model.StatusInvalid, "MORPHINE", "40")))
	// 不计入: 其他客户、其他物质、窗口外
	require.NoError(t, repo.Create(ctx, newTransaction("txn-other-cust", "cust-002", march(5), model.StatusValid, "MORPHINE", "50")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-other-sub", "cust-001", march(5), model.StatusValid, "CODEINE", "60")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-outside", "cust-001", time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), model.StatusValid, "MORPHINE", "70")))
	// 被验证的交易自身
	require.NoError(t, repo.Create(ctx, newTransaction("txn-self", "cust-001", march(10), model.StatusValid, "MORPHINE", "80")))

	lines, err := repo.FindValidatedLinesInPeriod(ctx, "cust-001", "MORPHINE", march(1), march(31), "txn-self")
	require.NoError(t, err)
	require.Len(t, lines, 2)

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.BaseQuantity)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(30)), "expected 30g, got %s", total)
}

// TestCountValidatedInPeriod 测试周期内已验证交易笔数统计
func TestCountValidatedInPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	march := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Create(ctx, newTransaction("txn-1", "cust-001", march(3), model.StatusValid, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-2", "cust-001", march(7), model.StatusApprovedWithOverride, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-3", "cust-001", march(9), model.StatusInvalid, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-self", "cust-001", march(10), model.StatusValid, "MORPHINE", "10")))

	count, err := repo.CountValidatedInPeriod(ctx, "cust-001", "MORPHINE", march(1), march(31), "txn-self")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestFindUsagesForMappingInPeriod 测试映射周期用量只计入已验证交易
func TestFindUsagesForMappingInPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	march := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Create(ctx, newTransaction("txn-1", "cust-001", march(3), model.StatusValid, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-2", "cust-001", march(7), model.StatusPending, "MORPHINE", "10")))

	usages := []*model.TransactionLicenceUsageModel{
		{ID: "usage-1", TransactionID: "txn-1", TransactionLineID: "txn-1-line-1", LicenceID: "lic-001", MappingID: "map-001", SubstanceCode: "MORPHINE", Quantity: decimal.NewFromInt(10), CreatedAt: time.Now()},
		{ID: "usage-2", TransactionID: "txn-2", TransactionLineID: "txn-2-line-1", LicenceID: "lic-001", MappingID: "map-001", SubstanceCode: "MORPHINE", Quantity: decimal.NewFromInt(10), CreatedAt: time.Now()},
	}
	require.NoError(t, repo.InsertUsages(ctx, usages))

	found, err := repo.FindUsagesForMappingInPeriod(ctx, "map-001", march(1), march(31), "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "txn-1", found[0].TransactionID)

	// 删除交易使用记录后不再计入
	require.NoError(t, repo.DeleteUsages(ctx, "txn-1"))
	found, err = repo.FindUsagesForMappingInPeriod(ctx, "map-001", march(1), march(31), "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

// TestTransactionFindByFilter 测试过滤与分页
func TestTransactionFindByFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	march := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Create(ctx, newTransaction("txn-1", "cust-001", march(1), model.StatusValid, "MORPHINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-2", "cust-001", march(2), model.StatusValid, "CODEINE", "10")))
	require.NoError(t, repo.Create(ctx, newTransaction("txn-3", "cust-002", march(3), model.StatusInvalid, "MORPHINE", "10")))

	customerID := "cust-001"
	txs, total, err := repo.FindByFilter(ctx, &repository.TransactionFilter{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, txs, 2)

	status := model.StatusInvalid
	txs, total, err = repo.FindByFilter(ctx, &repository.TransactionFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, "txn-3", txs[0].ID)

	substance := "MORPHINE"
	txs, total, err = repo.FindByFilter(ctx, &repository.TransactionFilter{SubstanceCode: &substance})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 分页: 每页 2 条,按交易日期倒序
	txs, total, err = repo.FindByFilter(ctx, &repository.TransactionFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, txs, 2)
	assert.Equal(t, "txn-3", txs[0].ID)

	txs, _, err = repo.FindByFilter(ctx, &repository.TransactionFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "txn-1", txs[0].ID)
}
