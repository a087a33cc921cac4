package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

func newLicence(id, holderID string, effective, expiry time.Time) *model.LicenceModel {
	return &model.LicenceModel{
		ID:                  id,
		HolderType:          model.HolderCustomer,
		HolderID:            holderID,
		LicenceType:         "WDA",
		Number:              "WDA-" + id,
		EffectiveDate:       effective,
		ExpiryDate:          expiry,
		PermittedActivities: model.ActivityWholesale | model.ActivityExport,
		Status:              model.LicenceActive,
		RowVersion:          1,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
}

func newMapping(id, licenceID, substanceCode string, effective, expiry time.Time) *model.LicenceSubstanceMappingModel {
	return &model.LicenceSubstanceMappingModel{
		ID:            id,
		LicenceID:     licenceID,
		SubstanceCode: substanceCode,
		EffectiveDate: effective,
		ExpiryDate:    expiry,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// TestLicenceSaveWithVersion 测试许可证乐观并发写入
func TestLicenceSaveWithVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLicenceRepository(db)
	ctx := context.Background()

	licence := newLicence("lic-001", "cust-001",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, licence))

	licence.Status = model.LicenceSuspended
	require.NoError(t, repo.SaveWithVersion(ctx, licence))
	assert.Equal(t, 2, licence.RowVersion)

	stale := newLicence("lic-001", "cust-001", licence.EffectiveDate, licence.ExpiryDate)
	stale.RowVersion = 1
	err := repo.SaveWithVersion(ctx, stale)
	assert.ErrorIs(t, err, repository.ErrConcurrencyConflict)

	missing := newLicence("lic-missing", "cust-001", licence.EffectiveDate, licence.ExpiryDate)
	err = repo.SaveWithVersion(ctx, missing)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestFindActiveMappings 测试有效映射查找与确定性排序
func TestFindActiveMappings(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLicenceRepository(db)
	ctx := context.Background()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// 两张有效许可证,映射到期日不同
	licLate := newLicence("lic-b", "cust-001", jan1, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	licEarly := newLicence("lic-a", "cust-001", jan1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, licLate))
	require.NoError(t, repo.Create(ctx, licEarly))

	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-late", "lic-b", "MORPHINE", jan1, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-early", "lic-a", "MORPHINE", jan1, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))))

	active, err := repo.FindActiveMappings(ctx, "cust-001", "MORPHINE", onDate)
	require.NoError(t, err)
	require.Len(t, active, 2)

	// 先到期的映射排在前面
	assert.Equal(t, "map-early", active[0].Mapping.ID)
	assert.Equal(t, "lic-a", active[0].Licence.ID)
	assert.Equal(t, "map-late", active[1].Mapping.ID)
}

// TestFindActiveMappingsFiltering 测试无效许可证与过期映射被过滤
func TestFindActiveMappingsFiltering(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLicenceRepository(db)
	ctx := context.Background()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// 暂停的许可证不计入
	suspended := newLicence("lic-suspended", "cust-001", jan1, dec31)
	suspended.Status = model.LicenceSuspended
	require.NoError(t, repo.Create(ctx, suspended))
	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-1", "lic-suspended", "MORPHINE", jan1, dec31)))

	// 许可证有效但映射已过期
	activeLicence := newLicence("lic-active", "cust-001", jan1, dec31)
	require.NoError(t, repo.Create(ctx, activeLicence))
	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-expired", "lic-active", "MORPHINE", jan1, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))))

	// 其他物质的映射
	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-other", "lic-active", "CODEINE", jan1, dec31)))

	active, err := repo.FindActiveMappings(ctx, "cust-001", "MORPHINE", onDate)
	require.NoError(t, err)
	assert.Empty(t, active)
}

// TestFindActiveByHolder 测试持有方有效许可证查找
func TestFindActiveByHolder(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLicenceRepository(db)
	ctx := context.Background()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newLicence("lic-1", "cust-001", jan1, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))))
	expired := newLicence("lic-2", "cust-001", jan1, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, expired))

	active, err := repo.FindActiveByHolder(ctx, model.HolderCustomer, "cust-001", onDate)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "lic-1", active[0].ID)
}

// TestDeleteMapping 测试映射删除
func TestDeleteMapping(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLicenceRepository(db)
	ctx := context.Background()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveMapping(ctx, newMapping("map-1", "lic-001", "MORPHINE", jan1, dec31)))
	require.NoError(t, repo.DeleteMapping(ctx, "map-1"))
	assert.ErrorIs(t, repo.DeleteMapping(ctx, "map-1"), repository.ErrNotFound)
}
