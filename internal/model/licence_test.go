package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// TestPermittedActivityBitmask 测试许可活动位掩码
func TestPermittedActivityBitmask(t *testing.T) {
	activities := model.ActivityWholesale | model.ActivityExport

	assert.True(t, activities.Has(model.ActivityWholesale))
	assert.True(t, activities.Has(model.ActivityExport))
	assert.False(t, activities.Has(model.ActivityImport))
	assert.False(t, activities.Has(model.ActivityManufacture))

	assert.Equal(t, "wholesale,export", activities.String())
	assert.Equal(t, "none", model.PermittedActivity(0).String())
}

// TestLicenceModelValidation 测试许可证模型验证
func TestLicenceModelValidation(t *testing.T) {
	valid := func() *model.LicenceModel {
		return &model.LicenceModel{
			ID:                  "lic-001",
			HolderType:          model.HolderCustomer,
			HolderID:            "cust-001",
			LicenceType:         "WDA",
			Number:              "WDA-2025-001",
			EffectiveDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ExpiryDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			PermittedActivities: model.ActivityWholesale,
			Status:              model.LicenceActive,
		}
	}

	assert.NoError(t, valid().Validate())

	l := valid()
	l.HolderType = "government"
	assert.Error(t, l.Validate())

	l = valid()
	l.ExpiryDate = l.EffectiveDate
	assert.Error(t, l.Validate())

	l = valid()
	l.PermittedActivities = 0
	assert.Error(t, l.Validate())
}

// TestLicenceIsActiveOn 测试许可证有效期与状态判断
func TestLicenceIsActiveOn(t *testing.T) {
	l := &model.LicenceModel{
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:        model.LicenceActive,
	}

	assert.True(t, l.IsActiveOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, l.IsActiveOn(l.EffectiveDate))
	assert.True(t, l.IsActiveOn(l.ExpiryDate))
	assert.False(t, l.IsActiveOn(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, l.IsActiveOn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	// 暂停与吊销的许可证在有效期内也不可用
	l.Status = model.LicenceSuspended
	assert.False(t, l.IsActiveOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	l.Status = model.LicenceRevoked
	assert.False(t, l.IsActiveOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}

// TestLicenceMappingValidation 测试许可证-物质映射验证
func TestLicenceMappingValidation(t *testing.T) {
	period := model.PeriodMonthly
	valid := func() *model.LicenceSubstanceMappingModel {
		return &model.LicenceSubstanceMappingModel{
			ID:            "map-001",
			LicenceID:     "lic-001",
			SubstanceCode: "MORPHINE",
			EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ExpiryDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	assert.NoError(t, valid().Validate())

	// 单笔上限非正
	m := valid()
	m.MaxQuantityPerTransaction = decPtr("0")
	assert.Error(t, m.Validate())

	// 周期上限必须配合周期
	m = valid()
	m.MaxQuantityPerPeriod = decPtr("500")
	assert.Error(t, m.Validate())

	m.Period = &period
	assert.NoError(t, m.Validate())
}

// TestLicenceMappingAllowsQuantity 测试单笔数量上限判断
func TestLicenceMappingAllowsQuantity(t *testing.T) {
	m := &model.LicenceSubstanceMappingModel{}
	// 未设置上限即不限
	assert.True(t, m.AllowsQuantity(decimal.NewFromInt(1000000)))

	m.MaxQuantityPerTransaction = decPtr("100")
	assert.True(t, m.AllowsQuantity(decimal.NewFromInt(100)))
	assert.False(t, m.AllowsQuantity(decimal.RequireFromString("100.000001")))
}
