package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

func strPtr(s string) *string { return &s }

// TestThresholdModelTableName 测试表名
func TestThresholdModelTableName(t *testing.T) {
	assert.Equal(t, "thresholds", model.ThresholdModel{}.TableName())
}

// TestThresholdModelValidation 测试阈值模型验证
func TestThresholdModelValidation(t *testing.T) {
	valid := func() *model.ThresholdModel {
		return &model.ThresholdModel{
			ID:             "thr-001",
			Name:           "morphine monthly cap",
			Kind:           model.ThresholdQuantity,
			SubstanceCode:  "MORPHINE",
			Period:         model.PeriodMonthly,
			LimitValue:     decimal.NewFromInt(100),
			WarningPercent: 80,
		}
	}

	assert.NoError(t, valid().Validate())

	th := valid()
	th.Kind = "volume"
	assert.Error(t, th.Validate())

	th = valid()
	th.Period = "fortnightly"
	assert.Error(t, th.Validate())

	th = valid()
	th.LimitValue = decimal.Zero
	assert.Error(t, th.Validate())

	th = valid()
	th.WarningPercent = 120
	assert.Error(t, th.Validate())

	// 客户与类别作用域互斥
	th = valid()
	th.CustomerID = strPtr("cust-001")
	th.CustomerCategory = strPtr("wholesaler")
	assert.Error(t, th.Validate())
}

// TestThresholdSpecificity 测试特异性等级: 客户 > 类别 > 全局
func TestThresholdSpecificity(t *testing.T) {
	global := &model.ThresholdModel{}
	category := &model.ThresholdModel{CustomerCategory: strPtr("wholesaler")}
	customer := &model.ThresholdModel{CustomerID: strPtr("cust-001")}

	assert.Equal(t, 0, global.Specificity())
	assert.Equal(t, 1, category.Specificity())
	assert.Equal(t, 2, customer.Specificity())
}

// TestThresholdAppliesTo 测试阈值适用性判断
func TestThresholdAppliesTo(t *testing.T) {
	global := &model.ThresholdModel{}
	assert.True(t, global.AppliesTo("cust-001", "wholesaler"))
	assert.True(t, global.AppliesTo("cust-002", "hospital_pharmacy"))

	category := &model.ThresholdModel{CustomerCategory: strPtr("wholesaler")}
	assert.True(t, category.AppliesTo("cust-001", "wholesaler"))
	assert.False(t, category.AppliesTo("cust-001", "hospital_pharmacy"))

	customer := &model.ThresholdModel{CustomerID: strPtr("cust-001")}
	assert.True(t, customer.AppliesTo("cust-001", "wholesaler"))
	assert.False(t, customer.AppliesTo("cust-002", "wholesaler"))
}

// TestThresholdWarningLimit 测试预警数量计算
func TestThresholdWarningLimit(t *testing.T) {
	th := &model.ThresholdModel{
		LimitValue:     decimal.NewFromInt(100),
		WarningPercent: 80,
	}
	assert.True(t, th.WarningLimit().Equal(decimal.NewFromInt(80)))

	th.WarningPercent = 75
	th.LimitValue = decimal.NewFromInt(50)
	assert.True(t, th.WarningLimit().Equal(decimal.RequireFromString("37.5")))
}

// TestPeriodStartAt 测试日历对齐的周期起点计算
func TestPeriodStartAt(t *testing.T) {
	// 2025-03-12 是周三
	at := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodDaily, at))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodWeekly, at))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodMonthly, at))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodQuarterly, at))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodYearly, at))
}

// TestPeriodStartAtWeekSunday 测试周日归属前一个周一起始的周
func TestPeriodStartAtWeekSunday(t *testing.T) {
	// 2025-03-16 是周日
	sunday := time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodWeekly, sunday))

	// 周一是新周期的起点
	monday := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		model.PeriodStartAt(model.PeriodWeekly, monday))
}

// TestPeriodStartAtQuarters 测试各季度边界
func TestPeriodStartAtQuarters(t *testing.T) {
	cases := []struct {
		at       time.Time
		expected time.Time
	}{
		{time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, model.PeriodStartAt(model.PeriodQuarterly, tc.at))
	}
}
