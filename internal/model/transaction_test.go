package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

// TestTransactionModelTableName 测试表名
func TestTransactionModelTableName(t *testing.T) {
	assert.Equal(t, "transactions", model.TransactionModel{}.TableName())
	assert.Equal(t, "transaction_lines", model.TransactionLineModel{}.TableName())
}

// TestTransactionModelValidation 测试交易模型验证
func TestTransactionModelValidation(t *testing.T) {
	valid := func() *model.TransactionModel {
		return &model.TransactionModel{
			ID:                 "txn-001",
			Type:               model.TypeOrder,
			Direction:          model.DirectionOutbound,
			CustomerID:         "cust-001",
			OriginCountry:      "NL",
			DestinationCountry: "NL",
			TransactionDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Status:             model.StatusPending,
			Lines: []model.TransactionLineModel{
				{ID: "line-001", TransactionID: "txn-001", SubstanceCode: "MORPHINE", Quantity: decimal.NewFromInt(10), Unit: "g"},
			},
		}
	}

	tm := valid()
	assert.NoError(t, tm.Validate())

	// ID 为空
	tm = valid()
	tm.ID = ""
	assert.Error(t, tm.Validate())

	// 客户为空
	tm = valid()
	tm.CustomerID = ""
	assert.Error(t, tm.Validate())

	// 无效交易类型
	tm = valid()
	tm.Type = "transfer"
	assert.Error(t, tm.Validate())

	// 无效交易方向
	tm = valid()
	tm.Direction = "sideways"
	assert.Error(t, tm.Validate())

	// 无交易行
	tm = valid()
	tm.Lines = nil
	assert.Error(t, tm.Validate())

	// 交易行数量非正
	tm = valid()
	tm.Lines[0].Quantity = decimal.Zero
	assert.Error(t, tm.Validate())

	// 交易行单位不支持
	tm = valid()
	tm.Lines[0].Unit = "lbs"
	assert.Error(t, tm.Validate())
}

// TestTransactionCrossBorder 测试跨境判断
func TestTransactionCrossBorder(t *testing.T) {
	tm := &model.TransactionModel{OriginCountry: "NL", DestinationCountry: "NL"}
	assert.False(t, tm.CrossBorder())

	tm.DestinationCountry = "DE"
	assert.True(t, tm.CrossBorder())
}

// TestTransactionIsOverridePending 测试待例外审批状态判断
func TestTransactionIsOverridePending(t *testing.T) {
	tm := &model.TransactionModel{Status: model.StatusPendingOverrideApproval}
	assert.True(t, tm.IsOverridePending())

	for _, status := range []model.TransactionStatus{
		model.StatusPending, model.StatusValid, model.StatusInvalid,
		model.StatusApprovedWithOverride, model.StatusRejected,
	} {
		tm.Status = status
		assert.False(t, tm.IsOverridePending(), "status %s", status)
	}
}

// TestNormalizeToGrams 测试单位换算
func TestNormalizeToGrams(t *testing.T) {
	cases := []struct {
		quantity string
		unit     string
		expected string
	}{
		{"500", "mg", "0.5"},
		{"10", "g", "10"},
		{"2.5", "kg", "2500"},
	}

	for _, tc := range cases {
		q, err := decimal.NewFromString(tc.quantity)
		require.NoError(t, err)
		base, err := model.NormalizeToGrams(q, tc.unit)
		require.NoError(t, err)
		assert.True(t, base.Equal(decimal.RequireFromString(tc.expected)),
			"%s %s should normalize to %s, got %s", tc.quantity, tc.unit, tc.expected, base)
	}

	// 不支持的单位
	_, err := model.NormalizeToGrams(decimal.NewFromInt(1), "oz")
	assert.Error(t, err)
}

// TestTransactionLineNormalize 测试交易行基准数量换算
func TestTransactionLineNormalize(t *testing.T) {
	line := &model.TransactionLineModel{
		ID:            "line-001",
		SubstanceCode: "MORPHINE",
		Quantity:      decimal.NewFromInt(250),
		Unit:          "mg",
	}
	require.NoError(t, line.Normalize())
	assert.True(t, line.BaseQuantity.Equal(decimal.RequireFromString("0.25")))
}
