package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

// TestSubstanceModelValidation 测试物质模型验证
func TestSubstanceModelValidation(t *testing.T) {
	s := &model.SubstanceModel{
		Code:           "MORPHINE",
		Name:           "Morphine",
		Classification: model.ClassOpiumListI,
	}
	assert.NoError(t, s.Validate())

	s.Code = ""
	assert.Error(t, s.Validate())

	// 重新分级标记必须带生效日期
	s = &model.SubstanceModel{
		Code:                  "MORPHINE",
		Name:                  "Morphine",
		Classification:        model.ClassOpiumListI,
		UnderReclassification: true,
	}
	assert.Error(t, s.Validate())
}

// TestSubstanceBlockedOn 测试重新分级阻断按交易日期判断
func TestSubstanceBlockedOn(t *testing.T) {
	reclassifiedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := &model.SubstanceModel{
		Code:                  "MORPHINE",
		Name:                  "Morphine",
		Classification:        model.ClassOpiumListI,
		UnderReclassification: true,
		ReclassifiedAt:        &reclassifiedAt,
	}

	// 生效日期前的交易不受阻断,保证历史交易可复核
	assert.False(t, s.BlockedOn(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, s.BlockedOn(reclassifiedAt))
	assert.True(t, s.BlockedOn(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	s.UnderReclassification = false
	assert.False(t, s.BlockedOn(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}

// TestCustomerModelValidation 测试客户模型验证
func TestCustomerModelValidation(t *testing.T) {
	c := &model.CustomerModel{
		ID:             "cust-001",
		Name:           "Apotheek Centraal",
		Category:       "hospital_pharmacy",
		Country:        "NL",
		ApprovalStatus: model.CustomerApproved,
	}
	assert.NoError(t, c.Validate())

	c.ApprovalStatus = "verified"
	assert.Error(t, c.Validate())

	c.ApprovalStatus = model.CustomerApproved
	c.Category = ""
	assert.Error(t, c.Validate())
}

// TestCustomerCanTransact 测试客户交易资格
func TestCustomerCanTransact(t *testing.T) {
	c := &model.CustomerModel{ApprovalStatus: model.CustomerApproved}
	assert.True(t, c.CanTransact())

	for _, status := range []model.CustomerApprovalStatus{
		model.CustomerPending, model.CustomerSuspended, model.CustomerRejected,
	} {
		c.ApprovalStatus = status
		assert.False(t, c.CanTransact(), "status %s", status)
	}
}
