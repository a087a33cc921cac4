package model

import (
	"errors"
	"fmt"
	"time"
)

// CustomerApprovalStatus 客户资质审核状态
type CustomerApprovalStatus string

const (
	CustomerPending   CustomerApprovalStatus = "pending"
	CustomerApproved  CustomerApprovalStatus = "approved"
	CustomerSuspended CustomerApprovalStatus = "suspended"
	CustomerRejected  CustomerApprovalStatus = "rejected"
)

// CustomerModel 客户数据模型
// 客户主数据属于 CRM,本表是合规扩展层的影子记录
type CustomerModel struct {
	ID              string                 `gorm:"primaryKey;type:varchar(64)"`
	ExternalID      string                 `gorm:"type:varchar(64);index"` // CRM 侧客户 ID
	Name            string                 `gorm:"type:varchar(255);not null"`
	Category        string                 `gorm:"type:varchar(64);not null;index"` // 如 hospital_pharmacy, wholesaler
	Country         string                 `gorm:"type:varchar(2);not null"`
	ApprovalStatus  CustomerApprovalStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	OverrideAllowed bool                   `gorm:"not null;default:false"` // 是否允许对该客户的违规走例外审批
	RowVersion      int                    `gorm:"type:int;not null;default:1"`
	CreatedAt       time.Time              `gorm:"not null"`
	UpdatedAt       time.Time              `gorm:"not null"`
}

// TableName 指定表名
func (CustomerModel) TableName() string {
	return "customers"
}

// Validate 验证客户模型
func (c *CustomerModel) Validate() error {
	if c.ID == "" {
		return errors.New("customer ID is required")
	}
	if c.Name == "" {
		return errors.New("customer name is required")
	}
	if c.Category == "" {
		return errors.New("customer category is required")
	}
	switch c.ApprovalStatus {
	case CustomerPending, CustomerApproved, CustomerSuspended, CustomerRejected:
	default:
		return fmt.Errorf("invalid approval status: %s", c.ApprovalStatus)
	}
	return nil
}

// CanTransact 判断客户是否具备交易资格
func (c *CustomerModel) CanTransact() bool {
	return c.ApprovalStatus == CustomerApproved
}
