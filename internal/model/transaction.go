package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus 交易验证状态
type TransactionStatus string

const (
	StatusPending                 TransactionStatus = "pending"
	StatusValid                   TransactionStatus = "valid"
	StatusInvalid                 TransactionStatus = "invalid"
	StatusPendingOverrideApproval TransactionStatus = "pending_override_approval"
	StatusApprovedWithOverride    TransactionStatus = "approved_with_override"
	StatusRejected                TransactionStatus = "rejected"
)

// TransactionType 交易类型
type TransactionType string

const (
	TypeOrder    TransactionType = "order"
	TypeShipment TransactionType = "shipment"
)

// TransactionDirection 交易方向
type TransactionDirection string

const (
	DirectionInbound  TransactionDirection = "inbound"
	DirectionOutbound TransactionDirection = "outbound"
)

// TransactionModel 交易数据模型
type TransactionModel struct {
	ID                    string               `gorm:"primaryKey;type:varchar(64)"`
	ExternalID            string               `gorm:"type:varchar(64);index"` // ERP 侧交易 ID
	Type                  TransactionType      `gorm:"type:varchar(32);not null"`
	Direction             TransactionDirection `gorm:"type:varchar(32);not null"`
	CustomerID            string               `gorm:"type:varchar(64);not null;index"`
	OriginCountry         string               `gorm:"type:varchar(2);not null"` // ISO 3166-1 alpha-2
	DestinationCountry    string               `gorm:"type:varchar(2);not null"`
	TransactionDate       time.Time            `gorm:"not null;index"`
	Status                TransactionStatus    `gorm:"type:varchar(32);not null;index"`
	OverrideApprover      string               `gorm:"type:varchar(64)"`
	OverrideJustification string               `gorm:"type:text"`
	OverrideAt            *time.Time
	RowVersion            int                    `gorm:"type:int;not null;default:1"` // 乐观并发令牌
	Lines                 []TransactionLineModel `gorm:"foreignKey:TransactionID"`
	CreatedAt             time.Time              `gorm:"not null;index"`
	UpdatedAt             time.Time              `gorm:"not null"`
	CreatedBy             string                 `gorm:"type:varchar(64);index"`
}

// TableName 指定表名
func (TransactionModel) TableName() string {
	return "transactions"
}

// Validate 验证交易模型
func (tm *TransactionModel) Validate() error {
	if tm.ID == "" {
		return errors.New("transaction ID is required")
	}
	if tm.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	if tm.Type != TypeOrder && tm.Type != TypeShipment {
		return fmt.Errorf("invalid transaction type: %s", tm.Type)
	}
	if tm.Direction != DirectionInbound && tm.Direction != DirectionOutbound {
		return fmt.Errorf("invalid transaction direction: %s", tm.Direction)
	}
	if tm.TransactionDate.IsZero() {
		return errors.New("transaction date is required")
	}
	if len(tm.Lines) == 0 {
		return errors.New("transaction must have at least one line")
	}
	for i := range tm.Lines {
		if err := tm.Lines[i].Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// IsOverridePending 判断交易是否处于待例外审批状态
func (tm *TransactionModel) IsOverridePending() bool {
	return tm.Status == StatusPendingOverrideApproval
}

// CrossBorder 判断交易是否跨境
func (tm *TransactionModel) CrossBorder() bool {
	return tm.OriginCountry != tm.DestinationCountry
}

// TransactionLineModel 交易行数据模型
// 行由其父交易独占,随验证被标注但不单独维护生命周期
type TransactionLineModel struct {
	ID            string          `gorm:"primaryKey;type:varchar(64)"`
	TransactionID string          `gorm:"type:varchar(64);not null;index"`
	SubstanceCode string          `gorm:"type:varchar(64);not null;index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Unit          string          `gorm:"type:varchar(8);not null"`
	BaseQuantity  decimal.Decimal `gorm:"type:decimal(20,6);not null"` // 统一换算为克
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName 指定表名
func (TransactionLineModel) TableName() string {
	return "transaction_lines"
}

// Validate 验证交易行模型
func (tl *TransactionLineModel) Validate() error {
	if tl.SubstanceCode == "" {
		return errors.New("substance code is required")
	}
	if !tl.Quantity.IsPositive() {
		return errors.New("quantity must be positive")
	}
	if _, err := unitFactor(tl.Unit); err != nil {
		return err
	}
	return nil
}

// Normalize 将行数量换算为基准单位(克)
func (tl *TransactionLineModel) Normalize() error {
	base, err := NormalizeToGrams(tl.Quantity, tl.Unit)
	if err != nil {
		return err
	}
	tl.BaseQuantity = base
	return nil
}

// NormalizeToGrams 将数量按计量单位换算为克
func NormalizeToGrams(quantity decimal.Decimal, unit string) (decimal.Decimal, error) {
	factor, err := unitFactor(unit)
	if err != nil {
		return decimal.Zero, err
	}
	return quantity.Mul(factor), nil
}

func unitFactor(unit string) (decimal.Decimal, error) {
	switch unit {
	case "mg":
		return decimal.New(1, -3), nil
	case "g":
		return decimal.New(1, 0), nil
	case "kg":
		return decimal.New(1, 3), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported unit of measure: %q", unit)
	}
}
