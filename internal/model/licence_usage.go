package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLicenceUsageModel 许可证使用记录数据模型
// 记录哪张许可证授权了哪条交易行,用于许可证利用率追踪
// 验证通过时一次性写入,之后不再变更
type TransactionLicenceUsageModel struct {
	ID                string          `gorm:"primaryKey;type:varchar(64)"`
	TransactionID     string          `gorm:"type:varchar(64);not null;index"`
	TransactionLineID string          `gorm:"type:varchar(64);not null"`
	LicenceID         string          `gorm:"type:varchar(64);not null;index"`
	MappingID         string          `gorm:"type:varchar(64);not null"`
	SubstanceCode     string          `gorm:"type:varchar(64);not null;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,6);not null"` // 基准单位(克)
	CreatedAt         time.Time       `gorm:"not null;index"`
}

// TableName 指定表名
func (TransactionLicenceUsageModel) TableName() string {
	return "transaction_licence_usages"
}

// Validate 验证许可证使用记录模型
func (tu *TransactionLicenceUsageModel) Validate() error {
	if tu.ID == "" {
		return errors.New("usage ID is required")
	}
	if tu.TransactionID == "" {
		return errors.New("transaction ID is required")
	}
	if tu.LicenceID == "" {
		return errors.New("licence ID is required")
	}
	if tu.MappingID == "" {
		return errors.New("mapping ID is required")
	}
	if tu.SubstanceCode == "" {
		return errors.New("substance code is required")
	}
	return nil
}
