package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PermittedActivity 许可活动位掩码
type PermittedActivity int64

const (
	ActivityWholesale PermittedActivity = 1 << iota
	ActivityImport
	ActivityExport
	ActivityManufacture
	ActivityStorage
	ActivityBrokering
)

var activityNames = map[PermittedActivity]string{
	ActivityWholesale:   "wholesale",
	ActivityImport:      "import",
	ActivityExport:      "export",
	ActivityManufacture: "manufacture",
	ActivityStorage:     "storage",
	ActivityBrokering:   "brokering",
}

// Has 判断位掩码是否包含给定活动
func (a PermittedActivity) Has(activity PermittedActivity) bool {
	return a&activity != 0
}

// String 返回活动名称列表
func (a PermittedActivity) String() string {
	if a == 0 {
		return "none"
	}
	names := make([]string, 0, len(activityNames))
	for flag := ActivityWholesale; flag <= ActivityBrokering; flag <<= 1 {
		if a.Has(flag) {
			names = append(names, activityNames[flag])
		}
	}
	return strings.Join(names, ",")
}

// LicenceHolderType 许可证持有方类型
type LicenceHolderType string

const (
	HolderCustomer LicenceHolderType = "customer"
	HolderCompany  LicenceHolderType = "company"
)

// LicenceStatus 许可证状态
type LicenceStatus string

const (
	LicenceActive    LicenceStatus = "active"
	LicenceSuspended LicenceStatus = "suspended"
	LicenceRevoked   LicenceStatus = "revoked"
)

// LicenceModel 许可证数据模型
// 物质覆盖范围通过 LicenceSubstanceMappingModel 间接表达
type LicenceModel struct {
	ID                  string            `gorm:"primaryKey;type:varchar(64)"`
	HolderType          LicenceHolderType `gorm:"type:varchar(16);not null"`
	HolderID            string            `gorm:"type:varchar(64);not null;index"`
	LicenceType         string            `gorm:"type:varchar(32);not null;index"` // 如 WDA, OPIUM_EXEMPTION
	Number              string            `gorm:"type:varchar(64);not null"`
	EffectiveDate       time.Time         `gorm:"not null"`
	ExpiryDate          time.Time         `gorm:"not null;index"`
	PermittedActivities PermittedActivity `gorm:"type:bigint;not null"`
	Scope               string            `gorm:"type:text"`
	Status              LicenceStatus     `gorm:"type:varchar(16);not null;default:'active';index"`
	RowVersion          int               `gorm:"type:int;not null;default:1"`
	Mappings            []LicenceSubstanceMappingModel `gorm:"foreignKey:LicenceID"`
	CreatedAt           time.Time         `gorm:"not null"`
	UpdatedAt           time.Time         `gorm:"not null"`
	CreatedBy           string            `gorm:"type:varchar(64)"`
}

// TableName 指定表名
func (LicenceModel) TableName() string {
	return "licences"
}

// Validate 验证许可证模型
func (l *LicenceModel) Validate() error {
	if l.ID == "" {
		return errors.New("licence ID is required")
	}
	if l.HolderType != HolderCustomer && l.HolderType != HolderCompany {
		return fmt.Errorf("invalid holder type: %s", l.HolderType)
	}
	if l.HolderID == "" {
		return errors.New("holder ID is required")
	}
	if l.LicenceType == "" {
		return errors.New("licence type is required")
	}
	if l.Number == "" {
		return errors.New("licence number is required")
	}
	if l.EffectiveDate.IsZero() || l.ExpiryDate.IsZero() {
		return errors.New("effective and expiry dates are required")
	}
	if !l.ExpiryDate.After(l.EffectiveDate) {
		return errors.New("expiry date must be after effective date")
	}
	if l.PermittedActivities == 0 {
		return errors.New("at least one permitted activity is required")
	}
	return nil
}

// IsActiveOn 判断许可证在给定日期是否有效
func (l *LicenceModel) IsActiveOn(date time.Time) bool {
	if l.Status != LicenceActive {
		return false
	}
	return !date.Before(l.EffectiveDate) && !date.After(l.ExpiryDate)
}

// LicenceSubstanceMappingModel 许可证-物质映射数据模型
// 不变式: 映射有效期不得超过父许可证有效期,由服务层在写入时校验
type LicenceSubstanceMappingModel struct {
	ID                        string           `gorm:"primaryKey;type:varchar(64)"`
	LicenceID                 string           `gorm:"type:varchar(64);not null;index"`
	SubstanceCode             string           `gorm:"type:varchar(64);not null;index"`
	EffectiveDate             time.Time        `gorm:"not null"`
	ExpiryDate                time.Time        `gorm:"not null;index"`
	MaxQuantityPerTransaction *decimal.Decimal `gorm:"type:decimal(20,6)"` // 克,空为不限
	MaxQuantityPerPeriod      *decimal.Decimal `gorm:"type:decimal(20,6)"` // 克,空为不限
	Period                    *ThresholdPeriod `gorm:"type:varchar(16)"`   // 仅配合 MaxQuantityPerPeriod 使用
	CreatedAt                 time.Time        `gorm:"not null"`
	UpdatedAt                 time.Time        `gorm:"not null"`
}

// TableName 指定表名
func (LicenceSubstanceMappingModel) TableName() string {
	return "licence_substance_mappings"
}

// Validate 验证映射模型
func (m *LicenceSubstanceMappingModel) Validate() error {
	if m.ID == "" {
		return errors.New("mapping ID is required")
	}
	if m.LicenceID == "" {
		return errors.New("licence ID is required")
	}
	if m.SubstanceCode == "" {
		return errors.New("substance code is required")
	}
	if m.EffectiveDate.IsZero() || m.ExpiryDate.IsZero() {
		return errors.New("effective and expiry dates are required")
	}
	if !m.ExpiryDate.After(m.EffectiveDate) {
		return errors.New("expiry date must be after effective date")
	}
	if m.MaxQuantityPerTransaction != nil && !m.MaxQuantityPerTransaction.IsPositive() {
		return errors.New("per-transaction cap must be positive")
	}
	if m.MaxQuantityPerPeriod != nil {
		if !m.MaxQuantityPerPeriod.IsPositive() {
			return errors.New("per-period cap must be positive")
		}
		if m.Period == nil {
			return errors.New("period is required when a per-period cap is set")
		}
	}
	return nil
}

// IsActiveOn 判断映射在给定日期是否有效
func (m *LicenceSubstanceMappingModel) IsActiveOn(date time.Time) bool {
	return !date.Before(m.EffectiveDate) && !date.After(m.ExpiryDate)
}

// AllowsQuantity 判断单笔数量是否在映射上限之内
func (m *LicenceSubstanceMappingModel) AllowsQuantity(baseQuantity decimal.Decimal) bool {
	if m.MaxQuantityPerTransaction == nil {
		return true
	}
	return baseQuantity.LessThanOrEqual(*m.MaxQuantityPerTransaction)
}
