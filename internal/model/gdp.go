package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GDPSiteActivity GDP 站点活动位掩码
type GDPSiteActivity int64

const (
	SiteStorage GDPSiteActivity = 1 << iota
	SiteDistribution
	SiteTransport
	SiteRepackaging
	SiteQualityControl
)

var siteActivityNames = map[GDPSiteActivity]string{
	SiteStorage:        "storage",
	SiteDistribution:   "distribution",
	SiteTransport:      "transport",
	SiteRepackaging:    "repackaging",
	SiteQualityControl: "quality_control",
}

// Has 判断位掩码是否包含给定活动
func (a GDPSiteActivity) Has(activity GDPSiteActivity) bool {
	return a&activity != 0
}

// String 返回活动名称列表
func (a GDPSiteActivity) String() string {
	if a == 0 {
		return "none"
	}
	names := make([]string, 0, len(siteActivityNames))
	for flag := SiteStorage; flag <= SiteQualityControl; flag <<= 1 {
		if a.Has(flag) {
			names = append(names, siteActivityNames[flag])
		}
	}
	return strings.Join(names, ",")
}

// GDPSiteModel GDP 站点数据模型
type GDPSiteModel struct {
	ID         string          `gorm:"primaryKey;type:varchar(64)"`
	CustomerID string          `gorm:"type:varchar(64);index"` // 空表示本公司站点
	Name       string          `gorm:"type:varchar(255);not null"`
	Address    string          `gorm:"type:text;not null"`
	Country    string          `gorm:"type:varchar(2);not null"`
	Activities GDPSiteActivity `gorm:"type:bigint;not null"`
	Active     bool            `gorm:"not null;default:true;index"`
	RowVersion int             `gorm:"type:int;not null;default:1"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName 指定表名
func (GDPSiteModel) TableName() string {
	return "gdp_sites"
}

// Validate 验证站点模型
func (s *GDPSiteModel) Validate() error {
	if s.ID == "" {
		return errors.New("site ID is required")
	}
	if s.Name == "" {
		return errors.New("site name is required")
	}
	if s.Address == "" {
		return errors.New("site address is required")
	}
	if s.Activities == 0 {
		return errors.New("at least one site activity is required")
	}
	return nil
}

// GDPCredentialModel GDP 资质凭证数据模型
// 凭证编号含敏感信息,落库前由服务层加密
type GDPCredentialModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)"`
	SiteID          string    `gorm:"type:varchar(64);not null;index"`
	Kind            string    `gorm:"type:varchar(32);not null"` // 如 wda, gdp_certificate
	NumberEncrypted string    `gorm:"type:text;not null"`
	IssuedBy        string    `gorm:"type:varchar(255);not null"`
	EffectiveDate   time.Time `gorm:"not null"`
	ExpiryDate      time.Time `gorm:"not null;index"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName 指定表名
func (GDPCredentialModel) TableName() string {
	return "gdp_credentials"
}

// Validate 验证凭证模型
func (c *GDPCredentialModel) Validate() error {
	if c.ID == "" {
		return errors.New("credential ID is required")
	}
	if c.SiteID == "" {
		return errors.New("site ID is required")
	}
	if c.Kind == "" {
		return errors.New("credential kind is required")
	}
	if c.NumberEncrypted == "" {
		return errors.New("credential number is required")
	}
	if !c.ExpiryDate.After(c.EffectiveDate) {
		return errors.New("expiry date must be after effective date")
	}
	return nil
}

// IsActiveOn 判断凭证在给定日期是否有效
func (c *GDPCredentialModel) IsActiveOn(date time.Time) bool {
	return !date.Before(c.EffectiveDate) && !date.After(c.ExpiryDate)
}

// GDPInspectionOutcome 检查结论
type GDPInspectionOutcome string

const (
	InspectionPassed      GDPInspectionOutcome = "passed"
	InspectionConditional GDPInspectionOutcome = "conditional"
	InspectionFailed      GDPInspectionOutcome = "failed"
)

// GDPInspectionModel GDP 检查记录数据模型
type GDPInspectionModel struct {
	ID           string               `gorm:"primaryKey;type:varchar(64)"`
	SiteID       string               `gorm:"type:varchar(64);not null;index"`
	InspectedAt  time.Time            `gorm:"not null;index"`
	Inspector    string               `gorm:"type:varchar(255);not null"`
	Outcome      GDPInspectionOutcome `gorm:"type:varchar(16);not null"`
	Findings     string               `gorm:"type:text"`
	CAPARequired bool                 `gorm:"not null;default:false"` // 是否需要 CAPA 整改
	CreatedAt    time.Time            `gorm:"not null"`
}

// TableName 指定表名
func (GDPInspectionModel) TableName() string {
	return "gdp_inspections"
}

// Validate 验证检查记录模型
func (i *GDPInspectionModel) Validate() error {
	if i.ID == "" {
		return errors.New("inspection ID is required")
	}
	if i.SiteID == "" {
		return errors.New("site ID is required")
	}
	if i.InspectedAt.IsZero() {
		return errors.New("inspection date is required")
	}
	if i.Inspector == "" {
		return errors.New("inspector is required")
	}
	switch i.Outcome {
	case InspectionPassed, InspectionConditional, InspectionFailed:
	default:
		return fmt.Errorf("invalid inspection outcome: %s", i.Outcome)
	}
	return nil
}
