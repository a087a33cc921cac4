package model

import (
	"errors"
	"time"
)

// SubstanceClassification 管制物质分级
// 对应荷兰鸦片法清单与前体类别
type SubstanceClassification string

const (
	ClassOpiumListI   SubstanceClassification = "opium_list_I"
	ClassOpiumListII  SubstanceClassification = "opium_list_II"
	ClassPrecursorCat SubstanceClassification = "precursor"
	ClassUnscheduled  SubstanceClassification = "unscheduled"
)

// SubstanceModel 物质数据模型
// 分级是可变参考数据: 重新分级后的物质在复核完成前阻断交易
type SubstanceModel struct {
	Code           string                  `gorm:"primaryKey;type:varchar(64)"`
	Name           string                  `gorm:"type:varchar(255);not null"`
	Classification SubstanceClassification `gorm:"type:varchar(32);not null;index"`
	// UnderReclassification 为真时,自 ReclassifiedAt 起的交易被阻断
	UnderReclassification bool       `gorm:"not null;default:false"`
	ReclassifiedAt        *time.Time `gorm:"index"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (SubstanceModel) TableName() string {
	return "substances"
}

// Validate 验证物质模型
func (s *SubstanceModel) Validate() error {
	if s.Code == "" {
		return errors.New("substance code is required")
	}
	if s.Name == "" {
		return errors.New("substance name is required")
	}
	if s.Classification == "" {
		return errors.New("classification is required")
	}
	if s.UnderReclassification && s.ReclassifiedAt == nil {
		return errors.New("reclassification date is required when under reclassification")
	}
	return nil
}

// BlockedOn 判断物质在给定日期是否因重新分级被阻断
// 使用交易日期判断,保证历史交易可按当时状态复核
func (s *SubstanceModel) BlockedOn(date time.Time) bool {
	if !s.UnderReclassification {
		return false
	}
	if s.ReclassifiedAt == nil {
		return true
	}
	return !date.Before(*s.ReclassifiedAt)
}
