package model

import (
	"errors"
	"time"
)

// ViolationCode 合规违规代码
// 代码是稳定契约,下游(ERP 回写、报表)按代码匹配,不按消息文本匹配
type ViolationCode string

const (
	ViolationMissingLicence            ViolationCode = "MISSING_LICENCE"
	ViolationLicenceCapExceeded        ViolationCode = "LICENCE_CAP_EXCEEDED"
	ViolationQuantityThresholdExceeded ViolationCode = "QUANTITY_THRESHOLD_EXCEEDED"
	ViolationFrequencyThresholdExceed  ViolationCode = "FREQUENCY_THRESHOLD_EXCEEDED"
	ViolationSubstanceReclassified     ViolationCode = "SUBSTANCE_RECLASSIFIED"
	ViolationCustomerNotQualified      ViolationCode = "CUSTOMER_NOT_QUALIFIED"
)

// ViolationSeverity 违规严重程度
type ViolationSeverity string

const (
	// SeverityWarning 预警,不阻断验证通过(如达到阈值预警百分比)
	SeverityWarning ViolationSeverity = "warning"
	// SeverityViolation 违规,阻断验证通过
	SeverityViolation ViolationSeverity = "violation"
)

// TransactionViolationModel 交易违规数据模型
// 每次验证整体替换,不做增量更新
type TransactionViolationModel struct {
	ID            string            `gorm:"primaryKey;type:varchar(64)"`
	TransactionID string            `gorm:"type:varchar(64);not null;index"`
	Code          ViolationCode     `gorm:"type:varchar(64);not null;index"`
	Severity      ViolationSeverity `gorm:"type:varchar(16);not null"`
	Message       string            `gorm:"type:text;not null"`
	SubstanceCode string            `gorm:"type:varchar(64);index"` // 关联物质(可为空,如客户资质违规)
	CreatedAt     time.Time         `gorm:"not null;index"`
}

// TableName 指定表名
func (TransactionViolationModel) TableName() string {
	return "transaction_violations"
}

// Validate 验证违规模型
func (tv *TransactionViolationModel) Validate() error {
	if tv.ID == "" {
		return errors.New("violation ID is required")
	}
	if tv.TransactionID == "" {
		return errors.New("transaction ID is required")
	}
	if tv.Code == "" {
		return errors.New("violation code is required")
	}
	if tv.Severity != SeverityWarning && tv.Severity != SeverityViolation {
		return errors.New("invalid violation severity")
	}
	if tv.Message == "" {
		return errors.New("violation message is required")
	}
	return nil
}

// Blocking 判断违规是否阻断验证通过
func (tv *TransactionViolationModel) Blocking() bool {
	return tv.Severity == SeverityViolation
}
