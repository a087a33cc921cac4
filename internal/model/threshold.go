package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ThresholdKind 阈值类别
type ThresholdKind string

const (
	ThresholdQuantity  ThresholdKind = "quantity"
	ThresholdFrequency ThresholdKind = "frequency"
	ThresholdValue     ThresholdKind = "value"
)

// ThresholdPeriod 阈值统计周期
type ThresholdPeriod string

const (
	PeriodDaily     ThresholdPeriod = "daily"
	PeriodWeekly    ThresholdPeriod = "weekly"
	PeriodMonthly   ThresholdPeriod = "monthly"
	PeriodQuarterly ThresholdPeriod = "quarterly"
	PeriodYearly    ThresholdPeriod = "yearly"
)

// ThresholdModel 阈值数据模型
// 作用域可选限定到具体客户、客户类别或许可证类型
// 特异性顺序: 客户 > 客户类别 > 全局(仅物质)
type ThresholdModel struct {
	ID               string          `gorm:"primaryKey;type:varchar(64)"`
	Name             string          `gorm:"type:varchar(255);not null"`
	Kind             ThresholdKind   `gorm:"type:varchar(16);not null"`
	SubstanceCode    string          `gorm:"type:varchar(64);not null;index"`
	CustomerID       *string         `gorm:"type:varchar(64);index"`
	CustomerCategory *string         `gorm:"type:varchar(64);index"`
	LicenceType      *string         `gorm:"type:varchar(32)"`
	Period           ThresholdPeriod `gorm:"type:varchar(16);not null"`
	LimitValue       decimal.Decimal `gorm:"type:decimal(20,6);not null"` // quantity: 克, frequency: 次数
	WarningPercent   int             `gorm:"type:int;not null;default:80"`
	AllowOverride    bool            `gorm:"not null;default:false"`
	Active           bool            `gorm:"not null;default:true;index"`
	RowVersion       int             `gorm:"type:int;not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
	CreatedBy        string          `gorm:"type:varchar(64)"`
}

// TableName 指定表名
func (ThresholdModel) TableName() string {
	return "thresholds"
}

// Validate 验证阈值模型
func (t *ThresholdModel) Validate() error {
	if t.ID == "" {
		return errors.New("threshold ID is required")
	}
	if t.Name == "" {
		return errors.New("threshold name is required")
	}
	switch t.Kind {
	case ThresholdQuantity, ThresholdFrequency, ThresholdValue:
	default:
		return fmt.Errorf("invalid threshold kind: %s", t.Kind)
	}
	if t.SubstanceCode == "" {
		return errors.New("substance code is required")
	}
	// 客户与客户类别作用域互斥,保证单一"最特异"阈值可解析
	if t.CustomerID != nil && t.CustomerCategory != nil {
		return errors.New("threshold cannot be scoped to both a customer and a category")
	}
	switch t.Period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
	default:
		return fmt.Errorf("invalid threshold period: %s", t.Period)
	}
	if !t.LimitValue.IsPositive() {
		return errors.New("limit value must be positive")
	}
	if t.WarningPercent < 0 || t.WarningPercent > 100 {
		return errors.New("warning percent must be between 0 and 100")
	}
	return nil
}

// Specificity 返回阈值特异性等级,数值越大越特异
func (t *ThresholdModel) Specificity() int {
	if t.CustomerID != nil {
		return 2
	}
	if t.CustomerCategory != nil {
		return 1
	}
	return 0
}

// AppliesTo 判断阈值是否适用于给定客户
func (t *ThresholdModel) AppliesTo(customerID string, customerCategory string) bool {
	if t.CustomerID != nil {
		return *t.CustomerID == customerID
	}
	if t.CustomerCategory != nil {
		return *t.CustomerCategory == customerCategory
	}
	return true
}

// WarningLimit 返回触发预警的数量
func (t *ThresholdModel) WarningLimit() decimal.Decimal {
	return t.LimitValue.Mul(decimal.New(int64(t.WarningPercent), -2))
}

// PeriodStart 返回包含给定日期的统计周期起点(日历对齐, UTC)
func (t *ThresholdModel) PeriodStart(at time.Time) time.Time {
	return PeriodStartAt(t.Period, at)
}

// PeriodStartAt 返回给定周期中包含给定日期的起点(日历对齐, UTC)
// 许可证映射的周期上限与阈值共用同一套周期语义
func PeriodStartAt(period ThresholdPeriod, at time.Time) time.Time {
	at = at.UTC()
	switch period {
	case PeriodDaily:
		return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeekly:
		// 周一为一周起点
		weekday := int(at.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -(weekday - 1))
	case PeriodMonthly:
		return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodQuarterly:
		quarterMonth := time.Month(((int(at.Month())-1)/3)*3 + 1)
		return time.Date(at.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(at.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	}
}
