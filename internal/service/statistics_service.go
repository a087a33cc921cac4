package service

import (
	"context"
	"fmt"

	"github.com/yuriirask-bit/compliance-gin/internal/metrics"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// StatisticsService 合规统计服务接口
type StatisticsService interface {
	GetTransactionStatisticsByStatus(ctx context.Context) ([]*TransactionStatisticsByStatus, error)
	GetViolationStatisticsByCode(ctx context.Context) ([]*ViolationStatisticsByCode, error)
	GetTransactionStatisticsByTime(ctx context.Context) ([]*TransactionStatisticsByTime, error)
	GetOverrideStatistics(ctx context.Context) (*OverrideStatistics, error)
	GetLicenceUtilisation(ctx context.Context, licenceID string) ([]*LicenceUtilisation, error)
}

// TransactionStatisticsByStatus 按验证状态统计
type TransactionStatisticsByStatus struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ViolationStatisticsByCode 按违规代码统计
type ViolationStatisticsByCode struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

// TransactionStatisticsByTime 按日期统计交易量
type TransactionStatisticsByTime struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// OverrideStatistics 例外审批统计
type OverrideStatistics struct {
	PendingCount  int64   `json:"pending_count"`
	ApprovedCount int64   `json:"approved_count"`
	RejectedCount int64   `json:"rejected_count"`
	ApprovalRate  float64 `json:"approval_rate"` // 已决定例外中批准的比例
}

// LicenceUtilisation 许可证按物质的使用量
type LicenceUtilisation struct {
	LicenceID     string `json:"licence_id"`
	SubstanceCode string `json:"substance_code"`
	UsageCount    int64  `json:"usage_count"`
	TotalQuantity string `json:"total_quantity"` // 克,字符串避免浮点失真
}

// statisticsService 合规统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建合规统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetTransactionStatisticsByStatus 按验证状态统计交易
func (s *statisticsService) GetTransactionStatisticsByStatus(ctx context.Context) ([]*TransactionStatisticsByStatus, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction statistics by status: %w", err)
	}

	stats := make([]*TransactionStatisticsByStatus, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TransactionStatisticsByStatus{
			Status: r.Status,
			Count:  r.Count,
		})
		metrics.UpdateTransactionsByStatus(r.Status, float64(r.Count))
	}
	return stats, nil
}

// GetViolationStatisticsByCode 按违规代码统计
func (s *statisticsService) GetViolationStatisticsByCode(ctx context.Context) ([]*ViolationStatisticsByCode, error) {
	var results []struct {
		Code     string
		Severity string
		Count    int64
	}

	err := s.db.WithContext(ctx).Model(&model.TransactionViolationModel{}).
		Select("code, severity, COUNT(*) as count").
		Group("code, severity").
		Order("count DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get violation statistics by code: %w", err)
	}

	stats := make([]*ViolationStatisticsByCode, 0, len(results))
	for _, r := range results {
		stats = append(stats, &ViolationStatisticsByCode{
			Code:     r.Code,
			Severity: r.Severity,
			Count:    r.Count,
		})
	}
	return stats, nil
}

// GetTransactionStatisticsByTime 按日期统计交易量
func (s *statisticsService) GetTransactionStatisticsByTime(ctx context.Context) ([]*TransactionStatisticsByTime, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := s.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Select("DATE(transaction_date) as date, COUNT(*) as count").
		Group("DATE(transaction_date)").
		Order("date DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction statistics by time: %w", err)
	}

	stats := make([]*TransactionStatisticsByTime, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TransactionStatisticsByTime{
			Date:  r.Date,
			Count: r.Count,
		})
	}
	return stats, nil
}

// GetOverrideStatistics 统计例外审批
func (s *statisticsService) GetOverrideStatistics(ctx context.Context) (*OverrideStatistics, error) {
	stats := &OverrideStatistics{}

	counts := map[model.TransactionStatus]*int64{
		model.StatusPendingOverrideApproval: &stats.PendingCount,
		model.StatusApprovedWithOverride:    &stats.ApprovedCount,
		model.StatusRejected:                &stats.RejectedCount,
	}
	for status, target := range counts {
		if err := s.db.WithContext(ctx).Model(&model.TransactionModel{}).
			Where("status = ?", status).
			Count(target).Error; err != nil {
			return nil, fmt.Errorf("failed to count transactions with status %s: %w", status, err)
		}
	}

	decided := stats.ApprovedCount + stats.RejectedCount
	if decided > 0 {
		stats.ApprovalRate = float64(stats.ApprovedCount) / float64(decided)
	}
	return stats, nil
}

// GetLicenceUtilisation 统计许可证按物质的使用量
// 数量在数据库侧求和后以字符串返回,展示用途的精度足够
func (s *statisticsService) GetLicenceUtilisation(ctx context.Context, licenceID string) ([]*LicenceUtilisation, error) {
	var results []struct {
		LicenceID     string
		SubstanceCode string
		UsageCount    int64
		TotalQuantity string
	}

	query := s.db.WithContext(ctx).Model(&model.TransactionLicenceUsageModel{}).
		Select("licence_id, substance_code, COUNT(*) as usage_count, SUM(quantity) as total_quantity").
		Group("licence_id, substance_code").
		Order("licence_id ASC, substance_code ASC")
	if licenceID != "" {
		query = query.Where("licence_id = ?", licenceID)
	}
	if err := query.Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get licence utilisation: %w", err)
	}

	stats := make([]*LicenceUtilisation, 0, len(results))
	for _, r := range results {
		stats = append(stats, &LicenceUtilisation{
			LicenceID:     r.LicenceID,
			SubstanceCode: r.SubstanceCode,
			UsageCount:    r.UsageCount,
			TotalQuantity: r.TotalQuantity,
		})
	}
	return stats, nil
}
