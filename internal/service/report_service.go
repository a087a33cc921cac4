package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// ReportService 合规报告服务接口
// 面向监管问询: 给定客户与时间窗,汇总交易、违规与物质流向
type ReportService interface {
	GenerateCustomerReport(ctx context.Context, customerID string, from, to time.Time) (*CustomerComplianceReport, error)
}

// CustomerComplianceReport 客户合规报告
type CustomerComplianceReport struct {
	CustomerID   string                      `json:"customer_id"`
	CustomerName string                      `json:"customer_name"`
	From         time.Time                   `json:"from"`
	To           time.Time                   `json:"to"`
	GeneratedAt  time.Time                   `json:"generated_at"`
	Transactions []*ReportTransactionSummary `json:"transactions"`
	Substances   []*ReportSubstanceSummary   `json:"substances"`
	TotalCount   int64                       `json:"total_count"`
}

// ReportTransactionSummary 报告中的单笔交易摘要
type ReportTransactionSummary struct {
	TransactionID string                  `json:"transaction_id"`
	ExternalID    string                  `json:"external_id"`
	Date          time.Time               `json:"date"`
	Status        model.TransactionStatus `json:"status"`
	Violations    []model.ViolationCode   `json:"violations,omitempty"`
}

// ReportSubstanceSummary 报告中的物质累计摘要
type ReportSubstanceSummary struct {
	SubstanceCode  string `json:"substance_code"`
	LineCount      int    `json:"line_count"`
	TotalGrams     string `json:"total_grams"`     // 全部交易
	ValidatedGrams string `json:"validated_grams"` // 仅已验证交易
}

// reportService 合规报告服务实现
type reportService struct {
	txRepo       repository.TransactionRepository
	customerRepo repository.CustomerRepository
}

// NewReportService 创建合规报告服务
func NewReportService(txRepo repository.TransactionRepository, customerRepo repository.CustomerRepository) ReportService {
	return &reportService{txRepo: txRepo, customerRepo: customerRepo}
}

// GenerateCustomerReport 生成客户合规报告
func (s *reportService) GenerateCustomerReport(ctx context.Context, customerID string, from, to time.Time) (*CustomerComplianceReport, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	txs, total, err := s.txRepo.FindByFilter(ctx, &repository.TransactionFilter{
		CustomerID: &customerID,
		StartDate:  &from,
		EndDate:    &to,
	})
	if err != nil {
		return nil, err
	}

	report := &CustomerComplianceReport{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		From:         from,
		To:           to,
		GeneratedAt:  time.Now(),
		TotalCount:   total,
	}

	type substanceAcc struct {
		lineCount int
		total     decimal.Decimal
		validated decimal.Decimal
	}
	perSubstance := make(map[string]*substanceAcc)

	for _, tx := range txs {
		summary := &ReportTransactionSummary{
			TransactionID: tx.ID,
			ExternalID:    tx.ExternalID,
			Date:          tx.TransactionDate,
			Status:        tx.Status,
		}

		violations, err := s.txRepo.FindViolations(ctx, tx.ID)
		if err != nil {
			return nil, err
		}
		for _, v := range violations {
			summary.Violations = append(summary.Violations, v.Code)
		}
		report.Transactions = append(report.Transactions, summary)

		validated := tx.Status == model.StatusValid || tx.Status == model.StatusApprovedWithOverride
		for i := range tx.Lines {
			line := &tx.Lines[i]
			acc, ok := perSubstance[line.SubstanceCode]
			if !ok {
				acc = &substanceAcc{}
				perSubstance[line.SubstanceCode] = acc
			}
			acc.lineCount++
			acc.total = acc.total.Add(line.BaseQuantity)
			if validated {
				acc.validated = acc.validated.Add(line.BaseQuantity)
			}
		}
	}

	for code, acc := range perSubstance {
		report.Substances = append(report.Substances, &ReportSubstanceSummary{
			SubstanceCode:  code,
			LineCount:      acc.lineCount,
			TotalGrams:     acc.total.String(),
			ValidatedGrams: acc.validated.String(),
		})
	}
	sort.Slice(report.Substances, func(i, j int) bool {
		return report.Substances[i].SubstanceCode < report.Substances[j].SubstanceCode
	})

	return report, nil
}
