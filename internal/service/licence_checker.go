package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// licenceChecker 许可证覆盖检查器
// 对交易的每一行确认客户在交易日期持有覆盖该物质的有效许可证,
// 且所选映射的单笔与周期数量上限均未超出
// 多证覆盖同一物质时按 (映射到期日升序, 许可证 ID 升序) 取第一张满足上限的证
type licenceChecker struct {
	licenceRepo repository.LicenceRepository
	txRepo      repository.TransactionRepository
}

func newLicenceChecker(licenceRepo repository.LicenceRepository, txRepo repository.TransactionRepository) *licenceChecker {
	return &licenceChecker{licenceRepo: licenceRepo, txRepo: txRepo}
}

// requiredActivity 返回交易要求的许可活动
// 跨境交易按方向要求进口/出口活动,境内交易要求批发活动
func requiredActivity(tx *model.TransactionModel) model.PermittedActivity {
	if tx.CrossBorder() {
		if tx.Direction == model.DirectionInbound {
			return model.ActivityImport
		}
		return model.ActivityExport
	}
	return model.ActivityWholesale
}

// Check 检查交易各行的许可证覆盖,违规写入累加器
// 返回覆盖成功行的许可证使用记录,裁决为 valid 或
// pending_override_approval 时由调用方落库,invalid 不落库
func (c *licenceChecker) Check(ctx context.Context, tx *model.TransactionModel, violations *violationList) ([]*model.TransactionLicenceUsageModel, error) {
	required := requiredActivity(tx)
	var usages []*model.TransactionLicenceUsageModel

	for i := range tx.Lines {
		line := &tx.Lines[i]

		mappings, err := c.licenceRepo.FindActiveMappings(ctx, tx.CustomerID, line.SubstanceCode, tx.TransactionDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load licence mappings for substance %s: %w", line.SubstanceCode, err)
		}

		// 只保留许可活动覆盖本交易的证
		eligible := make([]*repository.ActiveMapping, 0, len(mappings))
		for _, am := range mappings {
			if am.Licence.PermittedActivities.Has(required) {
				eligible = append(eligible, am)
			}
		}

		if len(eligible) == 0 {
			violations.add(model.ViolationMissingLicence, model.SeverityViolation, line.SubstanceCode,
				fmt.Sprintf("no active licence covers substance %s with activity %s on %s",
					line.SubstanceCode, required, tx.TransactionDate.Format("2006-01-02")))
			continue
		}

		chosen, err := c.firstWithinCaps(ctx, tx, line, eligible)
		if err != nil {
			return nil, err
		}
		if chosen == nil {
			violations.add(model.ViolationLicenceCapExceeded, model.SeverityViolation, line.SubstanceCode,
				fmt.Sprintf("quantity %s g of substance %s exceeds the cap of every covering licence",
					line.BaseQuantity.String(), line.SubstanceCode))
			continue
		}

		usages = append(usages, &model.TransactionLicenceUsageModel{
			ID:                uuid.New().String(),
			TransactionID:     tx.ID,
			TransactionLineID: line.ID,
			LicenceID:         chosen.Licence.ID,
			MappingID:         chosen.Mapping.ID,
			SubstanceCode:     line.SubstanceCode,
			Quantity:          line.BaseQuantity,
			CreatedAt:         time.Now(),
		})
	}

	return usages, nil
}

// firstWithinCaps 按仓储返回的固定顺序取第一张上限充足的证
func (c *licenceChecker) firstWithinCaps(ctx context.Context, tx *model.TransactionModel, line *model.TransactionLineModel, mappings []*repository.ActiveMapping) (*repository.ActiveMapping, error) {
	for _, am := range mappings {
		if !am.Mapping.AllowsQuantity(line.BaseQuantity) {
			continue
		}
		ok, err := c.withinPeriodCap(ctx, tx, line, am.Mapping)
		if err != nil {
			return nil, err
		}
		if ok {
			return am, nil
		}
	}
	return nil, nil
}

// withinPeriodCap 检查映射的周期数量上限
// 周期累计使用交易日期而非写入时间,保证历史复核结果一致
func (c *licenceChecker) withinPeriodCap(ctx context.Context, tx *model.TransactionModel, line *model.TransactionLineModel, mapping *model.LicenceSubstanceMappingModel) (bool, error) {
	if mapping.MaxQuantityPerPeriod == nil || mapping.Period == nil {
		return true, nil
	}

	from := model.PeriodStartAt(*mapping.Period, tx.TransactionDate)
	usages, err := c.txRepo.FindUsagesForMappingInPeriod(ctx, mapping.ID, from, tx.TransactionDate, tx.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load period usage for mapping %s: %w", mapping.ID, err)
	}

	used := decimal.Zero
	for _, u := range usages {
		used = used.Add(u.Quantity)
	}
	return used.Add(line.BaseQuantity).LessThanOrEqual(*mapping.MaxQuantityPerPeriod), nil
}
