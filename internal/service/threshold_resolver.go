package service

import (
	"context"
	"sort"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// thresholdResolver 阈值解析器
// 对每个 (物质, 阈值类别) 组合,从候选阈值中选出适用于给定客户的最特异一条:
// 客户级(2) > 客户类别级(1) > 全局级(0)
// 同特异性存在多条时取限额最小者,再按 ID 升序,保证裁决确定
type thresholdResolver struct {
	thresholdRepo repository.ThresholdRepository
}

func newThresholdResolver(thresholdRepo repository.ThresholdRepository) *thresholdResolver {
	return &thresholdResolver{thresholdRepo: thresholdRepo}
}

// Resolve 解析客户对物质在各阈值类别下的适用阈值
// 返回按类别索引的映射,类别无适用阈值时不出现在映射中
func (r *thresholdResolver) Resolve(ctx context.Context, substanceCode string, customer *model.CustomerModel) (map[model.ThresholdKind]*model.ThresholdModel, error) {
	candidates, err := r.thresholdRepo.FindCandidates(ctx, substanceCode)
	if err != nil {
		return nil, err
	}
	return pickThresholds(candidates, customer), nil
}

// pickThresholds 从候选列表中按特异性裁决
func pickThresholds(candidates []*model.ThresholdModel, customer *model.CustomerModel) map[model.ThresholdKind]*model.ThresholdModel {
	applicable := make(map[model.ThresholdKind][]*model.ThresholdModel)
	for _, t := range candidates {
		if !t.Active {
			continue
		}
		if !t.AppliesTo(customer.ID, customer.Category) {
			continue
		}
		applicable[t.Kind] = append(applicable[t.Kind], t)
	}

	result := make(map[model.ThresholdKind]*model.ThresholdModel, len(applicable))
	for kind, list := range applicable {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Specificity() != list[j].Specificity() {
				return list[i].Specificity() > list[j].Specificity()
			}
			if !list[i].LimitValue.Equal(list[j].LimitValue) {
				return list[i].LimitValue.LessThan(list[j].LimitValue)
			}
			return list[i].ID < list[j].ID
		})
		result[kind] = list[0]
	}
	return result
}
