package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

// violationList 验证过程中的违规累加器
// 每次验证从空列表开始,结束时整体替换交易的违规记录
type violationList struct {
	transactionID string
	items         []*model.TransactionViolationModel
}

func newViolationList(transactionID string) *violationList {
	return &violationList{transactionID: transactionID}
}

// add 追加一条违规记录
func (v *violationList) add(code model.ViolationCode, severity model.ViolationSeverity, substanceCode, message string) {
	v.items = append(v.items, &model.TransactionViolationModel{
		ID:            uuid.New().String(),
		TransactionID: v.transactionID,
		Code:          code,
		Severity:      severity,
		Message:       message,
		SubstanceCode: substanceCode,
		CreatedAt:     time.Now(),
	})
}

// hasBlocking 是否存在阻断级违规
func (v *violationList) hasBlocking() bool {
	for _, item := range v.items {
		if item.Blocking() {
			return true
		}
	}
	return false
}

// has 是否存在给定代码的违规
func (v *violationList) has(code model.ViolationCode) bool {
	for _, item := range v.items {
		if item.Code == code {
			return true
		}
	}
	return false
}

// blockingCodes 返回阻断级违规的代码集合(去重)
func (v *violationList) blockingCodes() []model.ViolationCode {
	seen := make(map[model.ViolationCode]bool)
	var codes []model.ViolationCode
	for _, item := range v.items {
		if item.Blocking() && !seen[item.Code] {
			seen[item.Code] = true
			codes = append(codes, item.Code)
		}
	}
	return codes
}
