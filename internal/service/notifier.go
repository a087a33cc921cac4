package service

import "github.com/yuriirask-bit/compliance-gin/internal/model"

// StatusNotifier 交易状态变更通知接口
// 由 websocket Hub 实现,验证与例外审批在状态落库后调用
// 实现必须非阻塞,通知失败不影响业务结果
type StatusNotifier interface {
	NotifyStatusChange(transactionID string, from, to model.TransactionStatus)
}

// noopNotifier 空通知器,未接入实时推送时使用
type noopNotifier struct{}

// NewNoopNotifier 创建空通知器
func NewNoopNotifier() StatusNotifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyStatusChange(string, model.TransactionStatus, model.TransactionStatus) {}
