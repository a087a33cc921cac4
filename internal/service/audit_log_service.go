package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// 审计动作常量
const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionValidate        = "validate"
	ActionRevalidate      = "revalidate"
	ActionApproveOverride = "approve_override"
	ActionRejectOverride  = "reject_override"
	ActionExport          = "export"
)

// 审计资源类型常量
const (
	ResourceTransaction = "transaction"
	ResourceThreshold   = "threshold"
	ResourceLicence     = "licence"
	ResourceCustomer    = "customer"
	ResourceSubstance   = "substance"
	ResourceGDPSite     = "gdp_site"
	ResourceRetention   = "retention"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, action string, resourceType string, resourceID string, details interface{}) error
	GetByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
	GetByUser(ctx context.Context, userID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
// 操作人与请求元信息从认证中间件写入的 context 中读取
func (s *auditLogService) RecordAction(
	ctx context.Context,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	userID := auth.UserID(ctx)
	if userID == "" {
		userID = "system"
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    auth.RequestID(ctx),
		IP:           auth.ClientIP(ctx),
		UserAgent:    auth.UserAgent(ctx),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// GetByResource 查询资源的审计轨迹
func (s *auditLogService) GetByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(ctx, resourceType, resourceID)
}

// GetByUser 查询用户的操作轨迹
func (s *auditLogService) GetByUser(ctx context.Context, userID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByUserID(ctx, userID)
}
