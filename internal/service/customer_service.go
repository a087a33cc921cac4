package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// CustomerService 客户资质管理服务接口
// 客户主数据属于 CRM,这里只维护合规资质扩展
type CustomerService interface {
	Create(ctx context.Context, customer *model.CustomerModel) error
	Update(ctx context.Context, customer *model.CustomerModel) error
	Get(ctx context.Context, id string) (*model.CustomerModel, error)
	List(ctx context.Context) ([]*model.CustomerModel, error)
	// SetApprovalStatus 变更客户资质状态,暂停或驳回后客户不可交易
	SetApprovalStatus(ctx context.Context, id string, status model.CustomerApprovalStatus) error
}

// customerService 客户资质管理服务实现
type customerService struct {
	customerRepo repository.CustomerRepository
	auditService AuditLogService
	logger       *logrus.Logger
}

// NewCustomerService 创建客户资质管理服务
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	auditService AuditLogService,
	logger *logrus.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// Create 创建客户资质记录
func (s *customerService) Create(ctx context.Context, customer *model.CustomerModel) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if customer.ApprovalStatus == "" {
		customer.ApprovalStatus = model.CustomerPending
	}
	customer.RowVersion = 1
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	if err := customer.Validate(); err != nil {
		return err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionCreate, ResourceCustomer, customer.ID, map[string]interface{}{
		"external_id": customer.ExternalID,
		"name":        customer.Name,
		"category":    customer.Category,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for customer creation")
	}
	return nil
}

// Update 更新客户资质记录(乐观并发)
func (s *customerService) Update(ctx context.Context, customer *model.CustomerModel) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	if err := s.customerRepo.SaveWithVersion(ctx, customer); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceCustomer, customer.ID, map[string]interface{}{
		"approval_status":  customer.ApprovalStatus,
		"override_allowed": customer.OverrideAllowed,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for customer update")
	}
	return nil
}

// Get 查询客户
func (s *customerService) Get(ctx context.Context, id string) (*model.CustomerModel, error) {
	return s.customerRepo.FindByID(ctx, id)
}

// List 查询所有客户
func (s *customerService) List(ctx context.Context) ([]*model.CustomerModel, error) {
	return s.customerRepo.FindAll(ctx)
}

// SetApprovalStatus 变更客户资质状态
// 只影响后续验证,已验证交易的结果保持不变
func (s *customerService) SetApprovalStatus(ctx context.Context, id string, status model.CustomerApprovalStatus) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if customer.ApprovalStatus == status {
		return nil
	}
	from := customer.ApprovalStatus
	customer.ApprovalStatus = status
	if err := customer.Validate(); err != nil {
		return err
	}
	if err := s.customerRepo.SaveWithVersion(ctx, customer); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionUpdate, ResourceCustomer, id, map[string]interface{}{
		"from_status": from,
		"to_status":   status,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for customer status change")
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": id,
		"from_status": from,
		"to_status":   status,
	}).Info("Customer approval status changed")
	return nil
}
