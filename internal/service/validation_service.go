package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
	"github.com/yuriirask-bit/compliance-gin/internal/metrics"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
)

// 服务层错误
var (
	// ErrInvalidState 交易当前状态不允许该操作
	ErrInvalidState = errors.New("operation not allowed in current transaction status")
	// ErrJustificationRequired 例外审批必须给出理由
	ErrJustificationRequired = errors.New("override justification is required")
	// ErrSelfApproval 例外审批不得由交易创建人自批
	ErrSelfApproval = errors.New("transaction creator cannot approve their own override")
	// ErrUnknownSubstance 交易引用了未登记的物质
	ErrUnknownSubstance = errors.New("transaction references an unknown substance")
)

// ValidationResult 一次验证的结果
// @Description 交易验证结果
type ValidationResult struct {
	Transaction *model.TransactionModel             `json:"transaction"`
	Violations  []*model.TransactionViolationModel  `json:"violations"`
	ElapsedMS   int64                               `json:"elapsed_ms"` // 验证耗时(毫秒)
}

// ValidationService 交易验证服务接口
// 验证的全部查找(许可证、阈值、物质分级)以交易日期为基准,
// 保证历史交易复核得到与当时一致的结果
type ValidationService interface {
	CreateTransaction(ctx context.Context, tx *model.TransactionModel) error
	GetTransaction(ctx context.Context, id string) (*model.TransactionModel, error)
	ListTransactions(ctx context.Context, filter *repository.TransactionFilter) ([]*model.TransactionModel, int64, error)
	// Validate 执行交易的首次合规验证
	Validate(ctx context.Context, id string) (*ValidationResult, error)
	// Revalidate 对已验证交易重新执行验证,终态交易不可重验
	Revalidate(ctx context.Context, id string) (*ValidationResult, error)
	ApproveOverride(ctx context.Context, id string, justification string) error
	RejectOverride(ctx context.Context, id string, justification string) error
	GetViolations(ctx context.Context, id string) ([]*model.TransactionViolationModel, error)
	GetLicenceUsages(ctx context.Context, id string) ([]*model.TransactionLicenceUsageModel, error)
}

// validationService 交易验证服务实现
type validationService struct {
	txRepo        repository.TransactionRepository
	customerRepo  repository.CustomerRepository
	substanceRepo repository.SubstanceRepository
	resolver      *thresholdResolver
	checker       *licenceChecker
	auditService  AuditLogService
	notifier      StatusNotifier
	logger        *logrus.Logger
}

// NewValidationService 创建交易验证服务
func NewValidationService(
	txRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
	substanceRepo repository.SubstanceRepository,
	thresholdRepo repository.ThresholdRepository,
	licenceRepo repository.LicenceRepository,
	auditService AuditLogService,
	notifier StatusNotifier,
	logger *logrus.Logger,
) ValidationService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	return &validationService{
		txRepo:        txRepo,
		customerRepo:  customerRepo,
		substanceRepo: substanceRepo,
		resolver:      newThresholdResolver(thresholdRepo),
		checker:       newLicenceChecker(licenceRepo, txRepo),
		auditService:  auditService,
		notifier:      notifier,
		logger:        logger,
	}
}

// CreateTransaction 登记交易并将行数量换算为基准单位
// 新交易状态为 pending,验证需显式触发
func (s *validationService) CreateTransaction(ctx context.Context, tx *model.TransactionModel) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	for i := range tx.Lines {
		if tx.Lines[i].ID == "" {
			tx.Lines[i].ID = uuid.New().String()
		}
		tx.Lines[i].TransactionID = tx.ID
	}
	tx.Status = model.StatusPending
	tx.RowVersion = 1
	if tx.CreatedBy == "" {
		tx.CreatedBy = auth.UserID(ctx)
	}

	if err := tx.Validate(); err != nil {
		return err
	}
	for i := range tx.Lines {
		if err := tx.Lines[i].Normalize(); err != nil {
			return err
		}
	}

	// 物质必须已登记,否则验证无法判断分级
	codes := substanceCodes(tx)
	substances, err := s.substanceRepo.FindByCodes(ctx, codes)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if _, ok := substances[code]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSubstance, code)
		}
	}

	if _, err := s.customerRepo.FindByID(ctx, tx.CustomerID); err != nil {
		return err
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return err
	}

	if err := s.auditService.RecordAction(ctx, ActionCreate, ResourceTransaction, tx.ID, map[string]interface{}{
		"external_id": tx.ExternalID,
		"customer_id": tx.CustomerID,
		"type":        tx.Type,
		"direction":   tx.Direction,
		"lines":       len(tx.Lines),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for transaction creation")
	}

	return nil
}

// GetTransaction 查询交易
func (s *validationService) GetTransaction(ctx context.Context, id string) (*model.TransactionModel, error) {
	return s.txRepo.FindByID(ctx, id)
}

// ListTransactions 按过滤器查询交易
func (s *validationService) ListTransactions(ctx context.Context, filter *repository.TransactionFilter) ([]*model.TransactionModel, int64, error) {
	return s.txRepo.FindByFilter(ctx, filter)
}

// Validate 执行首次验证
func (s *validationService) Validate(ctx context.Context, id string) (*ValidationResult, error) {
	return s.run(ctx, id, ActionValidate, []model.TransactionStatus{model.StatusPending})
}

// Revalidate 重新验证
// 允许从 valid/invalid/pending_override_approval 重验,
// approved_with_override 与 rejected 为终态
func (s *validationService) Revalidate(ctx context.Context, id string) (*ValidationResult, error) {
	return s.run(ctx, id, ActionRevalidate, []model.TransactionStatus{
		model.StatusValid,
		model.StatusInvalid,
		model.StatusPendingOverrideApproval,
	})
}

// run 验证流水线
// 所有检查都执行到底,违规整体累积后统一裁决,不短路
func (s *validationService) run(ctx context.Context, id string, action string, allowedFrom []model.TransactionStatus) (*ValidationResult, error) {
	started := time.Now()

	tx, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !statusIn(tx.Status, allowedFrom) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, tx.Status)
	}
	fromStatus := tx.Status

	violations := newViolationList(tx.ID)
	// overrideEligible 在出现不可例外的阻断违规时翻转为假
	overrideEligible := true

	// 1. 客户资质
	customer, err := s.customerRepo.FindByID(ctx, tx.CustomerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		customer = nil
	}
	if customer == nil || !customer.CanTransact() {
		status := "missing"
		if customer != nil {
			status = string(customer.ApprovalStatus)
		}
		violations.add(model.ViolationCustomerNotQualified, model.SeverityViolation, "",
			fmt.Sprintf("customer %s is not qualified to transact (approval status: %s)", tx.CustomerID, status))
		overrideEligible = false
	}

	// 2. 物质重新分级
	substances, err := s.substanceRepo.FindByCodes(ctx, substanceCodes(tx))
	if err != nil {
		return nil, err
	}
	for _, code := range substanceCodes(tx) {
		substance, ok := substances[code]
		if !ok {
			violations.add(model.ViolationSubstanceReclassified, model.SeverityViolation, code,
				fmt.Sprintf("substance %s is not registered in the substance catalogue", code))
			overrideEligible = false
			continue
		}
		if substance.BlockedOn(tx.TransactionDate) {
			violations.add(model.ViolationSubstanceReclassified, model.SeverityViolation, code,
				fmt.Sprintf("substance %s is under reclassification review and blocked for trade", code))
			overrideEligible = false
		}
	}

	// 3. 许可证覆盖与上限
	usages, err := s.checker.Check(ctx, tx, violations)
	if err != nil {
		return nil, err
	}
	if violations.has(model.ViolationMissingLicence) || violations.has(model.ViolationLicenceCapExceeded) {
		overrideEligible = false
	}

	// 4. 数量与频率阈值
	if customer != nil {
		thresholdOK, err := s.checkThresholds(ctx, tx, customer, violations)
		if err != nil {
			return nil, err
		}
		if !thresholdOK {
			overrideEligible = false
		}
	}

	// 5. 裁决
	newStatus := model.StatusValid
	if violations.hasBlocking() {
		if overrideEligible && customer != nil && customer.OverrideAllowed {
			newStatus = model.StatusPendingOverrideApproval
		} else {
			newStatus = model.StatusInvalid
		}
	}

	// 6. 落库: 状态 CAS 写入,违规整体替换,使用记录重建
	// 使用记录仅在 valid 与 pending_override_approval 时保留,
	// invalid 交易不占用许可证额度
	tx.Status = newStatus
	if err := s.txRepo.SaveWithVersion(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.txRepo.ReplaceViolations(ctx, tx.ID, violations.items); err != nil {
		return nil, err
	}
	if err := s.txRepo.DeleteUsages(ctx, tx.ID); err != nil {
		return nil, err
	}
	if newStatus != model.StatusInvalid {
		if err := s.txRepo.InsertUsages(ctx, usages); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(started)
	metrics.RecordValidation(string(newStatus), elapsed.Seconds())
	for _, v := range violations.items {
		metrics.RecordViolation(string(v.Code))
	}

	if err := s.auditService.RecordAction(ctx, action, ResourceTransaction, tx.ID, map[string]interface{}{
		"from_status":    fromStatus,
		"to_status":      newStatus,
		"violations":     len(violations.items),
		"blocking_codes": violations.blockingCodes(),
		"elapsed_ms":     elapsed.Milliseconds(),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for validation")
	}

	s.notifier.NotifyStatusChange(tx.ID, fromStatus, newStatus)

	s.logger.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"from_status":    fromStatus,
		"to_status":      newStatus,
		"violations":     len(violations.items),
		"elapsed_ms":     elapsed.Milliseconds(),
	}).Info("Transaction validation completed")

	return &ValidationResult{
		Transaction: tx,
		Violations:  violations.items,
		ElapsedMS:   elapsed.Milliseconds(),
	}, nil
}

// checkThresholds 检查交易各物质的数量与频率阈值
// 返回假表示存在不允许例外审批的阈值阻断违规
func (s *validationService) checkThresholds(ctx context.Context, tx *model.TransactionModel, customer *model.CustomerModel, violations *violationList) (bool, error) {
	allOverridable := true

	// 同物质多行在交易内先合并
	perSubstance := make(map[string]decimal.Decimal)
	for i := range tx.Lines {
		line := &tx.Lines[i]
		perSubstance[line.SubstanceCode] = perSubstance[line.SubstanceCode].Add(line.BaseQuantity)
	}

	for _, code := range substanceCodes(tx) {
		resolved, err := s.resolver.Resolve(ctx, code, customer)
		if err != nil {
			return false, err
		}

		if t, ok := resolved[model.ThresholdQuantity]; ok {
			overridable, err := s.checkQuantityThreshold(ctx, tx, t, code, perSubstance[code], violations)
			if err != nil {
				return false, err
			}
			if !overridable {
				allOverridable = false
			}
		}

		if t, ok := resolved[model.ThresholdFrequency]; ok {
			overridable, err := s.checkFrequencyThreshold(ctx, tx, t, code, violations)
			if err != nil {
				return false, err
			}
			if !overridable {
				allOverridable = false
			}
		}
	}

	return allOverridable, nil
}

// checkQuantityThreshold 检查单个物质的周期数量阈值
// 周期累计在内存中用 decimal 求和,避免数据库方言的小数精度差异
func (s *validationService) checkQuantityThreshold(ctx context.Context, tx *model.TransactionModel, t *model.ThresholdModel, substanceCode string, txQuantity decimal.Decimal, violations *violationList) (bool, error) {
	from := t.PeriodStart(tx.TransactionDate)
	lines, err := s.txRepo.FindValidatedLinesInPeriod(ctx, tx.CustomerID, substanceCode, from, tx.TransactionDate, tx.ID)
	if err != nil {
		return true, err
	}

	accumulated := decimal.Zero
	for _, line := range lines {
		accumulated = accumulated.Add(line.BaseQuantity)
	}
	projected := accumulated.Add(txQuantity)

	if projected.GreaterThan(t.LimitValue) {
		violations.add(model.ViolationQuantityThresholdExceeded, model.SeverityViolation, substanceCode,
			fmt.Sprintf("projected %s period quantity %s g of substance %s exceeds threshold %q limit %s g",
				t.Period, projected.String(), substanceCode, t.Name, t.LimitValue.String()))
		return t.AllowOverride, nil
	}
	if projected.GreaterThanOrEqual(t.WarningLimit()) {
		violations.add(model.ViolationQuantityThresholdExceeded, model.SeverityWarning, substanceCode,
			fmt.Sprintf("projected %s period quantity %s g of substance %s reaches %d%% of threshold %q limit %s g",
				t.Period, projected.String(), substanceCode, t.WarningPercent, t.Name, t.LimitValue.String()))
	}
	return true, nil
}

// checkFrequencyThreshold 检查单个物质的周期频率阈值
// 计数含本交易,已验证状态为 valid 与 approved_with_override
func (s *validationService) checkFrequencyThreshold(ctx context.Context, tx *model.TransactionModel, t *model.ThresholdModel, substanceCode string, violations *violationList) (bool, error) {
	from := t.PeriodStart(tx.TransactionDate)
	count, err := s.txRepo.CountValidatedInPeriod(ctx, tx.CustomerID, substanceCode, from, tx.TransactionDate, tx.ID)
	if err != nil {
		return true, err
	}

	projected := decimal.NewFromInt(count + 1)
	if projected.GreaterThan(t.LimitValue) {
		violations.add(model.ViolationFrequencyThresholdExceed, model.SeverityViolation, substanceCode,
			fmt.Sprintf("projected %s period transaction count %d for substance %s exceeds threshold %q limit %s",
				t.Period, count+1, substanceCode, t.Name, t.LimitValue.String()))
		return t.AllowOverride, nil
	}
	if projected.GreaterThanOrEqual(t.WarningLimit()) {
		violations.add(model.ViolationFrequencyThresholdExceed, model.SeverityWarning, substanceCode,
			fmt.Sprintf("projected %s period transaction count %d for substance %s reaches %d%% of threshold %q limit %s",
				t.Period, count+1, substanceCode, t.WarningPercent, t.Name, t.LimitValue.String()))
	}
	return true, nil
}

// ApproveOverride 批准例外
// 仅允许从 pending_override_approval 状态进入 approved_with_override,
// 审批人不得是交易创建人,理由必填
func (s *validationService) ApproveOverride(ctx context.Context, id string, justification string) error {
	return s.decideOverride(ctx, id, justification, model.StatusApprovedWithOverride, ActionApproveOverride, "approved")
}

// RejectOverride 驳回例外,交易进入 rejected 终态
func (s *validationService) RejectOverride(ctx context.Context, id string, justification string) error {
	return s.decideOverride(ctx, id, justification, model.StatusRejected, ActionRejectOverride, "rejected")
}

func (s *validationService) decideOverride(ctx context.Context, id string, justification string, to model.TransactionStatus, action string, decision string) error {
	if justification == "" {
		return ErrJustificationRequired
	}

	tx, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !tx.IsOverridePending() {
		return fmt.Errorf("%w: %s", ErrInvalidState, tx.Status)
	}

	approver := auth.UserID(ctx)
	if approver != "" && approver == tx.CreatedBy {
		return ErrSelfApproval
	}

	fromStatus := tx.Status
	now := time.Now()
	tx.Status = to
	tx.OverrideApprover = approver
	tx.OverrideJustification = justification
	tx.OverrideAt = &now

	if err := s.txRepo.SaveWithVersion(ctx, tx); err != nil {
		return err
	}

	metrics.RecordOverrideDecision(decision)

	if err := s.auditService.RecordAction(ctx, action, ResourceTransaction, tx.ID, map[string]interface{}{
		"justification": justification,
		"from_status":   fromStatus,
		"to_status":     to,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit log for override decision")
	}

	s.notifier.NotifyStatusChange(tx.ID, fromStatus, to)

	s.logger.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"decision":       decision,
		"approver":       approver,
	}).Info("Override decision recorded")

	return nil
}

// GetViolations 查询交易的违规记录
func (s *validationService) GetViolations(ctx context.Context, id string) ([]*model.TransactionViolationModel, error) {
	if _, err := s.txRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.txRepo.FindViolations(ctx, id)
}

// GetLicenceUsages 查询交易的许可证使用记录
func (s *validationService) GetLicenceUsages(ctx context.Context, id string) ([]*model.TransactionLicenceUsageModel, error) {
	if _, err := s.txRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.txRepo.FindUsages(ctx, id)
}

// substanceCodes 返回交易涉及的物质代码(去重,保持行序)
func substanceCodes(tx *model.TransactionModel) []string {
	seen := make(map[string]bool)
	var codes []string
	for i := range tx.Lines {
		code := tx.Lines[i].SubstanceCode
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// statusIn 判断状态是否在给定集合中
func statusIn(status model.TransactionStatus, set []model.TransactionStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
