package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// TransactionController 交易控制器
type TransactionController struct {
	validationService service.ValidationService
}

// NewTransactionController 创建交易控制器
func NewTransactionController(validationService service.ValidationService) *TransactionController {
	return &TransactionController{
		validationService: validationService,
	}
}

// CreateTransactionRequest 登记交易请求
// @Description 登记待验证交易的请求参数
type CreateTransactionRequest struct {
	ExternalID         string                   `json:"external_id" example:"ERP-2024-001"`                          // ERP 侧交易 ID
	Type               string                   `json:"type" example:"order" binding:"required"`                     // 交易类型: order, shipment
	Direction          string                   `json:"direction" example:"outbound" binding:"required"`             // 交易方向: inbound, outbound
	CustomerID         string                   `json:"customer_id" example:"cust-001" binding:"required"`           // 客户 ID
	OriginCountry      string                   `json:"origin_country" example:"NL" binding:"required"`              // 起运国
	DestinationCountry string                   `json:"destination_country" example:"DE" binding:"required"`         // 目的国
	TransactionDate    time.Time                `json:"transaction_date" example:"2024-06-01T00:00:00Z" binding:"required"` // 交易日期
	Lines              []TransactionLineRequest `json:"lines" binding:"required"`                                    // 交易行
}

// TransactionLineRequest 交易行请求
// @Description 交易行的请求参数
type TransactionLineRequest struct {
	SubstanceCode string `json:"substance_code" example:"MORPHINE" binding:"required"` // 物质代码
	Quantity      string `json:"quantity" example:"100" binding:"required"`            // 数量
	Unit          string `json:"unit" example:"g" binding:"required"`                  // 计量单位: mg, g, kg
}

// OverrideDecisionRequest 例外审批决定请求
// @Description 例外审批决定的请求参数
type OverrideDecisionRequest struct {
	Justification string `json:"justification" example:"customer provided end-user declaration" binding:"required"` // 审批理由
}

// validateID 验证资源 ID 并在无效时返回错误响应
func (c *TransactionController) validateID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return false
	}
	return true
}

// Create 登记交易
// @Summary      登记交易
// @Description  登记待验证的管制物质交易
// @Tags         交易管理
// @Accept       json
// @Produce      json
// @Param        request body CreateTransactionRequest true "交易信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /transactions [post]
// @Security     BearerAuth
func (c *TransactionController) Create(ctx *gin.Context) {
	var req CreateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	tx := &model.TransactionModel{
		ExternalID:         req.ExternalID,
		Type:               model.TransactionType(req.Type),
		Direction:          model.TransactionDirection(req.Direction),
		CustomerID:         req.CustomerID,
		OriginCountry:      req.OriginCountry,
		DestinationCountry: req.DestinationCountry,
		TransactionDate:    req.TransactionDate,
	}
	for _, line := range req.Lines {
		quantity, err := decimal.NewFromString(line.Quantity)
		if err != nil {
			Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid quantity: "+line.Quantity)
			return
		}
		tx.Lines = append(tx.Lines, model.TransactionLineModel{
			SubstanceCode: line.SubstanceCode,
			Quantity:      quantity,
			Unit:          line.Unit,
		})
	}

	if err := c.validationService.CreateTransaction(ctx.Request.Context(), tx); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, tx)
}

// Get 获取交易详情
// @Summary      获取交易详情
// @Description  根据 ID 获取交易及其交易行
// @Tags         交易管理
// @Produce      json
// @Param        id path string true "交易 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /transactions/{id} [get]
// @Security     BearerAuth
func (c *TransactionController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	tx, err := c.validationService.GetTransaction(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, tx)
}

// List 查询交易列表
// @Summary      查询交易列表
// @Description  按客户、状态、物质、日期范围分页查询交易
// @Tags         交易管理
// @Produce      json
// @Param        customer_id query string false "客户 ID"
// @Param        status query string false "验证状态"
// @Param        substance_code query string false "物质代码"
// @Param        start_date query string false "起始日期 (RFC3339)"
// @Param        end_date query string false "结束日期 (RFC3339)"
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /transactions [get]
// @Security     BearerAuth
func (c *TransactionController) List(ctx *gin.Context) {
	filter, err := parseTransactionFilter(ctx)
	if err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	txs, total, err := c.validationService.ListTransactions(ctx.Request.Context(), filter)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Paginated(ctx, txs, NewPagination(filter.Page, filter.PageSize, total))
}

// Validate 验证交易
// @Summary      验证交易
// @Description  对 pending 状态的交易执行合规验证
// @Tags         交易管理
// @Produce      json
// @Param        id path string true "交易 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /transactions/{id}/validate [post]
// @Security     BearerAuth
func (c *TransactionController) Validate(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	result, err := c.validationService.Validate(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Revalidate 重新验证交易
// @Summary      重新验证交易
// @Description  对已验证交易按当前规则重新验证,终态交易不可重验
// @Tags         交易管理
// @Produce      json
// @Param        id path string true "交易 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /transactions/{id}/revalidate [post]
// @Security     BearerAuth
func (c *TransactionController) Revalidate(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	result, err := c.validationService.Revalidate(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, result)
}

// ApproveOverride 批准例外
// @Summary      批准例外
// @Description  合规官批准待例外审批的交易,需角色 compliance-officer
// @Tags         例外审批
// @Accept       json
// @Produce      json
// @Param        id path string true "交易 ID"
// @Param        request body OverrideDecisionRequest true "审批理由"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /transactions/{id}/override/approve [post]
// @Security     BearerAuth
func (c *TransactionController) ApproveOverride(ctx *gin.Context) {
	c.decideOverride(ctx, c.validationService.ApproveOverride)
}

// RejectOverride 驳回例外
// @Summary      驳回例外
// @Description  合规官驳回待例外审批的交易,需角色 compliance-officer
// @Tags         例外审批
// @Accept       json
// @Produce      json
// @Param        id path string true "交易 ID"
// @Param        request body OverrideDecisionRequest true "审批理由"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /transactions/{id}/override/reject [post]
// @Security     BearerAuth
func (c *TransactionController) RejectOverride(ctx *gin.Context) {
	c.decideOverride(ctx, c.validationService.RejectOverride)
}

func (c *TransactionController) decideOverride(ctx *gin.Context, decide func(ctx context.Context, id, justification string) error) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	var req OverrideDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	if err := decide(ctx.Request.Context(), id, req.Justification); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"transaction_id": id})
}

// GetViolations 查询违规记录
// @Summary      查询交易违规记录
// @Description  查询交易最近一次验证的违规记录
// @Tags         交易管理
// @Produce      json
// @Param        id path string true "交易 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /transactions/{id}/violations [get]
// @Security     BearerAuth
func (c *TransactionController) GetViolations(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	violations, err := c.validationService.GetViolations(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, violations)
}

// GetLicenceUsages 查询许可证使用记录
// @Summary      查询交易的许可证使用记录
// @Description  查询交易各行由哪张许可证授权
// @Tags         交易管理
// @Produce      json
// @Param        id path string true "交易 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /transactions/{id}/licence-usages [get]
// @Security     BearerAuth
func (c *TransactionController) GetLicenceUsages(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateID(ctx, id) {
		return
	}

	usages, err := c.validationService.GetLicenceUsages(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, usages)
}

// parseTransactionFilter 解析交易查询参数
func parseTransactionFilter(ctx *gin.Context) (*repository.TransactionFilter, error) {
	filter := &repository.TransactionFilter{
		Page:     queryInt(ctx, "page", 1),
		PageSize: queryInt(ctx, "page_size", 20),
	}

	if v := ctx.Query("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := ctx.Query("status"); v != "" {
		status := model.TransactionStatus(v)
		filter.Status = &status
	}
	if v := ctx.Query("substance_code"); v != "" {
		filter.SubstanceCode = &v
	}
	if v := ctx.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.StartDate = &t
	}
	if v := ctx.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.EndDate = &t
	}

	return filter, nil
}
