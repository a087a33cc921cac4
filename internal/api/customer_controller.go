package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// CustomerController 客户资质控制器
type CustomerController struct {
	customerService service.CustomerService
}

// NewCustomerController 创建客户资质控制器
func NewCustomerController(customerService service.CustomerService) *CustomerController {
	return &CustomerController{
		customerService: customerService,
	}
}

// CustomerRequest 客户资质请求
// @Description 创建或更新客户资质记录的请求参数
type CustomerRequest struct {
	ExternalID      string `json:"external_id,omitempty" example:"CRM-8842"`                 // CRM 侧客户 ID
	Name            string `json:"name" example:"Apotheek De Brug" binding:"required"`       // 客户名称
	Category        string `json:"category" example:"hospital_pharmacy" binding:"required"`  // 客户类别
	Country         string `json:"country" example:"NL" binding:"required"`                  // 国家代码 (ISO 3166-1 alpha-2)
	OverrideAllowed bool   `json:"override_allowed" example:"false"`                         // 是否允许例外审批
	RowVersion      int    `json:"row_version,omitempty" example:"1"`                        // 行版本(更新时必填)
}

// ApprovalStatusRequest 客户资质状态变更请求
// @Description 变更客户资质审核状态的请求参数
type ApprovalStatusRequest struct {
	Status string `json:"status" example:"approved" binding:"required"` // 目标状态: pending, approved, suspended, rejected
}

// Create 创建客户资质记录
// @Summary      创建客户资质记录
// @Description  登记客户的合规资质影子记录,初始状态为 pending
// @Tags         客户资质
// @Accept       json
// @Produce      json
// @Param        request body CustomerRequest true "客户信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /customers [post]
// @Security     BearerAuth
func (c *CustomerController) Create(ctx *gin.Context) {
	var req CustomerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	if err := utils.ValidateCountryCode(req.Country); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid country code", err.Error())
		return
	}

	customer := &model.CustomerModel{
		ExternalID:      req.ExternalID,
		Name:            utils.SanitizeString(req.Name),
		Category:        req.Category,
		Country:         req.Country,
		OverrideAllowed: req.OverrideAllowed,
	}

	if err := c.customerService.Create(ctx.Request.Context(), customer); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, customer)
}

// Update 更新客户资质记录
// @Summary      更新客户资质记录
// @Description  更新客户资质,使用乐观并发控制
// @Tags         客户资质
// @Accept       json
// @Produce      json
// @Param        id path string true "客户 ID"
// @Param        request body CustomerRequest true "客户信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /customers/{id} [put]
// @Security     BearerAuth
func (c *CustomerController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	var req CustomerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	if err := utils.ValidateCountryCode(req.Country); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid country code", err.Error())
		return
	}

	existing, err := c.customerService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	customer := &model.CustomerModel{
		ID:              id,
		ExternalID:      req.ExternalID,
		Name:            utils.SanitizeString(req.Name),
		Category:        req.Category,
		Country:         req.Country,
		ApprovalStatus:  existing.ApprovalStatus,
		OverrideAllowed: req.OverrideAllowed,
		RowVersion:      req.RowVersion,
		CreatedAt:       existing.CreatedAt,
	}

	if err := c.customerService.Update(ctx.Request.Context(), customer); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, customer)
}

// Get 获取客户详情
// @Summary      获取客户资质详情
// @Tags         客户资质
// @Produce      json
// @Param        id path string true "客户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /customers/{id} [get]
// @Security     BearerAuth
func (c *CustomerController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	customer, err := c.customerService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, customer)
}

// List 查询客户列表
// @Summary      查询客户资质列表
// @Tags         客户资质
// @Produce      json
// @Success      200  {object}  Response
// @Router       /customers [get]
// @Security     BearerAuth
func (c *CustomerController) List(ctx *gin.Context) {
	customers, err := c.customerService.List(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, customers)
}

// SetApprovalStatus 变更客户资质状态
// @Summary      变更客户资质状态
// @Description  审核通过、暂停或驳回客户资质,只影响后续验证
// @Tags         客户资质
// @Accept       json
// @Produce      json
// @Param        id path string true "客户 ID"
// @Param        request body ApprovalStatusRequest true "目标状态"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /customers/{id}/approval-status [post]
// @Security     BearerAuth
func (c *CustomerController) SetApprovalStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	var req ApprovalStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	status := model.CustomerApprovalStatus(req.Status)
	if err := c.customerService.SetApprovalStatus(ctx.Request.Context(), id, status); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "approval_status": status})
}
