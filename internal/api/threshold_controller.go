package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// ThresholdController 阈值控制器
type ThresholdController struct {
	thresholdService service.ThresholdService
}

// NewThresholdController 创建阈值控制器
func NewThresholdController(thresholdService service.ThresholdService) *ThresholdController {
	return &ThresholdController{
		thresholdService: thresholdService,
	}
}

// ThresholdRequest 阈值请求
// @Description 创建或更新阈值的请求参数
type ThresholdRequest struct {
	Name             string  `json:"name" example:"morphine monthly cap" binding:"required"`  // 阈值名称
	Kind             string  `json:"kind" example:"quantity" binding:"required"`              // 阈值类别: quantity, frequency, value
	SubstanceCode    string  `json:"substance_code" example:"MORPHINE" binding:"required"`    // 物质代码
	CustomerID       *string `json:"customer_id,omitempty" example:"cust-001"`                // 客户作用域(可选)
	CustomerCategory *string `json:"customer_category,omitempty" example:"pharmacy"`          // 客户类别作用域(可选)
	LicenceType      *string `json:"licence_type,omitempty" example:"opium_exemption"`        // 许可证类型作用域(可选)
	Period           string  `json:"period" example:"monthly" binding:"required"`             // 统计周期: daily, weekly, monthly, quarterly, yearly
	LimitValue       string  `json:"limit_value" example:"5000" binding:"required"`           // 限量(quantity 为克, frequency 为次数)
	WarningPercent   int     `json:"warning_percent" example:"80"`                            // 预警百分比
	AllowOverride    bool    `json:"allow_override" example:"true"`                           // 超限是否允许例外审批
	Active           bool    `json:"active" example:"true"`                                   // 是否启用
}

// toModel 将请求转换为模型
func (r *ThresholdRequest) toModel() (*model.ThresholdModel, error) {
	limit, err := decimal.NewFromString(r.LimitValue)
	if err != nil {
		return nil, err
	}
	warningPercent := r.WarningPercent
	if warningPercent == 0 {
		warningPercent = 80
	}
	return &model.ThresholdModel{
		Name:             r.Name,
		Kind:             model.ThresholdKind(r.Kind),
		SubstanceCode:    r.SubstanceCode,
		CustomerID:       r.CustomerID,
		CustomerCategory: r.CustomerCategory,
		LicenceType:      r.LicenceType,
		Period:           model.ThresholdPeriod(r.Period),
		LimitValue:       limit,
		WarningPercent:   warningPercent,
		AllowOverride:    r.AllowOverride,
		Active:           r.Active,
	}, nil
}

// Create 创建阈值
// @Summary      创建阈值
// @Description  创建数量、频次或金额阈值,作用域可限定客户或客户类别
// @Tags         阈值管理
// @Accept       json
// @Produce      json
// @Param        request body ThresholdRequest true "阈值信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds [post]
// @Security     BearerAuth
func (c *ThresholdController) Create(ctx *gin.Context) {
	var req ThresholdRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	threshold, err := req.toModel()
	if err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid limit value: "+req.LimitValue)
		return
	}

	if err := c.thresholdService.Create(ctx.Request.Context(), threshold); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, threshold)
}

// Update 更新阈值
// @Summary      更新阈值
// @Description  更新阈值定义,已验证交易的结果不受影响
// @Tags         阈值管理
// @Accept       json
// @Produce      json
// @Param        id path string true "阈值 ID"
// @Param        request body ThresholdRequest true "阈值信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds/{id} [put]
// @Security     BearerAuth
func (c *ThresholdController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid threshold ID", err.Error())
		return
	}

	var req ThresholdRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	threshold, err := req.toModel()
	if err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid limit value: "+req.LimitValue)
		return
	}
	threshold.ID = id

	if err := c.thresholdService.Update(ctx.Request.Context(), threshold); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, threshold)
}

// Get 获取阈值详情
// @Summary      获取阈值详情
// @Tags         阈值管理
// @Produce      json
// @Param        id path string true "阈值 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds/{id} [get]
// @Security     BearerAuth
func (c *ThresholdController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid threshold ID", err.Error())
		return
	}

	threshold, err := c.thresholdService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, threshold)
}

// List 查询阈值列表
// @Summary      查询阈值列表
// @Tags         阈值管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /thresholds [get]
// @Security     BearerAuth
func (c *ThresholdController) List(ctx *gin.Context) {
	thresholds, err := c.thresholdService.List(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, thresholds)
}

// Deactivate 停用阈值
// @Summary      停用阈值
// @Description  停用后新验证不再应用该阈值,历史结果不变
// @Tags         阈值管理
// @Produce      json
// @Param        id path string true "阈值 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds/{id}/deactivate [post]
// @Security     BearerAuth
func (c *ThresholdController) Deactivate(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid threshold ID", err.Error())
		return
	}

	if err := c.thresholdService.Deactivate(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "active": false})
}

// Delete 删除阈值
// @Summary      删除阈值
// @Tags         阈值管理
// @Produce      json
// @Param        id path string true "阈值 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds/{id} [delete]
// @Security     BearerAuth
func (c *ThresholdController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid threshold ID", err.Error())
		return
	}

	if err := c.thresholdService.Delete(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id})
}

// Resolve 解析适用阈值
// @Summary      解析客户对物质的适用阈值
// @Description  返回按特异性解析后每个阈值类别的生效阈值
// @Tags         阈值管理
// @Produce      json
// @Param        substance_code query string true "物质代码"
// @Param        customer_id query string true "客户 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /thresholds/resolve [get]
// @Security     BearerAuth
func (c *ThresholdController) Resolve(ctx *gin.Context) {
	substanceCode := ctx.Query("substance_code")
	customerID := ctx.Query("customer_id")
	if err := utils.ValidateSubstanceCode(substanceCode); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid substance code", err.Error())
		return
	}
	if err := utils.ValidateID(customerID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	resolved, err := c.thresholdService.ResolveFor(ctx.Request.Context(), substanceCode, customerID)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, resolved)
}
