package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// SubstanceController 物质目录控制器
type SubstanceController struct {
	substanceService service.SubstanceService
}

// NewSubstanceController 创建物质目录控制器
func NewSubstanceController(substanceService service.SubstanceService) *SubstanceController {
	return &SubstanceController{
		substanceService: substanceService,
	}
}

// SubstanceRequest 物质请求
// @Description 创建或更新物质的请求参数
type SubstanceRequest struct {
	Code           string `json:"code" example:"MORPHINE" binding:"required"`           // 物质代码
	Name           string `json:"name" example:"Morphine" binding:"required"`           // 物质名称
	Classification string `json:"classification" example:"opium_list_I" binding:"required"` // 分级: opium_list_I, opium_list_II, precursor, unscheduled
}

// ReclassificationRequest 重新分级标记请求
// @Description 标记物质重新分级的请求参数
type ReclassificationRequest struct {
	EffectiveFrom time.Time `json:"effective_from" example:"2024-06-01T00:00:00Z" binding:"required"` // 阻断生效日期
}

// Save 保存物质
// @Summary      保存物质
// @Description  创建或更新物质目录条目
// @Tags         物质目录
// @Accept       json
// @Produce      json
// @Param        request body SubstanceRequest true "物质信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /substances [put]
// @Security     BearerAuth
func (c *SubstanceController) Save(ctx *gin.Context) {
	var req SubstanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	if err := utils.ValidateSubstanceCode(req.Code); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid substance code", err.Error())
		return
	}

	existing, err := c.substanceService.Get(ctx.Request.Context(), req.Code)
	substance := &model.SubstanceModel{
		Code:           req.Code,
		Name:           utils.SanitizeString(req.Name),
		Classification: model.SubstanceClassification(req.Classification),
	}
	if err == nil {
		// 保留重新分级标记,分级变更不会隐式解除阻断
		substance.UnderReclassification = existing.UnderReclassification
		substance.ReclassifiedAt = existing.ReclassifiedAt
		substance.CreatedAt = existing.CreatedAt
	}

	if err := c.substanceService.Save(ctx.Request.Context(), substance); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, substance)
}

// Get 获取物质详情
// @Summary      获取物质详情
// @Tags         物质目录
// @Produce      json
// @Param        code path string true "物质代码"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /substances/{code} [get]
// @Security     BearerAuth
func (c *SubstanceController) Get(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := utils.ValidateSubstanceCode(code); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid substance code", err.Error())
		return
	}

	substance, err := c.substanceService.Get(ctx.Request.Context(), code)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, substance)
}

// List 查询物质列表
// @Summary      查询物质目录
// @Tags         物质目录
// @Produce      json
// @Success      200  {object}  Response
// @Router       /substances [get]
// @Security     BearerAuth
func (c *SubstanceController) List(ctx *gin.Context) {
	substances, err := c.substanceService.List(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, substances)
}

// MarkReclassification 标记重新分级
// @Summary      标记物质重新分级
// @Description  标记后自生效日期起该物质的交易验证被阻断,直至解除
// @Tags         物质目录
// @Accept       json
// @Produce      json
// @Param        code path string true "物质代码"
// @Param        request body ReclassificationRequest true "生效日期"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /substances/{code}/reclassification [post]
// @Security     BearerAuth
func (c *SubstanceController) MarkReclassification(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := utils.ValidateSubstanceCode(code); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid substance code", err.Error())
		return
	}

	var req ReclassificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	if err := c.substanceService.MarkReclassification(ctx.Request.Context(), code, req.EffectiveFrom); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"code": code, "under_reclassification": true, "effective_from": req.EffectiveFrom})
}

// ClearReclassification 解除重新分级标记
// @Summary      解除物质重新分级标记
// @Description  复核完成后解除阻断,新验证恢复正常规则
// @Tags         物质目录
// @Produce      json
// @Param        code path string true "物质代码"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /substances/{code}/reclassification [delete]
// @Security     BearerAuth
func (c *SubstanceController) ClearReclassification(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := utils.ValidateSubstanceCode(code); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid substance code", err.Error())
		return
	}

	if err := c.substanceService.ClearReclassification(ctx.Request.Context(), code); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"code": code, "under_reclassification": false})
}
